package lockmgr

// IPermitGuard defines the interface of a lifecycle guard.
//
// A guard hands out two kinds of permits: data permits are shared and may be held by any
// number of callers at the same time, a lifecycle permit is exclusive and excludes every
// other permit. Acquisition blocks until the permit is granted, there is no timeout.
type IPermitGuard interface {
	// AcquireDataPermit blocks until a shared data permit is granted.
	// No data permit is granted while a lifecycle permit is held or waiting.
	AcquireDataPermit() *Permit

	// AcquireLifecyclePermit blocks until the exclusive lifecycle permit is granted.
	AcquireLifecyclePermit() *Permit
}
