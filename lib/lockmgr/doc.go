// Package lockmgr implements the lifecycle guard that serializes the lifecycle of a store
// (open, close, destroy) against its data operations.
//
// Core Functionality:
//   - Data permits: shared, any number of data operations run at the same time
//   - Lifecycle permits: exclusive, a lifecycle operation runs alone
//   - Fairness: once a lifecycle permit is waiting, no new data permits are granted
//
// Implementation Approach:
//
//	The PermitGuard wraps a sync.RWMutex. A data permit holds the read lock, the lifecycle
//	permit holds the write lock. Permits are values that remember their kind, so the holder
//	releases them without knowing which lock they stand for. Release is idempotent, which
//	allows a deferred Release next to an early one.
//
//	Permits are not reentrant. A holder of a data permit must not ask for a lifecycle
//	permit (or vice versa), that deadlocks.
//
// Metrics:
//
//	When created with a go-metrics registry, the guard records how long callers waited for
//	each kind of permit in the timers "permit.data.wait" and "permit.lifecycle.wait".
//
// Usage Example:
//
//	guard := lockmgr.NewPermitGuard(nil)
//
//	permit := guard.AcquireDataPermit()
//	defer permit.Release()
//	// read or write the engine
//	// ...
package lockmgr
