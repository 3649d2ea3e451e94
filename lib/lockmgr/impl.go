package lockmgr

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rcrowley/go-metrics"
)

// PermitKind distinguishes the two kinds of permits
type PermitKind int

const (
	DataPermit PermitKind = iota
	LifecyclePermit
)

func (k PermitKind) String() string {
	switch k {
	case DataPermit:
		return "data"
	case LifecyclePermit:
		return "lifecycle"
	default:
		return "unknown"
	}
}

// Names of the wait timers registered by NewPermitGuard
const (
	MetricDataWait      = "permit.data.wait"
	MetricLifecycleWait = "permit.lifecycle.wait"
)

// --------------------------------------------------------------------------
// Guard
// --------------------------------------------------------------------------

// PermitGuard implements IPermitGuard with a sync.RWMutex. A blocked writer keeps new
// readers out, so a waiting lifecycle permit is not starved by a stream of data permits.
type PermitGuard struct {
	mu            sync.RWMutex
	dataWait      metrics.Timer
	lifecycleWait metrics.Timer
}

// NewPermitGuard creates a guard. If registry is not nil, the time callers wait for a
// permit is recorded there (MetricDataWait, MetricLifecycleWait).
func NewPermitGuard(registry metrics.Registry) *PermitGuard {
	g := &PermitGuard{}
	if registry != nil {
		g.dataWait = metrics.GetOrRegisterTimer(MetricDataWait, registry)
		g.lifecycleWait = metrics.GetOrRegisterTimer(MetricLifecycleWait, registry)
	}
	return g
}

// AcquireDataPermit blocks until a shared data permit is granted.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (g *PermitGuard) AcquireDataPermit() *Permit {
	start := time.Now()
	g.mu.RLock()
	if g.dataWait != nil {
		g.dataWait.UpdateSince(start)
	}
	return &Permit{guard: g, kind: DataPermit}
}

// AcquireLifecyclePermit blocks until the exclusive lifecycle permit is granted.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (g *PermitGuard) AcquireLifecyclePermit() *Permit {
	start := time.Now()
	g.mu.Lock()
	if g.lifecycleWait != nil {
		g.lifecycleWait.UpdateSince(start)
	}
	return &Permit{guard: g, kind: LifecyclePermit}
}

// --------------------------------------------------------------------------
// Permit
// --------------------------------------------------------------------------

// Permit is a granted data or lifecycle permit. It must be released exactly once by the
// holder, further calls to Release do nothing.
type Permit struct {
	guard    *PermitGuard
	kind     PermitKind
	released atomic.Bool
}

// Kind returns whether this is a data or a lifecycle permit
func (p *Permit) Kind() PermitKind {
	return p.kind
}

// Release gives the permit back to the guard.
func (p *Permit) Release() {
	if !p.released.CompareAndSwap(false, true) {
		return
	}
	if p.kind == LifecyclePermit {
		p.guard.mu.Unlock()
	} else {
		p.guard.mu.RUnlock()
	}
}
