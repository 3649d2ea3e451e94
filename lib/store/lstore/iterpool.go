package lstore

import (
	"context"
	"sync"

	"github.com/ValentinKolb/kvds/lib/common"
	"github.com/rcrowley/go-metrics"
	"golang.org/x/sync/semaphore"
)

// IterationPool is a bounded budget (in bytes) that enumerations and batches draw from
// while they hold engine iterators or batches. It caps the memory all stores of a process
// spend on scans at the same time.
type IterationPool struct {
	size     int64
	sem      *semaphore.Weighted
	registry metrics.Registry
	inUse    metrics.Gauge
	leases   metrics.Counter
	mu       sync.Mutex
	used     int64
}

// NewIterationPool creates a pool of size bytes. Its gauges and counters are registered
// in registry, nil creates a private registry.
func NewIterationPool(size int64, registry metrics.Registry) *IterationPool {
	if size < 1 {
		size = 1
	}
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	return &IterationPool{
		size:     size,
		sem:      semaphore.NewWeighted(size),
		registry: registry,
		inUse:    metrics.GetOrRegisterGauge(MetricIterationInUse, registry),
		leases:   metrics.GetOrRegisterCounter(MetricIterationLeases, registry),
	}
}

var defaultPool = sync.OnceValue(func() *IterationPool {
	return NewIterationPool(common.DefaultIterationPoolSize, nil)
})

// DefaultIterationPool returns the process wide pool shared by all stores that were not
// given a pool of their own.
func DefaultIterationPool() *IterationPool {
	return defaultPool()
}

// Size returns the capacity of the pool in bytes
func (p *IterationPool) Size() int64 {
	return p.size
}

// InUse returns the number of bytes currently leased
func (p *IterationPool) InUse() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.used
}

// Metrics returns the registry the pool reports into
func (p *IterationPool) Metrics() metrics.Registry {
	return p.registry
}

// Acquire blocks until budget bytes are available and returns them as a lease.
// Budgets outside [1, Size()] are clamped, so a lease can always be granted eventually.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (p *IterationPool) Acquire(budget int64) *IterationLease {
	budget = min(max(budget, 1), p.size)

	// a background context never cancels, so Acquire cannot fail
	_ = p.sem.Acquire(context.Background(), budget)

	p.mu.Lock()
	p.used += budget
	p.inUse.Update(p.used)
	p.mu.Unlock()
	p.leases.Inc(1)

	return &IterationLease{pool: p, budget: budget}
}

func (p *IterationPool) release(budget int64) {
	p.mu.Lock()
	p.used -= budget
	p.inUse.Update(p.used)
	p.mu.Unlock()
	p.sem.Release(budget)
}

// IterationLease is a granted share of an IterationPool.
type IterationLease struct {
	pool   *IterationPool
	budget int64
	once   sync.Once
}

// Budget returns the number of bytes held by the lease
func (l *IterationLease) Budget() int64 {
	return l.budget
}

// Release returns the budget to the pool. Only the first call has an effect.
func (l *IterationLease) Release() {
	l.once.Do(func() {
		l.pool.release(l.budget)
	})
}
