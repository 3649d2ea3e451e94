package lstore

import (
	"github.com/rcrowley/go-metrics"
)

// Metric names
const (
	MetricGet        = "store.get"
	MetricPut        = "store.put"
	MetricDelete     = "store.delete"
	MetricKeys       = "store.keys"
	MetricBatch      = "store.batch"
	MetricBatchSize  = "store.batch.size"
	MetricIOFailures = "store.io_failures"
	MetricAlerts     = "alerts"

	MetricIterationInUse  = "iteration.inuse"
	MetricIterationLeases = "iteration.leases"
)

// storeMetrics bundles the metrics every store records
type storeMetrics struct {
	get        metrics.Timer
	put        metrics.Timer
	delete     metrics.Timer
	keys       metrics.Timer
	batch      metrics.Timer
	batchSize  metrics.Histogram
	ioFailures metrics.Counter
}

func newStoreMetrics(r metrics.Registry) *storeMetrics {
	return &storeMetrics{
		get:        metrics.GetOrRegisterTimer(MetricGet, r),
		put:        metrics.GetOrRegisterTimer(MetricPut, r),
		delete:     metrics.GetOrRegisterTimer(MetricDelete, r),
		keys:       metrics.GetOrRegisterTimer(MetricKeys, r),
		batch:      metrics.GetOrRegisterTimer(MetricBatch, r),
		batchSize:  metrics.GetOrRegisterHistogram(MetricBatchSize, r, metrics.NewUniformSample(1028)),
		ioFailures: metrics.GetOrRegisterCounter(MetricIOFailures, r),
	}
}
