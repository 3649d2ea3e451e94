package lstore

import (
	"github.com/rcrowley/go-metrics"
)

// AlertCategory is the category every alert raised by a store is tagged with
const AlertCategory = "kvds"

// Alerter receives fatal events (open, close, destroy, iteration and batch commit
// failures). Alert is fire-and-forget: it must not block for long and its outcome never
// changes what the store returns to its caller.
type Alerter interface {
	Alert(category, message string)
}

// AlerterFunc adapts a function to the Alerter interface
type AlerterFunc func(category, message string)

func (f AlerterFunc) Alert(category, message string) {
	f(category, message)
}

// LogAlerter writes alerts to the "store" logger at error level and counts them in the
// "alerts" counter. It is the default Alerter of a store.
type LogAlerter struct {
	alerts metrics.Counter
}

// NewLogAlerter creates a LogAlerter counting into registry (nil means no counting).
func NewLogAlerter(registry metrics.Registry) *LogAlerter {
	a := &LogAlerter{}
	if registry != nil {
		a.alerts = metrics.GetOrRegisterCounter(MetricAlerts, registry)
	}
	return a
}

func (a *LogAlerter) Alert(category, message string) {
	log.Error().Str("category", category).Msg(message)
	if a.alerts != nil {
		a.alerts.Inc(1)
	}
}
