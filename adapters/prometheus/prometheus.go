// Package prometheus provides Prometheus implementations of the
// dispatch and pool metrics interfaces.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/redispatch-go/core/metrics"
)

// timer wraps a Prometheus histogram to implement the Timer interface.
type timer struct {
	h     prometheus.Observer
	start time.Time
}

func newTimer(h prometheus.Observer) metrics.Timer {
	return &timer{h: h, start: time.Now()}
}

func (t *timer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
}

// AllMetrics holds Prometheus implementations for both pillars.
type AllMetrics struct {
	Dispatch *dispatchMetrics
	Pool     *poolMetrics
}

// NewAllMetrics creates and registers metrics for dispatch and pool in
// one call.
func NewAllMetrics(reg prometheus.Registerer) *AllMetrics {
	return &AllMetrics{
		Dispatch: NewDispatchMetrics(reg).(*dispatchMetrics),
		Pool:     NewPoolMetrics(reg).(*poolMetrics),
	}
}
