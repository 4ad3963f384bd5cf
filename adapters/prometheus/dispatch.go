package prometheus

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/redispatch-go/core/dispatch"
	"github.com/codewandler/redispatch-go/core/metrics"
)

// dispatchMetrics implements dispatch.Metrics using Prometheus.
type dispatchMetrics struct {
	dispatchDuration  *prometheus.HistogramVec
	eventsDispatched  *prometheus.CounterVec
	dedupHits         *prometheus.CounterVec
	commandsSent      *prometheus.CounterVec
	streamsDispatched *prometheus.CounterVec
}

// NewDispatchMetrics creates a new Prometheus implementation of
// dispatch.Metrics.
func NewDispatchMetrics(reg prometheus.Registerer) dispatch.Metrics {
	m := &dispatchMetrics{
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "redispatch_dispatch_duration_seconds",
			Help:    "Handler dispatch latency per (event, handler) pair in seconds",
			Buckets: defaultBuckets,
		}, []string{"event_type"}),

		eventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redispatch_events_dispatched_total",
			Help: "Total number of (event, handler) pairs dispatched",
		}, []string{"event_type", "success"}),

		dedupHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redispatch_dedup_hits_total",
			Help: "Total number of dispatches skipped because a handle record existed",
		}, []string{"tier"}),

		commandsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redispatch_commands_sent_total",
			Help: "Total number of process commands forwarded downstream",
		}, []string{"command_type"}),

		streamsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redispatch_streams_dispatched_total",
			Help: "Total number of whole-stream dispatch attempts",
		}, []string{"success"}),
	}

	reg.MustRegister(
		m.dispatchDuration,
		m.eventsDispatched,
		m.dedupHits,
		m.commandsSent,
		m.streamsDispatched,
	)
	return m
}

func (m *dispatchMetrics) DispatchDuration(eventType string) metrics.Timer {
	return newTimer(m.dispatchDuration.WithLabelValues(eventType))
}

func (m *dispatchMetrics) EventsDispatched(eventType string, success bool) {
	m.eventsDispatched.WithLabelValues(eventType, strconv.FormatBool(success)).Inc()
}

func (m *dispatchMetrics) DedupHit(tier string) {
	m.dedupHits.WithLabelValues(tier).Inc()
}

func (m *dispatchMetrics) CommandsSent(commandType string) {
	m.commandsSent.WithLabelValues(commandType).Inc()
}

func (m *dispatchMetrics) StreamsDispatched(success bool) {
	m.streamsDispatched.WithLabelValues(strconv.FormatBool(success)).Inc()
}

var _ dispatch.Metrics = (*dispatchMetrics)(nil)
