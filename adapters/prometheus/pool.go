package prometheus

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/redispatch-go/core/pool"
)

// poolMetrics implements pool.Metrics using Prometheus.
type poolMetrics struct {
	queueDepth      *prometheus.GaugeVec
	itemsProcessed  *prometheus.CounterVec
	panicsRecovered *prometheus.CounterVec
}

// NewPoolMetrics creates a new Prometheus implementation of
// pool.Metrics.
func NewPoolMetrics(reg prometheus.Registerer) pool.Metrics {
	m := &poolMetrics{
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "redispatch_pool_queue_depth",
			Help: "Current number of queued items per shard",
		}, []string{"shard"}),

		itemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redispatch_pool_items_processed_total",
			Help: "Total number of items processed per shard",
		}, []string{"shard"}),

		panicsRecovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redispatch_pool_panics_recovered_total",
			Help: "Total number of panics recovered in shard workers",
		}, []string{"shard"}),
	}

	reg.MustRegister(m.queueDepth, m.itemsProcessed, m.panicsRecovered)
	return m
}

func (m *poolMetrics) QueueDepth(shard int, depth int) {
	m.queueDepth.WithLabelValues(strconv.Itoa(shard)).Set(float64(depth))
}

func (m *poolMetrics) ItemsProcessed(shard int) {
	m.itemsProcessed.WithLabelValues(strconv.Itoa(shard)).Inc()
}

func (m *poolMetrics) PanicsRecovered(shard int) {
	m.panicsRecovered.WithLabelValues(strconv.Itoa(shard)).Inc()
}

var _ pool.Metrics = (*poolMetrics)(nil)
