package pool

// Metrics instruments the worker pool. Implementations must be
// thread-safe.
type Metrics interface {
	QueueDepth(shard int, depth int)
	ItemsProcessed(shard int)
	PanicsRecovered(shard int)
}

type nopMetrics struct{}

func (nopMetrics) QueueDepth(int, int) {}
func (nopMetrics) ItemsProcessed(int)  {}
func (nopMetrics) PanicsRecovered(int) {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
