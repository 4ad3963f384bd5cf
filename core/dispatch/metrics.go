package dispatch

import "github.com/codewandler/redispatch-go/core/metrics"

// Dedup tiers as reported to metrics.
const (
	TierCache = "cache"
	TierStore = "store"
)

// Metrics instruments the dispatch pipeline. Implementations must be
// thread-safe; dispatch runs on all shard workers concurrently.
type Metrics interface {
	DispatchDuration(eventType string) metrics.Timer
	EventsDispatched(eventType string, success bool)
	DedupHit(tier string)
	CommandsSent(commandType string)
	StreamsDispatched(success bool)
}

type nopMetrics struct{}

func (nopMetrics) DispatchDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) EventsDispatched(string, bool)         {}
func (nopMetrics) DedupHit(string)                       {}
func (nopMetrics) CommandsSent(string)                   {}
func (nopMetrics) StreamsDispatched(bool)                {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
