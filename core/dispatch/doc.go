// Package dispatch re-delivers the event stream attached to a
// publishable exception to its registered event handlers.
//
// # Overview
//
// When a previous event-handling attempt failed, the surrounding
// runtime records a [PublishableException] carrying the event stream
// that was being processed plus correlation items (at minimum the
// process id of the owning saga). Re-dispatching that stream must be
// idempotent: a handler's side effects may happen at most once per
// (event, handler) pair, no matter how often the exception is
// re-delivered or retried.
//
// Idempotency is enforced with a two-tier handle-record check (see the
// handles package): before a handler runs, both the cache tier and the
// authoritative store tier are consulted; after it succeeds, a record
// is written store-first. Concurrent store lookups for the same key are
// collapsed via single-flight.
//
// Handlers may emit commands to advance the owning process. Command ids
// are derived deterministically from the exception identity, the
// command key and the involved type codes ([DeriveCommandID]), so a
// re-run produces byte-identical ids and the downstream receiver can
// dedup on them.
//
// [StreamDispatcher.DispatchStream] attempts every (event, handler)
// pair even when some fail, aggregates the failures, and evicts the
// cache-tier records only after the whole stream succeeded.
package dispatch
