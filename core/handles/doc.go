// Package handles provides the two-tier handle-record deduplication used
// by the re-dispatch pipeline.
//
// A handle-record is durable proof that a specific handler has already
// processed a specific event. Records are keyed by (event ID, handler
// type code), written at most once and never mutated.
//
// The two tiers are:
//
//   - [Store]: the persistent tier and single source of truth. A record
//     present here means the handler's side effects have happened;
//     absence from any other tier proves nothing.
//   - [Cache]: a volatile read-through accelerator in front of the
//     store. It can be dropped or rebuilt at any time without weakening
//     the dedup guarantee. Entries are evicted once a whole stream has
//     been re-dispatched successfully, since the store then carries the
//     durable proof.
//
// Both tiers must be safe for concurrent use from multiple shard
// workers. [LRU] serializes all access through a single goroutine
// (no external locking); [MemStore] uses a RWMutex and stands in for
// external persistent storage in tests. Production deployments back the
// store tier with NATS JetStream KV via the adapters/nats package.
package handles
