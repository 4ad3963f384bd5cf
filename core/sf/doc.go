// Package sf provides a generic single-flight mechanism for deduplicating
// concurrent function calls with the same key.
//
// Single-flight ensures that only one execution of a function is in-flight
// for a given key at a time. If multiple goroutines call [Group.Do] with the
// same key concurrently, only the first call executes the function; the
// others block until it completes and receive the same result.
//
// The re-dispatch pipeline uses this to collapse concurrent store-tier
// dedup lookups for the same (event, handler) key coming from different
// shards.
package sf
