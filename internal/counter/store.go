// Package counter provides the shared counter store used by the rate
// limiter and the send health monitor. Counters are the only mutable
// state shared across worker processes, so every mutation must be a
// single atomic operation against the backing store.
package counter

import "time"

// Store is a TTL-bounded counter store. Keys absent or expired read as
// zero. Increment and IncrementIfBelow must be atomic with respect to
// concurrent callers on the same key.
type Store interface {
	// Get returns the current value for key, or 0 when absent/expired.
	Get(key string) (int64, error)

	// Increment adds one to key and returns the new value. A key
	// created by this call expires after ttl.
	Increment(key string, ttl time.Duration) (int64, error)

	// IncrementIfBelow adds one to key only while its current value is
	// below limit, returning whether the increment was applied. This is
	// the reserve primitive that makes check-and-increment atomic.
	IncrementIfBelow(key string, limit int64, ttl time.Duration) (bool, error)

	// Decrement subtracts one from key, flooring at zero. Used to
	// release a reservation after a failed dispatch.
	Decrement(key string) error
}
