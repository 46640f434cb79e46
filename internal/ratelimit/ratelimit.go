// Package ratelimit enforces the daily send caps, globally and per
// recipient domain, on top of the shared counter store.
package ratelimit

import (
	"fmt"
	"time"

	"outreach-engine-go/internal/counter"
)

// CounterTTL keeps counter rows bounded; daily buckets expire after two
// days.
const CounterTTL = 48 * time.Hour

// Limiter throttles outbound volume. CanSend/RecordSend mirror the
// historical two-call protocol and are kept for read-only inspection;
// the send paths use Reserve/Release, which close the check-then-act
// race by making the check-and-increment a single atomic operation.
type Limiter struct {
	store       counter.Store
	dailyLimit  int64
	domainLimit int64
	prefix      string
}

// NewLimiter creates a limiter with the configured daily caps.
func NewLimiter(store counter.Store, dailyLimit, domainLimit int64) *Limiter {
	return &Limiter{
		store:       store,
		dailyLimit:  dailyLimit,
		domainLimit: domainLimit,
		prefix:      "send",
	}
}

func (l *Limiter) key(ts time.Time, domain string) string {
	suffix := ts.UTC().Format("2006-01-02")
	if domain != "" {
		return fmt.Sprintf("%s:%s:%s", l.prefix, domain, suffix)
	}
	return fmt.Sprintf("%s:%s", l.prefix, suffix)
}

// CanSend reports whether today's counters are below their caps. It
// does not consume capacity; concurrent callers should use Reserve.
func (l *Limiter) CanSend(ts time.Time, domain string) (bool, error) {
	global, err := l.store.Get(l.key(ts, ""))
	if err != nil {
		return false, err
	}
	if global >= l.dailyLimit {
		return false, nil
	}
	if domain != "" {
		count, err := l.store.Get(l.key(ts, domain))
		if err != nil {
			return false, err
		}
		return count < l.domainLimit, nil
	}
	return true, nil
}

// RecordSend increments today's global and, if given, domain counters.
func (l *Limiter) RecordSend(ts time.Time, domain string) error {
	if _, err := l.store.Increment(l.key(ts, ""), CounterTTL); err != nil {
		return err
	}
	if domain != "" {
		if _, err := l.store.Increment(l.key(ts, domain), CounterTTL); err != nil {
			return err
		}
	}
	return nil
}

// Reserve atomically claims one unit of today's capacity. When the
// domain cap rejects after the global cap accepted, the global claim is
// rolled back so a blocked item never consumes quota.
func (l *Limiter) Reserve(ts time.Time, domain string) (bool, error) {
	ok, err := l.store.IncrementIfBelow(l.key(ts, ""), l.dailyLimit, CounterTTL)
	if err != nil || !ok {
		return false, err
	}
	if domain == "" {
		return true, nil
	}
	ok, err = l.store.IncrementIfBelow(l.key(ts, domain), l.domainLimit, CounterTTL)
	if err != nil || !ok {
		if releaseErr := l.store.Decrement(l.key(ts, "")); releaseErr != nil && err == nil {
			err = releaseErr
		}
		return false, err
	}
	return true, nil
}

// Release refunds a reservation after a dispatch failure.
func (l *Limiter) Release(ts time.Time, domain string) error {
	if err := l.store.Decrement(l.key(ts, "")); err != nil {
		return err
	}
	if domain != "" {
		return l.store.Decrement(l.key(ts, domain))
	}
	return nil
}
