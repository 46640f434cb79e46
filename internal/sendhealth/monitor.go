// Package sendhealth is an hour-granularity circuit breaker: a burst of
// transport errors in the current hour pauses all sending until the
// bucket rolls over.
package sendhealth

import (
	"fmt"
	"time"

	"outreach-engine-go/internal/counter"
)

// BucketTTL bounds error bucket retention to roughly two hours.
const BucketTTL = 2 * time.Hour

// Monitor counts send failures per hour bucket in the shared counter
// store. It is deliberately blunt: no sliding window and no coordination
// beyond the store's atomic increment.
type Monitor struct {
	store      counter.Store
	spikeLimit int64
	prefix     string
}

// NewMonitor creates a monitor that pauses sending at spikeLimit errors
// within one hour.
func NewMonitor(store counter.Store, spikeLimit int64) *Monitor {
	return &Monitor{store: store, spikeLimit: spikeLimit, prefix: "send_errors"}
}

func (m *Monitor) key(ts time.Time) string {
	bucket := ts.UTC().Truncate(time.Hour)
	return fmt.Sprintf("%s:%s", m.prefix, bucket.Format(time.RFC3339))
}

// RecordError increments the current hour's error counter and returns
// the new count.
func (m *Monitor) RecordError(ts time.Time) (int64, error) {
	return m.store.Increment(m.key(ts), BucketTTL)
}

// IsPaused reports whether the current hour's error count has reached
// the spike threshold. Checked once per batch, not per item.
func (m *Monitor) IsPaused(ts time.Time) (bool, error) {
	count, err := m.store.Get(m.key(ts))
	if err != nil {
		return false, err
	}
	return count >= m.spikeLimit, nil
}
