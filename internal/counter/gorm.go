package counter

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"outreach-engine-go/internal/model"
)

// GormStore implements Store on the rate_counters table. All mutations
// run as single SQL statements so concurrent workers never observe a
// check-then-act window.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a counter store backed by the given database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(key string) (int64, error) {
	var row model.RateCounter
	result := s.db.Where("counter_key = ? AND expires_at > ?", key, time.Now()).First(&row)
	if result.Error == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to read counter %s: %w", key, result.Error)
	}
	return row.Value, nil
}

func (s *GormStore) Increment(key string, ttl time.Duration) (int64, error) {
	if err := s.ensureRow(key, ttl); err != nil {
		return 0, err
	}
	result := s.db.Exec(
		"UPDATE rate_counters SET value = value + 1 WHERE counter_key = ?", key)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", key, result.Error)
	}
	return s.Get(key)
}

func (s *GormStore) IncrementIfBelow(key string, limit int64, ttl time.Duration) (bool, error) {
	if err := s.ensureRow(key, ttl); err != nil {
		return false, err
	}
	// Conditional increment in one statement; RowsAffected tells us
	// whether this caller won capacity.
	result := s.db.Exec(
		"UPDATE rate_counters SET value = value + 1 WHERE counter_key = ? AND value < ?",
		key, limit)
	if result.Error != nil {
		return false, fmt.Errorf("failed to reserve counter %s: %w", key, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) Decrement(key string) error {
	result := s.db.Exec(
		"UPDATE rate_counters SET value = value - 1 WHERE counter_key = ? AND value > 0", key)
	if result.Error != nil {
		return fmt.Errorf("failed to decrement counter %s: %w", key, result.Error)
	}
	return nil
}

// ensureRow creates the counter row if missing and reuses expired rows
// by resetting them in place, so a bucket key naturally rolls over.
func (s *GormStore) ensureRow(key string, ttl time.Duration) error {
	now := time.Now()
	result := s.db.Exec(
		"INSERT INTO rate_counters (counter_key, value, expires_at) VALUES (?, 0, ?) "+
			"ON DUPLICATE KEY UPDATE value = IF(expires_at <= ?, 0, value), "+
			"expires_at = IF(expires_at <= ?, VALUES(expires_at), expires_at)",
		key, now.Add(ttl), now, now)
	if result.Error != nil {
		return fmt.Errorf("failed to ensure counter %s: %w", key, result.Error)
	}
	return nil
}

// Reap deletes counters past their expiry. Called opportunistically so
// the table stays bounded.
func (s *GormStore) Reap() error {
	result := s.db.Where("expires_at <= ?", time.Now()).Delete(&model.RateCounter{})
	if result.Error != nil {
		return fmt.Errorf("failed to reap expired counters: %w", result.Error)
	}
	return nil
}
