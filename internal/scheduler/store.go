package scheduler

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"outreach-engine-go/internal/model"
)

// GormStore persists last-run records in the job_schedules table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a database-backed last-run store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetLastRun(name string) (time.Time, bool, error) {
	var record model.JobSchedule
	result := s.db.Where("job_name = ?", name).First(&record)
	if result.Error == gorm.ErrRecordNotFound {
		return time.Time{}, false, nil
	}
	if result.Error != nil {
		return time.Time{}, false, fmt.Errorf("failed to get last run for %s: %w", name, result.Error)
	}
	return record.LastRunAt, true, nil
}

func (s *GormStore) SetLastRun(name string, ts time.Time) error {
	record := model.JobSchedule{JobName: name, LastRunAt: ts}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_run_at"}),
	}).Create(&record)
	if result.Error != nil {
		return fmt.Errorf("failed to set last run for %s: %w", name, result.Error)
	}
	return nil
}

// MemoryStore is an in-process last-run store for tests.
type MemoryStore struct {
	mu   sync.Mutex
	runs map[string]time.Time
}

// NewMemoryStore creates an empty in-memory last-run store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]time.Time)}
}

func (s *MemoryStore) GetLastRun(name string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.runs[name]
	return ts, ok, nil
}

func (s *MemoryStore) SetLastRun(name string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[name] = ts
	return nil
}
