package model

import "time"

// RateCounter is one time-bucketed counter row shared across worker
// processes. The key encodes scope and bucket (for example
// "send:2026-08-31" or "send_errors:2026-08-31T14:00:00Z"). Values only grow
// within a bucket; rows past ExpiresAt are reaped.
type RateCounter struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Key       string    `json:"key" gorm:"column:counter_key;type:varchar(255);not null;uniqueIndex"`
	Value     int64     `json:"value" gorm:"not null;default:0"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
}

// TableName specifies the table name for RateCounter
func (RateCounter) TableName() string {
	return "rate_counters"
}

// JobSchedule holds the last-run timestamp for one named scheduler job.
type JobSchedule struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	JobName   string    `json:"job_name" gorm:"type:varchar(128);not null;uniqueIndex"`
	LastRunAt time.Time `json:"last_run_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for JobSchedule
func (JobSchedule) TableName() string {
	return "job_schedules"
}
