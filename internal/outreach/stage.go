package outreach

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/model"
)

// StageStore is the persistence surface the outreach stage needs.
type StageStore interface {
	FetchQueuedOutreach(limit int) ([]model.Outreach, error)
	ApplyOutreachResult(row *model.Outreach, status, reason string, sentAt *time.Time) error
}

// Stage loads queued outreach rows, runs them through the processor and
// persists one result per item.
type Stage struct {
	repo      StageStore
	processor *Processor
	enabled   bool
	batchSize int
}

// NewStage creates the outreach batch stage. enabled is the global kill
// switch, checked before anything else.
func NewStage(repo StageStore, processor *Processor, enabled bool) *Stage {
	return &Stage{repo: repo, processor: processor, enabled: enabled, batchSize: 100}
}

// Run processes one batch of queued outreach items.
func (s *Stage) Run(ctx context.Context) error {
	if !s.enabled {
		logrus.Warn("Sending disabled by kill switch, skipping outreach batch")
		return nil
	}

	rows, err := s.repo.FetchQueuedOutreach(s.batchSize)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		item := Item{OutreachID: row.ID, Subject: row.Subject, Body: row.Body}
		if row.Lead != nil {
			item.ToEmail = row.Lead.ContactEmail
			item.Region = row.Lead.Region
			item.IsOptIn = row.Lead.OptIn
		}
		items = append(items, item)
	}

	results := s.processor.Process(ctx, items)

	byID := make(map[uint]*model.Outreach, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	for _, result := range results {
		row := byID[result.OutreachID]
		if row == nil {
			continue
		}
		var sentAt *time.Time
		if result.SentAt != nil {
			ts := *result.SentAt
			sentAt = &ts
		}
		if err := s.repo.ApplyOutreachResult(row, result.Status, result.Reason, sentAt); err != nil {
			logrus.Errorf("Failed to persist outreach %d result: %v", result.OutreachID, err)
		}
	}

	logrus.Infof("Outreach batch finished: %d item(s) processed", len(results))
	return nil
}
