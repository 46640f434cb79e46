package repository

import (
	"fmt"
	"time"

	"outreach-engine-go/internal/model"
)

// FetchQueuedOutreach returns outreach items awaiting dispatch, with
// their leads preloaded.
func (r *Repository) FetchQueuedOutreach(limit int) ([]model.Outreach, error) {
	var items []model.Outreach
	query := r.db.Preload("Lead").Where("status = ?", model.OutreachStatusQueued).Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&items); result.Error != nil {
		return nil, fmt.Errorf("failed to fetch queued outreach: %w", result.Error)
	}
	return items, nil
}

// ApplyOutreachResult persists the outcome of one dispatched item.
func (r *Repository) ApplyOutreachResult(item *model.Outreach, status, reason string, sentAt *time.Time) error {
	updates := map[string]interface{}{
		"status": status,
		"reason": reason,
	}
	if sentAt != nil {
		updates["sent_at"] = *sentAt
	}
	if result := r.db.Model(item).Updates(updates); result.Error != nil {
		return fmt.Errorf("failed to update outreach %d: %w", item.ID, result.Error)
	}
	item.Status = status
	item.Reason = reason
	item.SentAt = sentAt
	return nil
}
