package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"outreach-engine-go/internal/lifecycle"
	"outreach-engine-go/internal/model"
)

func (r *Repository) GetDraft(id uint) (*model.OutboxDraft, error) {
	var draft model.OutboxDraft
	result := r.db.First(&draft, id)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get draft %d: %w", id, result.Error)
	}
	return &draft, nil
}

func (r *Repository) ListDrafts(status string, limit int) ([]model.OutboxDraft, error) {
	var drafts []model.OutboxDraft
	query := r.db.Order("id")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&drafts); result.Error != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", result.Error)
	}
	return drafts, nil
}

// FetchApprovedDrafts returns drafts eligible for the send stage.
func (r *Repository) FetchApprovedDrafts(limit int) ([]model.OutboxDraft, error) {
	var drafts []model.OutboxDraft
	query := r.db.Where("status = ? AND approved_by_human = ?", model.DraftStatusApproved, true).Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&drafts); result.Error != nil {
		return nil, fmt.Errorf("failed to fetch approved drafts: %w", result.Error)
	}
	return drafts, nil
}

// ApproveDraft records a human approval and moves the draft into the
// approved status.
func (r *Repository) ApproveDraft(draft *model.OutboxDraft, approver string) error {
	if err := lifecycle.AssertDraftTransition(draft.Status, model.DraftStatusApproved, true); err != nil {
		return err
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":            model.DraftStatusApproved,
		"approved_by_human": true,
		"approved_by":       approver,
		"approved_at":       now,
	}
	if result := r.db.Model(draft).Updates(updates); result.Error != nil {
		return fmt.Errorf("failed to approve draft %d: %w", draft.ID, result.Error)
	}
	draft.Status = model.DraftStatusApproved
	draft.ApprovedByHuman = true
	draft.ApprovedBy = approver
	draft.ApprovedAt = &now
	return nil
}

// MarkDraftSent moves the draft into its terminal status.
func (r *Repository) MarkDraftSent(draft *model.OutboxDraft) error {
	if err := lifecycle.AssertDraftTransition(draft.Status, model.DraftStatusSent, draft.ApprovedByHuman); err != nil {
		return err
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":  model.DraftStatusSent,
		"sent_at": now,
	}
	if result := r.db.Model(draft).Updates(updates); result.Error != nil {
		return fmt.Errorf("failed to mark draft %d sent: %w", draft.ID, result.Error)
	}
	draft.Status = model.DraftStatusSent
	draft.SentAt = &now
	return nil
}

// RegenerateDraft replaces a non-terminal draft with a fresh one for
// the same lead. Approved and sent drafts are immutable and cannot be
// regenerated.
func (r *Repository) RegenerateDraft(old *model.OutboxDraft, replacement *model.OutboxDraft) error {
	if !lifecycle.CanRegenerate(old.Status) {
		return fmt.Errorf("draft %d is %s and cannot be regenerated", old.ID, old.Status)
	}
	replacement.LeadID = old.LeadID
	return r.db.Transaction(func(tx *gorm.DB) error {
		if result := tx.Delete(old); result.Error != nil {
			return fmt.Errorf("failed to discard draft %d: %w", old.ID, result.Error)
		}
		if result := tx.Create(replacement); result.Error != nil {
			return fmt.Errorf("failed to create replacement draft: %w", result.Error)
		}
		return nil
	})
}

func (r *Repository) CreateDraft(draft *model.OutboxDraft) error {
	if result := r.db.Create(draft); result.Error != nil {
		return fmt.Errorf("failed to create draft: %w", result.Error)
	}
	return nil
}
