package repository

import (
	"encoding/json"
	"fmt"

	"outreach-engine-go/internal/model"
)

// LogAudit appends one entry to the audit trail. Entries are written
// for every guardrail evaluation regardless of outcome and are never
// mutated afterwards.
func (r *Repository) LogAudit(action, source, legalBasis string, details map[string]interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}
	entry := model.AuditEntry{
		Action:     action,
		Source:     source,
		LegalBasis: legalBasis,
		Details:    string(payload),
	}
	if result := r.db.Create(&entry); result.Error != nil {
		return fmt.Errorf("failed to write audit entry: %w", result.Error)
	}
	return nil
}

// ListAuditEntries returns recent audit entries, newest first.
func (r *Repository) ListAuditEntries(action string, limit int) ([]model.AuditEntry, error) {
	var entries []model.AuditEntry
	query := r.db.Order("id DESC")
	if action != "" {
		query = query.Where("action = ?", action)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&entries); result.Error != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", result.Error)
	}
	return entries, nil
}
