package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"outreach-engine-go/internal/model"
)

// IsSuppressed reports whether the address is on the suppression list.
func (r *Repository) IsSuppressed(email string) (bool, error) {
	var entry model.Suppression
	result := r.db.Where("email = ?", strings.ToLower(email)).First(&entry)
	if result.Error == nil {
		return true, nil
	}
	if result.Error == gorm.ErrRecordNotFound {
		return false, nil
	}
	return false, fmt.Errorf("failed to check suppression for %s: %w", email, result.Error)
}

// AddSuppression adds an address to the suppression list. Adding an
// already-suppressed address is not an error.
func (r *Repository) AddSuppression(email, reason string) error {
	entry := model.Suppression{Email: strings.ToLower(email), Reason: reason}
	result := r.db.Where("email = ?", entry.Email).FirstOrCreate(&entry)
	if result.Error != nil {
		return fmt.Errorf("failed to add suppression for %s: %w", email, result.Error)
	}
	return nil
}

// ListSuppressions returns all suppression entries.
func (r *Repository) ListSuppressions() ([]model.Suppression, error) {
	var entries []model.Suppression
	if result := r.db.Order("email").Find(&entries); result.Error != nil {
		return nil, fmt.Errorf("failed to list suppressions: %w", result.Error)
	}
	return entries, nil
}
