package repository

import (
	"fmt"

	"gorm.io/gorm"

	"outreach-engine-go/internal/lifecycle"
	"outreach-engine-go/internal/model"
)

func (r *Repository) GetLead(id uint) (*model.Lead, error) {
	var lead model.Lead
	result := r.db.First(&lead, id)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get lead %d: %w", id, result.Error)
	}
	return &lead, nil
}

func (r *Repository) GetCompany(id uint) (*model.Company, error) {
	var company model.Company
	result := r.db.First(&company, id)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get company %d: %w", id, result.Error)
	}
	return &company, nil
}

// AdvanceLeadStatus moves a lead to the next lifecycle status after
// validating the transition.
func (r *Repository) AdvanceLeadStatus(lead *model.Lead, target string) error {
	if err := lifecycle.AssertTransition(lead.Status, target); err != nil {
		return err
	}
	result := r.db.Model(lead).Update("status", target)
	if result.Error != nil {
		return fmt.Errorf("failed to update lead %d status: %w", lead.ID, result.Error)
	}
	lead.Status = target
	return nil
}
