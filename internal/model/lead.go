package model

import "time"

// Lead lifecycle statuses. The chain is forward-only; transitions are
// validated by the lifecycle package.
const (
	LeadStatusNew            = "new"
	LeadStatusEnriched       = "enriched"
	LeadStatusReadyForReview = "ready_for_review"
	LeadStatusApproved       = "approved"
	LeadStatusSent           = "sent"
)

// Contact discovery statuses for a lead.
const (
	ContactStatusPending      = "pending"
	ContactStatusFound        = "found"
	ContactStatusMissingEmail = "missing_email"
)

// Lead represents one contactable entity per company. Leads are never
// hard-deleted; they are retained for audit.
type Lead struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CompanyID     uint      `json:"company_id" gorm:"not null;index"`
	ContactName   string    `json:"contact_name,omitempty" gorm:"type:varchar(255)"`
	ContactRole   string    `json:"contact_role,omitempty" gorm:"type:varchar(255)"`
	ContactEmail  string    `json:"contact_email,omitempty" gorm:"type:varchar(255);index"`
	ContactStatus string    `json:"contact_status" gorm:"type:varchar(32);not null;default:pending"`
	Status        string    `json:"status" gorm:"type:varchar(32);not null;default:new"`
	Region        *string   `json:"region,omitempty" gorm:"type:varchar(16)"`
	OptIn         bool      `json:"opt_in" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at"`

	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

// TableName specifies the table name for Lead
func (Lead) TableName() string {
	return "leads"
}
