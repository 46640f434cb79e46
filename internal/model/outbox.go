package model

import "time"

// Outbox draft statuses. A draft starts as draft or ready_for_review,
// moves to approved only through a human approval, and sent is terminal.
const (
	DraftStatusDraft          = "draft"
	DraftStatusReadyForReview = "ready_for_review"
	DraftStatusApproved       = "approved"
	DraftStatusSent           = "sent"
)

// OutboxDraft represents one prepared message per lead awaiting human
// approval. Once sent the row is immutable.
type OutboxDraft struct {
	ID                       uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	LeadID                   uint       `json:"lead_id" gorm:"not null;index"`
	ToEmail                  string     `json:"to_email,omitempty" gorm:"type:varchar(255);index"`
	Subject                  string     `json:"subject" gorm:"type:varchar(255);not null"`
	BodyText                 string     `json:"body_text" gorm:"type:text;not null"`
	PersonalizationFact      string     `json:"personalization_fact,omitempty" gorm:"type:text"`
	PersonalizationSourceURL string     `json:"personalization_source_url,omitempty" gorm:"type:varchar(512)"`
	Status                   string     `json:"status" gorm:"type:varchar(32);not null;default:draft"`
	ApprovedByHuman          bool       `json:"approved_by_human" gorm:"not null;default:false"`
	ApprovedBy               string     `json:"approved_by,omitempty" gorm:"type:varchar(255)"`
	ApprovedAt               *time.Time `json:"approved_at,omitempty"`
	SentAt                   *time.Time `json:"sent_at,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`

	Lead *Lead `json:"lead,omitempty" gorm:"foreignKey:LeadID"`
}

// TableName specifies the table name for OutboxDraft
func (OutboxDraft) TableName() string {
	return "outbox"
}

// Terminal reports whether the draft has reached its immutable state.
func (d *OutboxDraft) Terminal() bool {
	return d.Status == DraftStatusSent
}
