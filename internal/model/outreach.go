package model

import "time"

// Outreach item statuses.
const (
	OutreachStatusQueued  = "queued"
	OutreachStatusSent    = "sent"
	OutreachStatusBlocked = "blocked"
	OutreachStatusFailed  = "failed"
)

// Outreach is one queued outbound message for a lead, dispatched by the
// outreach batch stage.
type Outreach struct {
	ID        uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	LeadID    uint       `json:"lead_id" gorm:"not null;index"`
	Subject   string     `json:"subject" gorm:"type:varchar(255);not null"`
	Body      string     `json:"body" gorm:"type:text;not null"`
	Status    string     `json:"status" gorm:"type:varchar(32);not null;default:queued"`
	Reason    string     `json:"reason,omitempty" gorm:"type:varchar(64)"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	Lead *Lead `json:"lead,omitempty" gorm:"foreignKey:LeadID"`
}

// TableName specifies the table name for Outreach
func (Outreach) TableName() string {
	return "outreach"
}
