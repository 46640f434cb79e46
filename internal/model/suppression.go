package model

import "time"

// SuppressionReason enumerates why an address was suppressed.
const (
	SuppressionReasonUnsubscribe = "unsubscribe"
	SuppressionReasonHardBounce  = "hard_bounce"
	SuppressionReasonComplaint   = "spam_complaint"
	SuppressionReasonManual      = "manual"
)

// Suppression is an address that must never receive outbound mail,
// regardless of any other gate passing.
type Suppression struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Reason    string    `json:"reason,omitempty" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Suppression
func (Suppression) TableName() string {
	return "suppression"
}
