package model

import "time"

// AuditEntry is an append-only record of a guardrail evaluation or
// administrative action. Rows are never updated or deleted.
type AuditEntry struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Action     string    `json:"action" gorm:"type:varchar(128);not null;index"`
	Source     string    `json:"source,omitempty" gorm:"type:varchar(255)"`
	LegalBasis string    `json:"legal_basis,omitempty" gorm:"type:varchar(255)"`
	Details    string    `json:"details,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for AuditEntry
func (AuditEntry) TableName() string {
	return "audit_log"
}
