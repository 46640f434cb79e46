package model

import "time"

// Company represents one prospect company discovered by the pipeline.
type Company struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name          string    `json:"name" gorm:"type:varchar(255);not null;index"`
	Industry      string    `json:"industry,omitempty" gorm:"type:varchar(255)"`
	Region        string    `json:"region,omitempty" gorm:"type:varchar(16)"`
	WebsiteURL    string    `json:"website_url,omitempty" gorm:"type:varchar(512)"`
	WebsiteDomain string    `json:"website_domain,omitempty" gorm:"type:varchar(255);index"`
	AboutSnippet  string    `json:"about_snippet,omitempty" gorm:"type:varchar(512)"`
	Source        string    `json:"source,omitempty" gorm:"type:varchar(255)"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for Company
func (Company) TableName() string {
	return "companies"
}
