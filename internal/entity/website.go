package entity

import (
	"time"
)

// Website is a remote WHMCS installation that products are monitored on.
type Website struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"uniqueIndex;not null"`
	WebsiteURL    string    `json:"website_url" gorm:"not null"`
	APIIdentifier string    `json:"-" gorm:"column:api_identifier;not null"`
	APISecret     string    `json:"-" gorm:"column:api_secret;not null"`
	Region        *string   `json:"region,omitempty"`
	IsActive      bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Website) TableName() string {
	return "websites"
}
