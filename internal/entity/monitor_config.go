package entity

import (
	"time"
)

// MonitorConfig identifies one (website, product) pair under monitoring.
// It is owned by configuration management and read-only to the engine
// during a cycle, except for LastCheckedAt.
type MonitorConfig struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	WebsiteID   uint    `json:"website_id" gorm:"not null;index;uniqueIndex:idx_monitor_configs_website_product"`
	ProductID   int     `json:"product_id" gorm:"not null;uniqueIndex:idx_monitor_configs_website_product"`
	ProductName *string `json:"product_name,omitempty"`

	IsActive bool `json:"is_active" gorm:"not null;default:true;index"`

	ThresholdLow  *int `json:"threshold_low,omitempty"`
	ThresholdHigh *int `json:"threshold_high,omitempty"`

	NotifyOnRestock   bool `json:"notify_on_restock" gorm:"not null;default:true"`
	NotifyOnPurchase  bool `json:"notify_on_purchase" gorm:"not null;default:true"`
	NotifyOnThreshold bool `json:"notify_on_threshold" gorm:"not null;default:true"`

	PurchaseLink *string `json:"purchase_link,omitempty"`

	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`

	Website Website `json:"-" gorm:"foreignKey:WebsiteID"`
}

func (MonitorConfig) TableName() string {
	return "monitor_configs"
}
