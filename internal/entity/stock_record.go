package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ChangeType classifies the quantity delta between two consecutive readings.
type ChangeType string

const (
	ChangeTypeInitial   ChangeType = "initial"
	ChangeTypeRestock   ChangeType = "restock"
	ChangeTypePurchase  ChangeType = "purchase"
	ChangeTypeUnchanged ChangeType = "unchanged"
)

// ThresholdType names the configured boundary a reading crossed.
type ThresholdType string

const (
	ThresholdTypeLow  ThresholdType = "low"
	ThresholdTypeHigh ThresholdType = "high"
)

// StockRecord is one immutable stock reading for a monitor. Records are
// append-only: a row is created exactly once per successful poll and never
// mutated afterwards.
type StockRecord struct {
	ID              uint `json:"id" gorm:"primaryKey"`
	MonitorConfigID uint `json:"monitor_config_id" gorm:"not null;index:idx_stock_records_monitor_created"`

	Quantity int `json:"quantity" gorm:"not null"`
	Delta    int `json:"delta" gorm:"not null;default:0"`

	StockControlEnabled bool `json:"stock_control_enabled" gorm:"not null;default:false"`
	Available           bool `json:"available" gorm:"not null;default:true"`

	ChangeType        ChangeType     `json:"change_type"`
	ThresholdBreached bool           `json:"threshold_breached" gorm:"not null;default:false"`
	ThresholdType     *ThresholdType `json:"threshold_type,omitempty"`

	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index:idx_stock_records_monitor_created"`

	MonitorConfig MonitorConfig `json:"-" gorm:"foreignKey:MonitorConfigID"`
}

func (StockRecord) TableName() string {
	return "stock_records"
}
