package entity

import (
	"time"

	"gorm.io/datatypes"
)

// MonitorHistory is a durable transition record, created when a reading
// represents a change worth recording distinctly from the raw record stream.
type MonitorHistory struct {
	ID              uint `json:"id" gorm:"primaryKey"`
	MonitorConfigID uint `json:"monitor_config_id" gorm:"not null;index"`

	EventType    string `json:"event_type" gorm:"not null;index"`
	FromQuantity *int   `json:"from_quantity,omitempty"`
	ToQuantity   int    `json:"to_quantity" gorm:"not null"`
	Delta        int    `json:"delta" gorm:"not null;default:0"`

	ChangeType        ChangeType     `json:"change_type"`
	ThresholdBreached bool           `json:"threshold_breached" gorm:"not null;default:false"`
	ThresholdType     *ThresholdType `json:"threshold_type,omitempty"`
	ThresholdValue    *int           `json:"threshold_value,omitempty"`

	Message string `json:"message"`

	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`

	MonitorConfig MonitorConfig `json:"-" gorm:"foreignKey:MonitorConfigID"`
}

func (MonitorHistory) TableName() string {
	return "monitor_history"
}
