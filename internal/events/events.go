package events

import (
	"time"

	"whmcs-stock-monitor/internal/entity"

	"github.com/google/uuid"
)

// EventType identifies a bus message type.
type EventType string

const (
	EventStockIncreased      EventType = "stock_increased"
	EventStockDecreased      EventType = "stock_decreased"
	EventStockUnchanged      EventType = "stock_unchanged"
	EventThresholdBreachLow  EventType = "threshold_breach_low"
	EventThresholdBreachHigh EventType = "threshold_breach_high"
	EventMonitorError        EventType = "monitor_error"
	EventMonitorStarted      EventType = "monitor_started"
	EventMonitorCompleted    EventType = "monitor_completed"
)

// StockEvent is the transient payload dispatched on the bus. It lives only
// for the duration of dispatch; MonitorHistory is its durable analog.
type StockEvent struct {
	ID              string    `json:"id"`
	EventType       EventType `json:"event_type"`
	MonitorConfigID uint      `json:"monitor_config_id"`
	ProductID       int       `json:"product_id"`
	ProductName     string    `json:"product_name,omitempty"`

	Quantity         *int `json:"quantity,omitempty"`
	PreviousQuantity *int `json:"previous_quantity,omitempty"`
	Delta            *int `json:"delta,omitempty"`

	ThresholdValue *int                  `json:"threshold_value,omitempty"`
	ThresholdType  *entity.ThresholdType `json:"threshold_type,omitempty"`

	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// NewStockEvent creates an event with a fresh ID and timestamp.
func NewStockEvent(eventType EventType) StockEvent {
	return StockEvent{
		ID:        uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}
