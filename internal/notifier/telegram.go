package notifier

import (
	"fmt"

	"whmcs-stock-monitor/internal/events"
	"whmcs-stock-monitor/pkg/logger"
	"whmcs-stock-monitor/pkg/telegram"
)

// TelegramNotifier forwards notable stock events to a Telegram chat.
type TelegramNotifier struct {
	notifier telegram.Notifier
	logger   *logger.Logger
}

// NewTelegramNotifier creates a Telegram event consumer.
func NewTelegramNotifier(notifier telegram.Notifier, log *logger.Logger) *TelegramNotifier {
	return &TelegramNotifier{notifier: notifier, logger: log}
}

// Register subscribes the notifier to the event kinds worth a message.
// Cycle lifecycle and unchanged readings are deliberately not included.
func (n *TelegramNotifier) Register(bus *events.Bus) {
	for _, eventType := range []events.EventType{
		events.EventStockIncreased,
		events.EventStockDecreased,
		events.EventThresholdBreachLow,
		events.EventThresholdBreachHigh,
		events.EventMonitorError,
	} {
		bus.Subscribe(eventType, n.Handle)
	}
}

// Handle formats and sends one event.
func (n *TelegramNotifier) Handle(event events.StockEvent) error {
	msg := FormatStockEvent(event)
	if msg == "" {
		return nil
	}
	if err := n.notifier.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	n.logger.Debug("Telegram notification sent",
		logger.StringField("event_type", string(event.EventType)),
		logger.IntField("product_id", event.ProductID))
	return nil
}

// FormatStockEvent renders one event as a Markdown message.
func FormatStockEvent(event events.StockEvent) string {
	name := event.ProductName
	if name == "" {
		name = fmt.Sprintf("Product %d", event.ProductID)
	}

	switch event.EventType {
	case events.EventStockIncreased:
		return fmt.Sprintf("📈 *Restock: %s*\nQuantity: %s (%s)", name,
			formatQuantity(event.Quantity), formatDelta(event.Delta))
	case events.EventStockDecreased:
		return fmt.Sprintf("📉 *Purchase: %s*\nQuantity: %s (%s)", name,
			formatQuantity(event.Quantity), formatDelta(event.Delta))
	case events.EventThresholdBreachLow:
		return fmt.Sprintf("⚠️ *Low stock: %s*\nQuantity %s is at or below the threshold of %s",
			name, formatQuantity(event.Quantity), formatQuantity(event.ThresholdValue))
	case events.EventThresholdBreachHigh:
		return fmt.Sprintf("📊 *High stock: %s*\nQuantity %s is at or above the threshold of %s",
			name, formatQuantity(event.Quantity), formatQuantity(event.ThresholdValue))
	case events.EventMonitorError:
		return fmt.Sprintf("❌ *Monitor error: %s*\n%s", name, event.ErrorMessage)
	}
	return ""
}

func formatQuantity(q *int) string {
	if q == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *q)
}

func formatDelta(d *int) string {
	if d == nil {
		return "±0"
	}
	return fmt.Sprintf("%+d", *d)
}
