package notifier

import (
	"whmcs-stock-monitor/internal/events"
	"whmcs-stock-monitor/pkg/logger"
)

// AuditLogger logs every published event. It is the bus-wide subscriber
// that gives every deployment a minimal audit trail in the service log.
type AuditLogger struct {
	logger *logger.Logger
}

// NewAuditLogger creates an audit log event consumer.
func NewAuditLogger(log *logger.Logger) *AuditLogger {
	return &AuditLogger{logger: log}
}

// Register subscribes the audit logger to all event kinds.
func (a *AuditLogger) Register(bus *events.Bus) {
	bus.SubscribeAll(a.Handle)
}

// Handle logs one event.
func (a *AuditLogger) Handle(event events.StockEvent) error {
	a.logger.Info("Stock event",
		logger.StringField("event_id", event.ID),
		logger.StringField("event_type", string(event.EventType)),
		logger.IntField("monitor_id", int(event.MonitorConfigID)),
		logger.IntField("product_id", event.ProductID))
	return nil
}
