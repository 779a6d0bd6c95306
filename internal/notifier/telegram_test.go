package notifier

import (
	"errors"
	"testing"

	"whmcs-stock-monitor/internal/events"
	"whmcs-stock-monitor/pkg/logger"

	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) SendMessage(text string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, text)
	return nil
}

func intPtr(v int) *int { return &v }

func namedEvent(eventType events.EventType) events.StockEvent {
	ev := events.NewStockEvent(eventType)
	ev.MonitorConfigID = 1
	ev.ProductID = 42
	ev.ProductName = "VPS Small"
	return ev
}

func TestFormatStockEvent(t *testing.T) {
	restock := namedEvent(events.EventStockIncreased)
	restock.Quantity = intPtr(25)
	restock.Delta = intPtr(25)
	msg := FormatStockEvent(restock)
	require.Contains(t, msg, "Restock: VPS Small")
	require.Contains(t, msg, "25")
	require.Contains(t, msg, "+25")

	purchase := namedEvent(events.EventStockDecreased)
	purchase.Quantity = intPtr(2)
	purchase.Delta = intPtr(-1)
	msg = FormatStockEvent(purchase)
	require.Contains(t, msg, "Purchase: VPS Small")
	require.Contains(t, msg, "-1")

	low := namedEvent(events.EventThresholdBreachLow)
	low.Quantity = intPtr(2)
	low.ThresholdValue = intPtr(5)
	msg = FormatStockEvent(low)
	require.Contains(t, msg, "Low stock: VPS Small")
	require.Contains(t, msg, "at or below the threshold of 5")

	high := namedEvent(events.EventThresholdBreachHigh)
	high.Quantity = intPtr(120)
	high.ThresholdValue = intPtr(100)
	msg = FormatStockEvent(high)
	require.Contains(t, msg, "High stock: VPS Small")
	require.Contains(t, msg, "at or above the threshold of 100")

	failure := namedEvent(events.EventMonitorError)
	failure.ErrorMessage = "connection refused"
	msg = FormatStockEvent(failure)
	require.Contains(t, msg, "Monitor error: VPS Small")
	require.Contains(t, msg, "connection refused")
}

func TestFormatStockEventFallsBackToProductID(t *testing.T) {
	ev := events.NewStockEvent(events.EventStockIncreased)
	ev.ProductID = 42
	require.Contains(t, FormatStockEvent(ev), "Product 42")
}

func TestFormatStockEventSkipsLifecycleKinds(t *testing.T) {
	require.Empty(t, FormatStockEvent(events.NewStockEvent(events.EventMonitorStarted)))
	require.Empty(t, FormatStockEvent(events.NewStockEvent(events.EventMonitorCompleted)))
	require.Empty(t, FormatStockEvent(events.NewStockEvent(events.EventStockUnchanged)))
}

func TestTelegramNotifierSubscriptions(t *testing.T) {
	sink := &fakeNotifier{}
	bus := events.NewBus(logger.NewNop())
	NewTelegramNotifier(sink, logger.NewNop()).Register(bus)

	ev := namedEvent(events.EventStockDecreased)
	ev.Quantity = intPtr(2)
	bus.Publish(ev)
	require.Len(t, sink.messages, 1)

	// Lifecycle and unchanged kinds never reach the chat.
	bus.Publish(events.NewStockEvent(events.EventMonitorStarted))
	bus.Publish(events.NewStockEvent(events.EventStockUnchanged))
	bus.Publish(events.NewStockEvent(events.EventMonitorCompleted))
	require.Len(t, sink.messages, 1)
}

func TestTelegramNotifierSendFailure(t *testing.T) {
	sink := &fakeNotifier{err: errors.New("telegram down")}
	n := NewTelegramNotifier(sink, logger.NewNop())

	err := n.Handle(namedEvent(events.EventStockIncreased))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to send telegram notification")
}
