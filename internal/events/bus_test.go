package events

import (
	"errors"
	"testing"

	"whmcs-stock-monitor/pkg/logger"

	"github.com/stretchr/testify/require"
)

func TestPublishDispatchesInRegistrationOrder(t *testing.T) {
	bus := NewBus(logger.NewNop())

	var order []string
	bus.Subscribe(EventStockIncreased, func(StockEvent) error {
		order = append(order, "first")
		return nil
	})
	bus.Subscribe(EventStockIncreased, func(StockEvent) error {
		order = append(order, "second")
		return nil
	})
	bus.SubscribeAll(func(StockEvent) error {
		order = append(order, "global")
		return nil
	})

	bus.Publish(NewStockEvent(EventStockIncreased))

	require.Equal(t, []string{"first", "second", "global"}, order)
}

func TestPublishOnlyReachesMatchingSubscribers(t *testing.T) {
	bus := NewBus(logger.NewNop())

	var increased, decreased int
	bus.Subscribe(EventStockIncreased, func(StockEvent) error {
		increased++
		return nil
	})
	bus.Subscribe(EventStockDecreased, func(StockEvent) error {
		decreased++
		return nil
	})

	bus.Publish(NewStockEvent(EventStockIncreased))
	bus.Publish(NewStockEvent(EventStockIncreased))

	require.Equal(t, 2, increased)
	require.Equal(t, 0, decreased)
}

func TestPublishWithNoSubscribersIsNoOp(t *testing.T) {
	bus := NewBus(logger.NewNop())
	require.NotPanics(t, func() {
		bus.Publish(NewStockEvent(EventMonitorError))
	})
}

func TestFailingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(logger.NewNop())

	var delivered bool
	bus.Subscribe(EventStockDecreased, func(StockEvent) error {
		return errors.New("handler boom")
	})
	bus.Subscribe(EventStockDecreased, func(StockEvent) error {
		delivered = true
		return nil
	})

	bus.Publish(NewStockEvent(EventStockDecreased))

	require.True(t, delivered)
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(logger.NewNop())

	var delivered bool
	bus.Subscribe(EventStockDecreased, func(StockEvent) error {
		panic("handler panic")
	})
	bus.SubscribeAll(func(StockEvent) error {
		delivered = true
		return nil
	})

	require.NotPanics(t, func() {
		bus.Publish(NewStockEvent(EventStockDecreased))
	})
	require.True(t, delivered)
}

func TestClearHandlers(t *testing.T) {
	bus := NewBus(logger.NewNop())

	var calls int
	bus.Subscribe(EventStockIncreased, func(StockEvent) error {
		calls++
		return nil
	})
	bus.SubscribeAll(func(StockEvent) error {
		calls++
		return nil
	})

	bus.ClearHandlers()
	bus.Publish(NewStockEvent(EventStockIncreased))

	require.Equal(t, 0, calls)
}

func TestNewStockEventAssignsIdentity(t *testing.T) {
	first := NewStockEvent(EventMonitorStarted)
	second := NewStockEvent(EventMonitorStarted)

	require.NotEmpty(t, first.ID)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, EventMonitorStarted, first.EventType)
	require.False(t, first.Timestamp.IsZero())
}
