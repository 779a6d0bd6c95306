package events

import (
	"fmt"
	"sync"

	"whmcs-stock-monitor/pkg/logger"
)

// Handler consumes one event. Errors are logged by the bus and never
// propagate to the publisher or to other handlers.
type Handler func(event StockEvent) error

// Bus is a synchronous in-process publish/subscribe dispatcher. It is an
// explicit dependency: construct one per engine and pass it around, there
// is no package-level instance.
type Bus struct {
	mu             sync.RWMutex
	handlers       map[EventType][]Handler
	globalHandlers []Handler
	logger         *logger.Logger
}

// NewBus creates an empty bus.
func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		logger:   log,
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers a handler for every event type. Global handlers
// run after type-specific ones, each group in registration order.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.globalHandlers = append(b.globalHandlers, handler)
}

// Publish dispatches the event synchronously in the calling goroutine to
// all handlers registered at publish time. A failing or panicking handler
// does not prevent delivery to the remaining handlers.
func (b *Bus) Publish(event StockEvent) {
	b.mu.RLock()
	specific := b.handlers[event.EventType]
	all := make([]Handler, 0, len(specific)+len(b.globalHandlers))
	all = append(all, specific...)
	all = append(all, b.globalHandlers...)
	b.mu.RUnlock()

	b.logger.Debug("Publishing event",
		logger.StringField("event_type", string(event.EventType)),
		logger.IntField("product_id", event.ProductID))

	for _, handler := range all {
		b.dispatch(event, handler)
	}
}

func (b *Bus) dispatch(event StockEvent, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked",
				logger.StringField("event_type", string(event.EventType)),
				logger.ErrorField(fmt.Errorf("%v", r)))
		}
	}()
	if err := handler(event); err != nil {
		b.logger.Error("Event handler failed",
			logger.StringField("event_type", string(event.EventType)),
			logger.ErrorField(err))
	}
}

// ClearHandlers removes all registered handlers.
func (b *Bus) ClearHandlers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[EventType][]Handler)
	b.globalHandlers = nil
}
