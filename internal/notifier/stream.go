package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"whmcs-stock-monitor/internal/events"
	"whmcs-stock-monitor/pkg/logger"
	redisPkg "whmcs-stock-monitor/pkg/redis"

	redis "github.com/redis/go-redis/v9"
)

const streamWriteTimeout = 5 * time.Second

// StreamSink mirrors every published event onto a capped Redis stream so
// out-of-process consumers can follow along. The in-process bus remains
// the source of truth; the stream is best-effort fan-out.
type StreamSink struct {
	client *redisPkg.Client
	stream string
	maxLen int64
	logger *logger.Logger
}

// NewStreamSink creates a Redis stream event consumer.
func NewStreamSink(client *redisPkg.Client, stream string, maxLen int64, log *logger.Logger) *StreamSink {
	return &StreamSink{client: client, stream: stream, maxLen: maxLen, logger: log}
}

// Register subscribes the sink to all event kinds.
func (s *StreamSink) Register(bus *events.Bus) {
	bus.SubscribeAll(s.Handle)
}

// Handle appends one event to the stream.
func (s *StreamSink) Handle(event events.StockEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), streamWriteTimeout)
	defer cancel()

	if err := s.client.Client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{"payload": payload},
		MaxLen: s.maxLen,
		Approx: true,
	}).Err(); err != nil {
		return fmt.Errorf("failed to append event to stream: %w", err)
	}

	s.logger.Debug("Event appended to stream",
		logger.StringField("stream", s.stream),
		logger.StringField("event_type", string(event.EventType)))
	return nil
}
