package common

const (
	// RedisStreamStockEvents is the stream that mirrors every published
	// stock event for out-of-process consumers.
	RedisStreamStockEvents = "stock.monitor.events"
)
