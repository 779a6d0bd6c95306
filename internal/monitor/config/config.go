package config

import (
	pkgconfig "whmcs-stock-monitor/pkg/config"
)

// Config is the monitoring service configuration.
type Config struct {
	App      pkgconfig.App      `mapstructure:"app"`
	Logger   pkgconfig.Logger   `mapstructure:"logger"`
	Database pkgconfig.Database `mapstructure:"database"`
	Redis    pkgconfig.Redis    `mapstructure:"redis"`
	API      pkgconfig.API      `mapstructure:"api"`
	Whmcs    Whmcs              `mapstructure:"whmcs"`
	Monitor  Monitor            `mapstructure:"monitor"`
	Telegram Telegram           `mapstructure:"telegram"`
	Stream   Stream             `mapstructure:"stream"`
}

// Whmcs holds client defaults shared by every configured website.
type Whmcs struct {
	TimeoutSeconds     int     `mapstructure:"timeout_seconds"`
	CacheTTLSeconds    int     `mapstructure:"cache_ttl_seconds"`
	MaxRetries         int     `mapstructure:"max_retries"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second"`
}

// Monitor holds scheduling configuration for the polling engine.
type Monitor struct {
	Interval       string `mapstructure:"interval"`
	CronExpression string `mapstructure:"cron_expression"`
	Concurrency    int    `mapstructure:"concurrency"`
}

// Telegram holds notification configuration.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Stream holds the redis event stream sink configuration.
type Stream struct {
	Enabled bool   `mapstructure:"enabled"`
	Name    string `mapstructure:"name"`
}

// Load reads the service configuration from the given file path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := pkgconfig.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
