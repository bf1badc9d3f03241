package config

import "time"

// ServerConfig holds the HTTP API server configuration
type ServerConfig struct {
	// Listen address (host:port)
	Address string `mapstructure:"address" validate:"required"`

	// Per-client-IP request budget per minute
	RateLimitPerIPPerMinute int `mapstructure:"rate_limit_per_ip_per_minute" validate:"min=1"`

	// Per-subscriber event queue depth before oldest events are dropped
	EventQueueDepth int `mapstructure:"event_queue_depth" validate:"min=1"`

	// Request deadlines by operation weight
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	SuggestTimeout  time.Duration `mapstructure:"suggest_timeout"`
	AllocateTimeout time.Duration `mapstructure:"allocate_timeout"`
}
