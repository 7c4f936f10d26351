package config

import (
	"errors"
	"time"
)

// Config holds configuration for both the relay server and the chat widget.
type Config struct {
	LogLevel string       `mapstructure:"log_level" yaml:"log_level"`
	Relay    RelayConfig  `mapstructure:"relay" yaml:"relay"`
	Widget   WidgetConfig `mapstructure:"widget" yaml:"widget"`
}

// RelayConfig configures the HTTP relay that brokers visitor and operator messages.
type RelayConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	// RateLimitPerMinute caps /send calls per visitor session. Zero disables the limit.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	// AllowedOrigin is echoed in Access-Control-Allow-Origin for the visitor endpoints.
	AllowedOrigin string `mapstructure:"allowed_origin" yaml:"allowed_origin"`

	JWTSecret            string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer            string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience          string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	TokenTTL             time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	OperatorPasswordHash string        `mapstructure:"operator_password_hash" yaml:"operator_password_hash"`

	PresenceTTL time.Duration `mapstructure:"presence_ttl" yaml:"presence_ttl"`
	// RedisAddr switches operator presence to redis when set.
	RedisAddr string `mapstructure:"redis_addr" yaml:"redis_addr"`
}

// WidgetConfig configures the visitor-side chat session.
type WidgetConfig struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	StatePath      string        `mapstructure:"state_path" yaml:"state_path"`
	LogFile        string        `mapstructure:"log_file" yaml:"log_file"`
	Lang           string        `mapstructure:"lang" yaml:"lang"`
	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	StatusInterval time.Duration `mapstructure:"status_interval" yaml:"status_interval"`
	// RequestTimeout of zero leaves the transport defaults in charge.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Relay: RelayConfig{
			Addr:               ":8080",
			ReadHeaderTimeout:  5 * time.Second,
			ShutdownTimeout:    5 * time.Second,
			DatabasePath:       "relay.db",
			MaxMessageBytes:    4 << 10,
			RateLimitPerMinute: 30,
			AllowedOrigin:      "*",
			JWTSecret:          "change-me",
			JWTIssuer:          "wirechat-widget",
			JWTAudience:        "operator",
			TokenTTL:           12 * time.Hour,
			PresenceTTL:        2 * time.Minute,
		},
		Widget: WidgetConfig{
			BaseURL:        "http://localhost:8080",
			StatePath:      "widget.db",
			LogFile:        "widget.log",
			PollInterval:   5 * time.Second,
			StatusInterval: 30 * time.Second,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Relay.Addr != "" {
		c.Relay.Addr = other.Relay.Addr
	}
	if other.Relay.DatabasePath != "" {
		c.Relay.DatabasePath = other.Relay.DatabasePath
	}
	if other.Relay.ShutdownTimeout != 0 {
		c.Relay.ShutdownTimeout = other.Relay.ShutdownTimeout
	}
	if other.Relay.RedisAddr != "" {
		c.Relay.RedisAddr = other.Relay.RedisAddr
	}
	if other.Widget.BaseURL != "" {
		c.Widget.BaseURL = other.Widget.BaseURL
	}
	if other.Widget.StatePath != "" {
		c.Widget.StatePath = other.Widget.StatePath
	}
	if other.Widget.Lang != "" {
		c.Widget.Lang = other.Widget.Lang
	}
	if other.Widget.PollInterval != 0 {
		c.Widget.PollInterval = other.Widget.PollInterval
	}
	if other.Widget.StatusInterval != 0 {
		c.Widget.StatusInterval = other.Widget.StatusInterval
	}
}

var (
	ErrInvalidInterval = errors.New("polling intervals must be positive")
	ErrMissingBaseURL  = errors.New("widget base_url is required")
	ErrMissingSecret   = errors.New("relay jwt_secret is required")
)

// ValidateWidget checks the settings the chat session cannot run without.
func (c Config) ValidateWidget() error {
	if c.Widget.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.Widget.PollInterval <= 0 || c.Widget.StatusInterval <= 0 {
		return ErrInvalidInterval
	}
	return nil
}

// ValidateRelay checks the settings the relay server cannot run without.
func (c Config) ValidateRelay() error {
	if c.Relay.JWTSecret == "" {
		return ErrMissingSecret
	}
	return nil
}
