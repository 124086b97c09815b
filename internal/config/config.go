package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr               string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`
	LogPretty          bool          `mapstructure:"log_pretty" yaml:"log_pretty"`
	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	History HistoryConfig `mapstructure:"history" yaml:"history"`
	Poll    PollConfig    `mapstructure:"poll" yaml:"poll"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
}

// HistoryConfig bounds the in-memory message log.
type HistoryConfig struct {
	// Window is how many recent messages are replayed to a joining client.
	Window int `mapstructure:"window" yaml:"window"`
	// Capacity is how many messages are retained in memory.
	Capacity int `mapstructure:"capacity" yaml:"capacity"`
}

// PollConfig configures the long-poll fallback transport.
type PollConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// SessionConfig configures per-connection resources.
type SessionConfig struct {
	SendBuffer int `mapstructure:"send_buffer" yaml:"send_buffer"`
}

// ArchiveConfig enables the SQLite transcript archive when Path is set.
type ArchiveConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8000",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		LogPretty:          true,
		MaxMessageBytes:    64 << 10,
		RateLimitPerMinute: 0,
		History: HistoryConfig{
			Window:   50,
			Capacity: 1000,
		},
		Poll: PollConfig{
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			SendBuffer: 64,
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_message_bytes must be positive, got %d", c.MaxMessageBytes))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Errorf("rate_limit_per_minute must not be negative, got %d", c.RateLimitPerMinute))
	}
	if c.History.Window <= 0 {
		errs = append(errs, fmt.Errorf("history.window must be positive, got %d", c.History.Window))
	}
	if c.History.Capacity < c.History.Window {
		errs = append(errs, fmt.Errorf("history.capacity (%d) must be at least history.window (%d)", c.History.Capacity, c.History.Window))
	}
	if c.Poll.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("poll.timeout must be positive, got %s", c.Poll.Timeout))
	}
	if c.Session.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("session.send_buffer must be positive, got %d", c.Session.SendBuffer))
	}
	return errors.Join(errs...)
}
