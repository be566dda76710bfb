// Package config defines process configuration and how it is loaded.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// OpsAddr configures the ops HTTP listen address, e.g. ":9090".
	OpsAddr string `koanf:"ops_addr" validate:"required"`

	// Concurrency bounds how many events one request scores at once.
	Concurrency int `koanf:"concurrency" validate:"gte=1,lte=4096"`

	// CollaboratorTimeoutMS bounds every collaborator call.
	CollaboratorTimeoutMS int `koanf:"collaborator_timeout_ms" validate:"gte=1"`

	// Circuit breaker settings shared by the three collaborators.
	BreakerMaxRequests  uint32  `koanf:"breaker_max_requests" validate:"gte=1"`
	BreakerIntervalMS   int     `koanf:"breaker_interval_ms" validate:"gte=0"`
	BreakerTimeoutMS    int     `koanf:"breaker_timeout_ms" validate:"gte=1"`
	BreakerFailureRatio float64 `koanf:"breaker_failure_ratio" validate:"gt=0,lte=1"`
	BreakerMinRequests  uint32  `koanf:"breaker_min_requests" validate:"gte=1"`

	// RateLimitPerSecond paces collaborator calls; 0 disables pacing.
	RateLimitPerSecond float64 `koanf:"rate_limit_per_second" validate:"gte=0"`
	RateBurst          int     `koanf:"rate_burst" validate:"gte=1"`

	// InteractionDedupeSize bounds the set of forwarded interaction IDs.
	InteractionDedupeSize int `koanf:"interaction_dedupe_size" validate:"gte=1"`

	// FixturePath is the default world served by the in-memory collaborators.
	FixturePath string `koanf:"fixture_path"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		OpsAddr:               ":9090",
		Concurrency:           runtime.NumCPU() * 2,
		CollaboratorTimeoutMS: 2_000,
		BreakerMaxRequests:    3,
		BreakerIntervalMS:     60_000,
		BreakerTimeoutMS:      30_000,
		BreakerFailureRatio:   0.6,
		BreakerMinRequests:    10,
		RateLimitPerSecond:    0,
		RateBurst:             100,
		InteractionDedupeSize: 500_000,
	}
}

// CollaboratorTimeout returns CollaboratorTimeoutMS as a duration.
func (c *Config) CollaboratorTimeout() time.Duration {
	return time.Duration(c.CollaboratorTimeoutMS) * time.Millisecond
}

// BreakerInterval returns BreakerIntervalMS as a duration.
func (c *Config) BreakerInterval() time.Duration {
	return time.Duration(c.BreakerIntervalMS) * time.Millisecond
}

// BreakerTimeout returns BreakerTimeoutMS as a duration.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutMS) * time.Millisecond
}
