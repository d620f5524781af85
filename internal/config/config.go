// Package config handles CLI configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the propsight CLI needs to talk to the API.
type Config struct {
	BaseURL          string `env:"PROPSIGHT_BASE_URL" envDefault:"https://api.propsight.io"`
	Token            string `env:"PROPSIGHT_TOKEN"`
	TimeoutMillis    int    `env:"PROPSIGHT_TIMEOUT_MS" envDefault:"30000"`
	MaxRetries       int    `env:"PROPSIGHT_MAX_RETRIES" envDefault:"2"`
	RetryDelayMillis int    `env:"PROPSIGHT_RETRY_DELAY_MS" envDefault:"1000"`
	CacheDir         string `env:"PROPSIGHT_CACHE_DIR"`
	RedisAddr        string `env:"PROPSIGHT_REDIS_ADDR"`
	NoCache          bool   `env:"PROPSIGHT_NO_CACHE"`
	Verbose          bool   `env:"PROPSIGHT_VERBOSE"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate ensures the configuration is usable.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("PROPSIGHT_BASE_URL must not be empty")
	}
	if c.TimeoutMillis <= 0 {
		return fmt.Errorf("PROPSIGHT_TIMEOUT_MS must be positive, got %d", c.TimeoutMillis)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("PROPSIGHT_MAX_RETRIES must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

// Timeout returns the per-attempt timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// RetryDelay returns the base retry delay as a duration.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMillis) * time.Millisecond
}
