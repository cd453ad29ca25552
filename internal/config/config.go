// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store backends.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Profile storage
	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`
	DatabaseURL  string `env:"DATABASE_URL"`

	// Redis is optional; without it there is no cache, distributed lock or event stream.
	RedisURL               string        `env:"REDIS_URL"`
	ProfileCacheTTL        time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"10m"`
	DistributedLockEnabled bool          `env:"DISTRIBUTED_LOCK_ENABLED" envDefault:"false"`
	LockTTL                time.Duration `env:"LOCK_TTL" envDefault:"5s"`
	EventsEnabled          bool          `env:"EVENTS_ENABLED" envDefault:"true"`

	// ActivityEnabled runs the change stream consumer that maintains daily
	// activity counters and serves them. Needs Redis, events and postgres.
	ActivityEnabled bool `env:"ACTIVITY_ENABLED" envDefault:"false"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Request limits
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
	MaxBatchSize       int   `env:"MAX_BATCH_SIZE" envDefault:"100"`

	// APIKeys holds "prefix:argon2hash" entries. Hashes contain commas, so
	// entries are separated by semicolons. Empty disables authentication.
	APIKeys []string `env:"API_KEYS" envSeparator:";"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UseMemoryStore reports whether profiles are kept in process memory.
func (c *Config) UseMemoryStore() bool {
	return c.StoreBackend == StoreBackendMemory
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_BACKEND=postgres"))
		}
	case StoreBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreBackendPostgres, StoreBackendMemory, c.StoreBackend))
	}

	if c.AppPort <= 0 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT out of range: %d", c.AppPort))
	}
	if c.DistributedLockEnabled && c.RedisURL == "" {
		errs = append(errs, errors.New("DISTRIBUTED_LOCK_ENABLED requires REDIS_URL"))
	}
	if c.ActivityEnabled {
		if c.RedisURL == "" || !c.EventsEnabled {
			errs = append(errs, errors.New("ACTIVITY_ENABLED requires REDIS_URL and EVENTS_ENABLED"))
		}
		if c.StoreBackend != StoreBackendPostgres {
			errs = append(errs, errors.New("ACTIVITY_ENABLED requires STORE_BACKEND=postgres"))
		}
	}
	if c.MaxBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("MAX_BATCH_SIZE must be positive, got %d", c.MaxBatchSize))
	}
	if c.MaxRequestBodySize <= 0 {
		errs = append(errs, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be positive, got %d", c.MaxRequestBodySize))
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
