package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	StoreDriver  string        `env:"STORE_DRIVER" envDefault:"sqlite"`
	DBPath       string        `env:"DB_PATH" envDefault:"data/scoundrel.db"`
	DatabaseURL  string        `env:"DATABASE_URL"`
	RedisURL     string        `env:"REDIS_URL"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`

	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"30m"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`

	RateLimitMax      int           `env:"RATE_LIMIT_MAX" envDefault:"60"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
	MaxTimestampDrift time.Duration `env:"MAX_TIMESTAMP_DRIFT" envDefault:"30s"`

	ChecksumKey string        `env:"CHECKSUM_KEY"`
	TokenSecret string        `env:"TOKEN_SECRET,required,notEmpty"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that depend on each other.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the %s store", c.StoreDriver)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", c.StoreDriver)
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the %s store", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	for name, d := range map[string]time.Duration{
		"SESSION_TIMEOUT":     c.SessionTimeout,
		"STORE_TIMEOUT":       c.StoreTimeout,
		"RATE_LIMIT_WINDOW":   c.RateLimitWindow,
		"MAX_TIMESTAMP_DRIFT": c.MaxTimestampDrift,
		"TOKEN_TTL":           c.TokenTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("SWEEP_INTERVAL must not be negative, got %s", c.SweepInterval)
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	return nil
}
