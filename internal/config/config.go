package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration, loaded from the environment
type Config struct {
	Host string `env:"HOST" envDefault:""`
	Port int    `env:"PORT" envDefault:"8080"`

	// AdminPassword guards the admin endpoints; AdminPasswordHash, when set,
	// takes precedence and must be a bcrypt hash. One of the two is required.
	AdminPassword     string `env:"ADMIN_PASSWORD"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	StorageType string `env:"STORAGE_TYPE" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"tokens.db"`
	RedisURL    string `env:"REDIS_URL"`

	// RefreshInterval enables scheduled cache refreshes when positive
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"0"`

	// StrictVersionCheck rejects versioned tokens when the client sends no
	// version at all; see the license service for the exact policy
	StrictVersionCheck bool `env:"STRICT_VERSION_CHECK" envDefault:"false"`
}

// Load parses configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
