package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/harutoki/licensegate/internal/dependencies/clock"
	"github.com/harutoki/licensegate/internal/services/arbiter"
	"github.com/harutoki/licensegate/internal/services/gate"
	"github.com/harutoki/licensegate/internal/services/license"
	"github.com/harutoki/licensegate/internal/services/playerlog"
	"github.com/harutoki/licensegate/internal/storage"
	"github.com/harutoki/licensegate/internal/storage/memory"
	redisstorage "github.com/harutoki/licensegate/internal/storage/redis"
	sqlitestorage "github.com/harutoki/licensegate/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeSQLite = "sqlite"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Services
	LicenseService *license.Service
	ArbiterService *arbiter.Service
	GateService    *gate.Service
	PlayerLog      *playerlog.Service
}

// Config holds configuration for the application factory
type Config struct {
	// StorageType selects the storage backend ("sqlite", "memory" or "redis")
	// If empty, defaults to "sqlite"
	StorageType string
	// SQLitePath is the database file path (required if StorageType is "sqlite")
	SQLitePath string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// LicenseConfig holds validation policy settings
	LicenseConfig license.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

// New creates a new application with all dependencies wired and the token
// cache and session claims loaded from the store. Until that first load
// succeeds, no validation is answered, so a half-started process never
// treats every token as unknown.
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeSQLite
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeSQLite:
		sqliteStore, err := sqlitestorage.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'sqlite', 'memory' or 'redis'")
	}

	clk := clock.New()

	app := newWithDependencies(store, clk, cfg.LicenseConfig, logger)
	if err := app.Warm(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, licenseCfg license.Config, logger *slog.Logger) *App {
	licenseService := license.New(store, clk, licenseCfg, logger)
	arbiterService := arbiter.New(store, clk, logger)
	gateService := gate.New(licenseService, arbiterService, logger)
	playerLog := playerlog.New(store, clk, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		LicenseService: licenseService,
		ArbiterService: arbiterService,
		GateService:    gateService,
		PlayerLog:      playerLog,
	}
}

// Warm loads the token cache snapshot and persisted session claims
func (a *App) Warm(ctx context.Context) error {
	if err := a.LicenseService.Refresh(ctx); err != nil {
		return err
	}
	return a.ArbiterService.Load(ctx)
}
