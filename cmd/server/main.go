package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harutoki/licensegate/internal/api"
	"github.com/harutoki/licensegate/internal/api/middleware"
	"github.com/harutoki/licensegate/internal/config"
	"github.com/harutoki/licensegate/internal/factory"
	"github.com/harutoki/licensegate/internal/services/license"
	redisstorage "github.com/harutoki/licensegate/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Refusing to start without an admin secret beats an open admin surface
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		logger.Error("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
		os.Exit(1)
	}

	// Build factory config
	factoryCfg := factory.Config{
		StorageType: cfg.StorageType,
		SQLitePath:  cfg.SQLitePath,
		LicenseConfig: license.Config{
			StrictVersion: cfg.StrictVersionCheck,
		},
		Logger: logger,
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		if cfg.RedisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create application factory; this also warms the token cache and
	// restores persisted session claims
	app, err := factory.New(ctx, factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Clock:          app.Clock,
		LicenseService: app.LicenseService,
		ArbiterService: app.ArbiterService,
		GateService:    app.GateService,
		PlayerLog:      app.PlayerLog,
		AdminAuth: middleware.AdminAuthConfig{
			Password: cfg.AdminPassword,
			Hash:     cfg.AdminPasswordHash,
		},
	})

	mux := http.NewServeMux()
	mux.Handle("/", router)

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(mux, serverConfig, logger)

	// Optional scheduled cache refresh; a failed refresh keeps the previous
	// snapshot in service
	if cfg.RefreshInterval > 0 {
		go refreshLoop(ctx, app, cfg.RefreshInterval, logger)
	}

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

func refreshLoop(ctx context.Context, app *factory.App, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.LicenseService.Refresh(ctx); err != nil {
				logger.Warn("scheduled cache refresh failed, keeping previous snapshot",
					slog.String("error", err.Error()))
			}
		}
	}
}
