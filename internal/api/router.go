package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/harutoki/licensegate/internal/api/handler"
	"github.com/harutoki/licensegate/internal/api/middleware"
	"github.com/harutoki/licensegate/internal/dependencies/clock"
	"github.com/harutoki/licensegate/internal/services/arbiter"
	"github.com/harutoki/licensegate/internal/services/gate"
	"github.com/harutoki/licensegate/internal/services/license"
	"github.com/harutoki/licensegate/internal/services/playerlog"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Clock          clock.Clock
	LicenseService *license.Service
	ArbiterService *arbiter.Service
	GateService    *gate.Service
	PlayerLog      *playerlog.Service
	AdminAuth      middleware.AdminAuthConfig
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	checkHandler := handler.NewCheckHandler(cfg.GateService)
	adminHandler := handler.NewAdminHandler(cfg.LicenseService, cfg.ArbiterService, cfg.GateService, cfg.Clock)
	playerHandler := handler.NewPlayerHandler(cfg.PlayerLog)

	// Create middleware
	adminAuthMiddleware := middleware.AdminAuth(cfg.AdminAuth)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Public routes (the client application authenticates via the token itself)
	api.HandleFunc("/check", checkHandler.Check).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/logout", checkHandler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/players/observe", playerHandler.Observe).Methods(http.MethodPost)

	// Admin routes behind the shared admin secret
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminAuthMiddleware)
	admin.HandleFunc("/tokens", adminHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/tokens", adminHandler.Issue).Methods(http.MethodPost)
	admin.HandleFunc("/tokens/{token}", adminHandler.Revoke).Methods(http.MethodDelete)
	admin.HandleFunc("/players", playerHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/players/blacklist", playerHandler.SetBlacklist).Methods(http.MethodPost)
	admin.HandleFunc("/players/import", playerHandler.Import).Methods(http.MethodPost)
	admin.HandleFunc("/players/export", playerHandler.Export).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
