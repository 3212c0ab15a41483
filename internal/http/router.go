package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"sleeper-players-service/internal/http/handlers"
	"sleeper-players-service/internal/http/middleware"
	"sleeper-players-service/internal/metrics"
)

// RouterConfig collects everything the HTTP surface is built from.
// Admin, Status and MCP are optional.
type RouterConfig struct {
	Handler        *handlers.Handler
	Admin          *handlers.AdminHandler
	Status         nethttp.Handler
	MCP            nethttp.Handler
	Logger         *slog.Logger
	Metrics        *metrics.Recorder
	AllowedOrigins []string
}

// NewRouter registers HTTP routes and wraps them with logging and CORS.
func NewRouter(cfg RouterConfig) nethttp.Handler {
	r := mux.NewRouter()
	h := cfg.Handler

	r.HandleFunc("/health", h.Health)
	r.HandleFunc("/ready", h.Ready)

	// status must be registered before the {id} route so it is not taken as an id.
	r.HandleFunc("/players/{sport}", h.Players)
	r.HandleFunc("/players/{sport}/status", h.Status)
	r.HandleFunc("/players/{sport}/{id}", h.Player)
	r.HandleFunc("/players/{sport}/{id}/name", h.PlayerName)
	r.HandleFunc("/players/{sport}/{id}/position", h.PlayerPosition)

	if cfg.Admin != nil {
		r.HandleFunc("/admin/players/{sport}/refresh", cfg.Admin.Refresh)
		r.HandleFunc("/admin/players/{sport}/cache", cfg.Admin.Invalidate)
	}
	if cfg.Status != nil {
		r.Handle("/ws/status", cfg.Status)
	}
	if cfg.MCP != nil {
		r.PathPrefix("/mcp").Handler(cfg.MCP)
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{nethttp.MethodGet, nethttp.MethodPost, nethttp.MethodDelete, nethttp.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "Mcp-Session-Id"},
		ExposedHeaders: []string{"X-Request-ID", "Mcp-Session-Id"},
	})

	return middleware.LoggingMiddleware(cfg.Logger, cfg.Metrics, c.Handler(r))
}
