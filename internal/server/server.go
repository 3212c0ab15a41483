package server

import (
	"context"
	"log/slog"
	"net/http"

	appplayers "sleeper-players-service/internal/app/players"
	"sleeper-players-service/internal/config"
	httpserver "sleeper-players-service/internal/http"
	"sleeper-players-service/internal/http/handlers"
	"sleeper-players-service/internal/http/ws"
	"sleeper-players-service/internal/logging"
	"sleeper-players-service/internal/mcptools"
	"sleeper-players-service/internal/metrics"
	"sleeper-players-service/internal/providers"
)

var metricsSetup = metrics.Setup

// Version is reported by the MCP server. main overrides it at startup.
var Version = "dev"

type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	registry      *appplayers.Registry
	warmer        warmer
	hub           *ws.Hub
	resources     []resource
	httpServer    httpServer
	metricsServer httpServer
	metricsStop   func(context.Context) error

	hubCancel context.CancelFunc
	warmDone  chan struct{}
}

// New constructs a server with the configured provider and cache tiers.
func New(cfg config.Config, logger *slog.Logger) *Server {
	return newServerWithProvider(cfg, logger, nil)
}

func newServerWithProvider(cfg config.Config, logger *slog.Logger, provider providers.PlayerProvider) *Server {
	return newServerWithMetrics(cfg, logger, provider, nil)
}

func newServerWithMetrics(cfg config.Config, logger *slog.Logger, provider providers.PlayerProvider, recorder *metrics.Recorder) *Server {
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	if provider == nil {
		provider = newProviderFactory(logger, recorder).build(cfg)
	} else {
		provider = providers.NewRetryingProvider(provider, logger, recorder, normalizeProviderName(cfg.Provider, provider), 0, 0)
	}

	tiers := buildTiers(cfg, logger, recorder)

	var registry *appplayers.Registry
	hub := ws.NewHub(logger, func() map[string]appplayers.Status {
		return registry.Statuses()
	}, cfg.AllowedOrigins)
	registry = buildRegistry(cfg, provider, tiers, logger, recorder, hub.Publish)

	httpSrv := buildHTTPServer(cfg, registry, hub, logger, recorder)

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		registry:      registry,
		warmer:        registry,
		hub:           hub,
		resources:     tiers.resources,
		httpServer:    httpSrv,
		metricsServer: metricsSrv,
		metricsStop:   metricsShutdown,
	}
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, w warmer, httpSrv httpServer, resources ...resource) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		warmer:     w,
		resources:  resources,
		httpServer: httpSrv,
	}
}

// buildRegistry creates one orchestrator per configured sport. The tiers are shared;
// entries are keyed by sport.
func buildRegistry(cfg config.Config, provider providers.PlayerProvider, tiers cacheTiers, logger *slog.Logger, recorder *metrics.Recorder, observer appplayers.Observer) *appplayers.Registry {
	sports := cfg.Sports
	if len(sports) == 0 {
		sports = []string{cfg.DefaultSport()}
	}
	registry := appplayers.NewRegistry()
	for _, sport := range sports {
		registry.Add(appplayers.NewService(appplayers.Options{
			Partition: sport,
			Provider:  provider,
			Session:   tiers.session,
			Durable:   tiers.durable,
			Logger:    logger,
			Metrics:   recorder,
			Observer:  observer,
		}))
	}
	return registry
}

func buildHTTPServer(cfg config.Config, registry *appplayers.Registry, hub *ws.Hub, logger *slog.Logger, recorder *metrics.Recorder) httpServer {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}

	var admin *handlers.AdminHandler
	// Admin routes are only mounted when a token is configured.
	if cfg.AdminToken != "" {
		admin = handlers.NewAdminHandler(registry, cfg.AdminToken, logger)
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Handler:        handlers.NewHandler(registry, logger),
		Admin:          admin,
		Status:         hub,
		MCP:            mcptools.New(registry, logger, Version).Handler(),
		Logger:         logger,
		Metrics:        recorder,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return netHTTPServer{srv: srv}
}

// Run starts the servers, the status hub and the cache warm-up, then waits for context
// cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	s.startHub()
	s.startWarmup(ctx)

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "http server starting", slog.String("addr", s.httpServer.Addr()))
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) startHub() {
	if s.hub == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.hubCancel = cancel
	go s.hub.Run(ctx)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	if s.hubCancel != nil {
		s.hubCancel()
	}

	// Close waits for in-flight loads and background tier writes.
	if s.warmer != nil {
		s.warmer.Close()
	}

	for _, res := range s.resources {
		if res.close == nil {
			continue
		}
		if err := res.close(); err != nil {
			logging.Warn(s.logger, res.name+" close failed", "error", err)
		}
	}

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}

	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "err", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:              ":" + recCfg.Port,
				Handler:           handler,
				ReadHeaderTimeout: readHeaderTimeout,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
