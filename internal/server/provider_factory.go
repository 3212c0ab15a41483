package server

import (
	"log/slog"

	"sleeper-players-service/internal/config"
	"sleeper-players-service/internal/metrics"
	"sleeper-players-service/internal/providers"
)

// providerFactory assembles the provider with the shared retry wrapper.
type providerFactory struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func newProviderFactory(logger *slog.Logger, metrics *metrics.Recorder) providerFactory {
	return providerFactory{logger: logger, metrics: metrics}
}

func (f providerFactory) build(cfg config.Config) providers.PlayerProvider {
	base := selectProvider(cfg, f.logger)
	return providers.NewRetryingProvider(base, f.logger, f.metrics, normalizeProviderName(cfg.Provider, base), 0, 0)
}
