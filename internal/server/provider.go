package server

import (
	"log/slog"

	"sleeper-players-service/internal/config"
	"sleeper-players-service/internal/providers"
	"sleeper-players-service/internal/providers/fixture"
	"sleeper-players-service/internal/providers/sleeper"
)

func selectProvider(cfg config.Config, logger *slog.Logger) providers.PlayerProvider {
	switch cfg.Provider {
	case "sleeper", "":
		return sleeper.NewClient(sleeper.Config{
			BaseURL: cfg.Sleeper.BaseURL,
			Timeout: cfg.Sleeper.Timeout,
		})
	case "fixture":
		return fixture.New()
	default:
		if logger != nil {
			logger.Warn("unknown provider, falling back to sleeper", slog.String("provider", cfg.Provider))
		}
		return sleeper.NewClient(sleeper.Config{
			BaseURL: cfg.Sleeper.BaseURL,
			Timeout: cfg.Sleeper.Timeout,
		})
	}
}
