package server

import (
	"context"
	"log/slog"

	"sleeper-players-service/internal/cache/durable"
	"sleeper-players-service/internal/cache/session"
	"sleeper-players-service/internal/config"
	"sleeper-players-service/internal/logging"
	"sleeper-players-service/internal/metrics"
)

// resource is something released during shutdown, in registration order.
type resource struct {
	name  string
	close func() error
}

type cacheTiers struct {
	session   *session.Cache
	durable   durable.Tier
	resources []resource
}

var negotiateDurable = durable.Negotiate

// buildTiers picks the session storage strategy and negotiates the durable backend once.
func buildTiers(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) cacheTiers {
	storage, release := buildSessionStorage(cfg.Cache, logger)
	tiers := cacheTiers{
		session: session.New(storage, cfg.Cache.TTL, logger, recorder),
		durable: negotiateDurable(context.Background(), durable.OptionsFromConfig(cfg.Cache), logger, recorder),
	}
	tiers.resources = append(tiers.resources, resource{name: "durable cache", close: tiers.durable.Close})
	if release != nil {
		tiers.resources = append(tiers.resources, resource{name: "session storage", close: release})
	}
	return tiers
}

func buildSessionStorage(cfg config.CacheConfig, logger *slog.Logger) (session.Storage, func() error) {
	if cfg.SessionBackend == config.SessionBackendDir {
		dir, err := session.NewDirStorage(cfg.SessionDir, cfg.SessionQuotaBytes)
		if err == nil {
			logging.Info(logger, "session cache using directory storage", slog.String("dir", dir.Dir()))
			return dir, dir.Close
		}
		logging.Warn(logger, "session directory unavailable, falling back to memory", "error", err)
	}
	return session.NewMemoryStorage(cfg.SessionQuotaBytes), nil
}
