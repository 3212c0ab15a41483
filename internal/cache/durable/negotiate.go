package durable

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sleeper-players-service/internal/config"
	"sleeper-players-service/internal/logging"
	"sleeper-players-service/internal/metrics"
)

const negotiateTimeout = 5 * time.Second

// Options selects and configures the durable backend.
type Options struct {
	Backend string
	Path    string
	DSN     string
	TTL     time.Duration
}

// OptionsFromConfig maps cache config onto durable options.
func OptionsFromConfig(cfg config.CacheConfig) Options {
	return Options{
		Backend: cfg.DurableBackend,
		Path:    cfg.DurablePath,
		DSN:     cfg.DurableDSN,
		TTL:     cfg.TTL,
	}
}

// Negotiate opens and pings the configured backend exactly once.
// Any failure yields Unavailable{} so callers never probe again.
func Negotiate(ctx context.Context, opts Options, logger *slog.Logger, recorder *metrics.Recorder) Tier {
	backendName := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backendName == config.DurableBackendNone {
		logging.Info(logger, "durable cache disabled")
		return Unavailable{}
	}

	openCtx, cancel := context.WithTimeout(ctx, negotiateTimeout)
	defer cancel()

	backend, err := open(openCtx, backendName, opts)
	if err == nil {
		if pingErr := backend.Ping(openCtx); pingErr != nil {
			_ = backend.Close()
			err = fmt.Errorf("ping %s: %w", backendName, pingErr)
		}
	}
	if err != nil {
		logging.Warn(logger, "durable cache unavailable, continuing with session tier only",
			"backend", backendName,
			"error", err,
		)
		return Unavailable{}
	}

	logging.Info(logger, "durable cache ready", "backend", backendName)
	return NewCache(backend, opts.TTL, logger, recorder)
}

func open(ctx context.Context, backendName string, opts Options) (Backend, error) {
	switch backendName {
	case config.DurableBackendSQLite, "":
		return OpenSQLite(ctx, opts.Path)
	case config.DurableBackendPostgres:
		return OpenPostgres(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrUnavailable, backendName)
	}
}
