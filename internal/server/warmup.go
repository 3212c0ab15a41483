package server

import (
	"context"
	"log/slog"
	"time"

	"sleeper-players-service/internal/logging"
)

// warmer is the part of the player registry the server lifecycle drives.
type warmer interface {
	LoadAll(ctx context.Context) error
	Close()
}

// startWarmup loads every sport in the background so the first request is served from memory.
// Failures are logged; handlers retry the read-through on demand.
func (s *Server) startWarmup(ctx context.Context) {
	if s.warmer == nil {
		return
	}
	s.warmDone = make(chan struct{})
	go func() {
		defer close(s.warmDone)
		warmCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
		defer cancel()

		start := time.Now()
		if err := s.warmer.LoadAll(warmCtx); err != nil {
			logging.Warn(s.logger, "player dictionary warm-up incomplete",
				"error", err,
				slog.Int64(logging.FieldDurationMS, time.Since(start).Milliseconds()),
			)
			return
		}
		logging.Info(s.logger, "player dictionary warm-up complete",
			slog.Int64(logging.FieldDurationMS, time.Since(start).Milliseconds()),
		)
	}()
}
