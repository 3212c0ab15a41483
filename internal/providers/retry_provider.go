package providers

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"sleeper-players-service/internal/domain/players"
	"sleeper-players-service/internal/logging"
	"sleeper-players-service/internal/metrics"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
	maxRetryAfter        = 30 * time.Second
)

type backoffFunc func(attempt int) time.Duration

// retryingProvider wraps a PlayerProvider with retry/backoff behavior.
type retryingProvider struct {
	inner        PlayerProvider
	logger       *slog.Logger
	metrics      *metrics.Recorder
	providerName string
	maxAttempts  int
	backoffFn    backoffFunc

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRetryingProvider wraps the given provider with retries. If maxAttempts/backoff are <= 0, defaults are used.
func NewRetryingProvider(inner PlayerProvider, logger *slog.Logger, recorder *metrics.Recorder, name string, maxAttempts int, backoff time.Duration) PlayerProvider {
	return NewRetryingProviderWithRNG(inner, logger, recorder, name, nil, maxAttempts, backoff)
}

// NewRetryingProviderWithRNG is NewRetryingProvider with a caller-supplied jitter source.
func NewRetryingProviderWithRNG(inner PlayerProvider, logger *slog.Logger, recorder *metrics.Recorder, name string, rng *rand.Rand, maxAttempts int, backoff time.Duration) PlayerProvider {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	if name == "" {
		name = "provider"
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &retryingProvider{
		inner:        inner,
		logger:       logger,
		metrics:      recorder,
		providerName: name,
		maxAttempts:  maxAttempts,
		rng:          rng,
		backoffFn: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
	}
}

func (r *retryingProvider) FetchPlayers(ctx context.Context, sport string) (players.Dictionary, error) {
	if r.inner == nil {
		return nil, ErrProviderUnavailable
	}

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		start := time.Now()
		dict, err := r.inner.FetchPlayers(ctx, sport)
		r.metrics.RecordProviderAttempt(r.providerName, time.Since(start), err)
		if err == nil {
			return dict, nil
		}
		lastErr = err

		if rlErr, ok := AsRateLimitError(err); ok {
			r.metrics.RecordRateLimit(r.providerName, rlErr.RetryAfter)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if !IsRetryable(err) || attempt == r.maxAttempts {
			break
		}

		delay := r.computeDelay(err, attempt)
		logWithProvider(ctx, r.logger, slog.LevelWarn, r.providerName, "provider fetch retry",
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"delay_ms", delay.Milliseconds(),
			slog.String(logging.FieldPartition, sport),
			"error", err,
		)
		if err := sleepWithContext(ctx, delay); err != nil {
			return nil, err
		}
	}

	logWithProvider(ctx, r.logger, slog.LevelWarn, r.providerName, "provider fetch failed",
		"attempts", r.maxAttempts,
		slog.String(logging.FieldPartition, sport),
		"error", lastErr,
	)
	return nil, lastErr
}

// computeDelay honours Retry-After for rate limits and otherwise applies
// the backoff with up to 50% jitter subtracted.
func (r *retryingProvider) computeDelay(err error, attempt int) time.Duration {
	if rlErr, ok := AsRateLimitError(err); ok && rlErr.RetryAfter > 0 {
		if rlErr.RetryAfter > maxRetryAfter {
			return maxRetryAfter
		}
		return rlErr.RetryAfter
	}
	base := r.backoffFn(attempt)
	if base <= 0 {
		return 0
	}
	half := int64(base / 2)
	if half <= 0 {
		return base
	}
	r.rngMu.Lock()
	jitter := time.Duration(r.rng.Int63n(half + 1))
	r.rngMu.Unlock()
	return base - jitter
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
