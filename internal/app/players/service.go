package players

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"sleeper-players-service/internal/domain/players"
	"sleeper-players-service/internal/logging"
	"sleeper-players-service/internal/metrics"
	"sleeper-players-service/internal/providers"
	"sleeper-players-service/internal/store"
)

var (
	// ErrNoData is returned when a load fails and no dictionary is held.
	ErrNoData = errors.New("player dictionary unavailable")
	// ErrClosed is returned by loads after Close.
	ErrClosed = errors.New("player service closed")
)

const (
	loadKey    = "load"
	refreshKey = "refresh"

	defaultBackfillTimeout = 30 * time.Second
)

// Store holds the in-memory dictionary adopted by the service.
type Store interface {
	Loaded() bool
	Len() int
	Dictionary() players.Dictionary
	ListPlayers() []players.Player
	GetPlayer(id string) (players.Player, bool)
	SetPlayers(players.Dictionary)
}

// SessionTier is the fast, process-scoped cache.
type SessionTier interface {
	Get(partitionKey string) players.Dictionary
	Set(partitionKey string, dict players.Dictionary) bool
	Clear(partitionKey string)
}

// DurableTier is the persistent cache chosen at startup.
type DurableTier interface {
	IsAvailable() bool
	GetAllPlayers(ctx context.Context, partitionKey string) players.Dictionary
	SetPlayers(ctx context.Context, partitionKey string, dict players.Dictionary) bool
	Clear(ctx context.Context, partitionKey string) bool
}

// Options wires a Service. Partition and Provider are required.
type Options struct {
	Partition       string
	Provider        providers.PlayerProvider
	Session         SessionTier
	Durable         DurableTier
	Store           Store
	Logger          *slog.Logger
	Metrics         *metrics.Recorder
	Observer        Observer
	BackfillTimeout time.Duration
}

// Service is the player dictionary orchestrator for one partition.
type Service struct {
	partition       string
	provider        providers.PlayerProvider
	session         SessionTier
	durable         DurableTier
	store           Store
	logger          *slog.Logger
	metrics         *metrics.Recorder
	observer        Observer
	backfillTimeout time.Duration
	now             func() time.Time

	group singleflight.Group
	bg    sync.WaitGroup

	mu       sync.RWMutex
	state    State
	inflight int
	// upstreamGen counts upstream adoptions; tier reads started before the latest one are stale.
	upstreamGen uint64
	lastErr  error
	source   string
	loadedAt time.Time
	closed   bool
}

// NewService constructs a Service. Missing tiers behave as permanent misses.
func NewService(opts Options) *Service {
	s := &Service{
		partition:       opts.Partition,
		provider:        opts.Provider,
		session:         opts.Session,
		durable:         opts.Durable,
		store:           opts.Store,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
		observer:        opts.Observer,
		backfillTimeout: opts.BackfillTimeout,
		now:             time.Now,
		state:           StateIdle,
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.session == nil {
		s.session = noSession{}
	}
	if s.durable == nil {
		s.durable = noDurable{}
	}
	if s.backfillTimeout <= 0 {
		s.backfillTimeout = defaultBackfillTimeout
	}
	return s
}

// Partition returns the partition key this service serves.
func (s *Service) Partition() string {
	return s.partition
}

// Load runs one read-through cycle: durable tier, then session tier, then upstream.
// Overlapping calls share the in-flight cycle. It returns ErrNoData only when the
// cycle failed and no dictionary is held.
func (s *Service) Load(ctx context.Context) error {
	return s.shared(ctx, loadKey, s.load)
}

// Refresh bypasses both tiers, fetches upstream and repopulates them on success.
// Unlike Load it reports a failed fetch even while a previous dictionary is served.
func (s *Service) Refresh(ctx context.Context) error {
	return s.shared(ctx, refreshKey, func(ctx context.Context) error {
		return s.fetch(ctx, s.now())
	})
}

func (s *Service) shared(ctx context.Context, key string, cycle func(context.Context) error) error {
	if s.isClosed() {
		return ErrClosed
	}
	ch := s.group.DoChan(key, func() (any, error) {
		if !s.track() {
			return nil, ErrClosed
		}
		defer s.bg.Done()
		s.begin()
		// The shared cycle must outlive any single caller.
		return nil, cycle(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) load(ctx context.Context) error {
	start := s.now()
	gen := s.generation()

	var durableDict, sessionDict players.Dictionary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		durableDict = s.durable.GetAllPlayers(gctx, s.partition)
		return nil
	})
	g.Go(func() error {
		sessionDict = s.session.Get(s.partition)
		return nil
	})
	_ = g.Wait()

	if durableDict.Len() > 0 {
		s.adopt(durableDict, SourceDurable, start, gen)
		return nil
	}
	if sessionDict.Len() > 0 {
		if s.adopt(sessionDict, SourceSession, start, gen) {
			s.backfill(ctx, sessionDict)
		}
		return nil
	}
	if err := s.fetch(ctx, start); errors.Is(err, ErrNoData) {
		return err
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, start time.Time) error {
	log := logging.FromContext(ctx, s.logger)

	if s.provider == nil {
		return s.fail(log, providers.ErrProviderUnavailable, start)
	}
	dict, err := s.provider.FetchPlayers(ctx, s.partition)
	if err != nil {
		return s.fail(log, err, start)
	}

	s.adopt(dict, SourceUpstream, start, 0)
	s.persist(ctx, log, dict)
	return nil
}

// persist stops at the first tier that accepts the write.
func (s *Service) persist(ctx context.Context, log *slog.Logger, dict players.Dictionary) {
	if dict.Len() == 0 {
		logging.Warn(log, "upstream returned empty player dictionary, not caching",
			slog.String(logging.FieldPartition, s.partition),
		)
		return
	}
	if s.durable.SetPlayers(ctx, s.partition, dict) {
		return
	}
	if s.session.Set(s.partition, dict) {
		logging.Info(log, "player dictionary cached in session tier only",
			slog.String(logging.FieldPartition, s.partition),
		)
		return
	}
	logging.Warn(log, "player dictionary not cached in any tier",
		slog.String(logging.FieldPartition, s.partition),
		slog.Int(logging.FieldCount, dict.Len()),
	)
}

// backfill copies a session hit into the durable tier in a tracked goroutine.
func (s *Service) backfill(ctx context.Context, dict players.Dictionary) {
	if !s.durable.IsAvailable() {
		return
	}
	log := logging.FromContext(ctx, s.logger)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.backfillTimeout)
		defer cancel()

		if s.durable.SetPlayers(bctx, s.partition, dict) {
			logging.Info(log, "durable tier backfilled from session tier",
				slog.String(logging.FieldPartition, s.partition),
				slog.Int(logging.FieldCount, dict.Len()),
			)
			return
		}
		logging.Warn(log, "durable tier backfill failed",
			slog.String(logging.FieldPartition, s.partition),
		)
	}()
}

func (s *Service) begin() {
	s.mu.Lock()
	s.inflight++
	status := s.statusLocked()
	s.mu.Unlock()
	s.notify(status)
}

func (s *Service) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upstreamGen
}

// adopt installs dict as the held dictionary. A tier-sourced dict read under an older
// generation than the current one is discarded so it cannot replace a newer upstream
// fetch. It reports whether dict was installed.
func (s *Service) adopt(dict players.Dictionary, source string, start time.Time, gen uint64) bool {
	now := s.now()

	s.mu.Lock()
	s.inflight--
	stale := source != SourceUpstream && gen != s.upstreamGen
	if !stale {
		s.store.SetPlayers(dict)
		if source == SourceUpstream {
			s.upstreamGen++
		}
		s.state = StateReady
		s.lastErr = nil
		s.source = source
		s.loadedAt = now
	}
	status := s.statusLocked()
	s.mu.Unlock()

	if stale {
		logging.Info(s.logger, "discarded stale cached player dictionary",
			slog.String(logging.FieldPartition, s.partition),
			slog.String(logging.FieldSource, source),
		)
		s.notify(status)
		return false
	}

	s.metrics.RecordLoadCycle(s.partition, source, now.Sub(start), nil)
	logging.Info(s.logger, "player dictionary loaded",
		slog.String(logging.FieldPartition, s.partition),
		slog.String(logging.FieldSource, source),
		slog.Int(logging.FieldCount, status.Count),
		slog.Int64(logging.FieldDurationMS, now.Sub(start).Milliseconds()),
	)
	s.notify(status)
	return true
}

// fail records err. Held data keeps the service Ready in degraded mode and err is
// returned as is; otherwise it is wrapped in ErrNoData.
func (s *Service) fail(log *slog.Logger, err error, start time.Time) error {
	held := s.store.Loaded()
	now := s.now()

	s.mu.Lock()
	s.inflight--
	s.lastErr = err
	if held {
		s.state = StateReady
	} else {
		s.state = StateError
	}
	status := s.statusLocked()
	s.mu.Unlock()

	s.metrics.RecordLoadCycle(s.partition, SourceUpstream, now.Sub(start), err)
	s.notify(status)

	if held {
		logging.Warn(log, "player fetch failed, serving previous dictionary",
			slog.String(logging.FieldPartition, s.partition),
			"error", err,
		)
		return err
	}
	logging.Error(log, "player fetch failed with no dictionary loaded", err,
		slog.String(logging.FieldPartition, s.partition),
	)
	return fmt.Errorf("%w: %w", ErrNoData, err)
}

// Invalidate removes the partition from both tiers. The in-memory dictionary is kept.
func (s *Service) Invalidate(ctx context.Context) {
	s.session.Clear(s.partition)
	s.durable.Clear(ctx, s.partition)
	logging.Info(logging.FromContext(ctx, s.logger), "player cache invalidated",
		slog.String(logging.FieldPartition, s.partition),
	)
}

// Status returns the current observable state.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked()
}

func (s *Service) statusLocked() Status {
	st := Status{
		Partition: s.partition,
		State:     s.state,
		IsLoading: s.inflight > 0,
		Count:     s.store.Len(),
		Source:    s.source,
		LoadedAt:  s.loadedAt,
	}
	if st.IsLoading {
		st.State = StateLoading
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	return st
}

// IsReady reports whether a dictionary is held and servable.
func (s *Service) IsReady() bool {
	return s.store.Loaded()
}

// IsLoading reports whether a cycle is in flight.
func (s *Service) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// Err returns the error from the most recent failed cycle, or nil.
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Service) notify(status Status) {
	if s.observer != nil {
		s.observer(status)
	}
}

// Wait blocks until in-flight cycles and background backfills finish.
func (s *Service) Wait() {
	s.bg.Wait()
}

// Close rejects new loads and waits for outstanding work.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.bg.Wait()
}

// track registers a cycle with bg unless the service is closed. Holding mu orders
// every Add before the Wait in Close.
func (s *Service) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.bg.Add(1)
	return true
}

func (s *Service) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

type noSession struct{}

func (noSession) Get(string) players.Dictionary { return nil }

func (noSession) Set(string, players.Dictionary) bool { return false }

func (noSession) Clear(string) {}

type noDurable struct{}

func (noDurable) IsAvailable() bool { return false }

func (noDurable) GetAllPlayers(context.Context, string) players.Dictionary { return nil }

func (noDurable) SetPlayers(context.Context, string, players.Dictionary) bool { return false }

func (noDurable) Clear(context.Context, string) bool { return false }
