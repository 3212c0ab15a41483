package players

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"sleeper-players-service/internal/cache/durable"
	"sleeper-players-service/internal/cache/session"
	"sleeper-players-service/internal/domain/players"
	"sleeper-players-service/internal/metrics"
	"sleeper-players-service/internal/providers"
	"sleeper-players-service/internal/testutil"
	"sleeper-players-service/internal/teststubs"
)

type fixture struct {
	svc      *Service
	provider *teststubs.StubProvider
	durable  *teststubs.StubDurableTier
	session  *teststubs.StubSessionTier
	metrics  *metrics.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		provider: &teststubs.StubProvider{Dict: testutil.SampleDictionary()},
		durable:  &teststubs.StubDurableTier{},
		session:  &teststubs.StubSessionTier{},
		metrics:  metrics.NewRecorder(),
	}
	f.svc = NewService(Options{
		Partition: "nfl",
		Provider:  f.provider,
		Session:   f.session,
		Durable:   f.durable,
		Metrics:   f.metrics,
	})
	t.Cleanup(f.svc.Close)
	return f
}

func TestLoadColdStartFetchesAndWritesDurable(t *testing.T) {
	f := newFixture(t)

	if got := f.svc.Status().State; got != StateIdle {
		t.Fatalf("expected idle before first load, got %s", got)
	}
	if err := f.svc.Load(context.Background()); err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}

	status := f.svc.Status()
	if status.State != StateReady || status.Count != 3 || status.Source != SourceUpstream || status.IsLoading {
		t.Fatalf("unexpected status %+v", status)
	}
	if f.svc.Len() != 3 {
		t.Fatalf("expected 3 players in memory, got %d", f.svc.Len())
	}
	if got := f.durable.Entry("nfl").Len(); got != 3 {
		t.Fatalf("expected durable tier to hold 3 players, got %d", got)
	}
	if f.session.SetCalls.Load() != 0 {
		t.Fatalf("expected session write to be skipped after durable success")
	}
	if f.metrics.LoadCycles(SourceUpstream) != 1 {
		t.Fatalf("expected one upstream load cycle recorded")
	}
}

func TestLoadIsIdempotentWithWarmDurable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.Load(ctx); err != nil {
		t.Fatalf("first load: %v", err)
	}
	first := f.svc.Players()
	if err := f.svc.Load(ctx); err != nil {
		t.Fatalf("second load: %v", err)
	}

	if got := f.provider.Calls.Load(); got != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", got)
	}
	second := f.svc.Players()
	if len(first) != len(second) {
		t.Fatalf("expected identical dictionaries, got %d and %d", len(first), len(second))
	}
	for id, p := range first {
		if second[id].FullName != p.FullName {
			t.Fatalf("dictionary changed for %s", id)
		}
	}
	if f.svc.Status().Source != SourceDurable {
		t.Fatalf("expected second load to come from durable tier")
	}
}

func TestLoadPrefersDurableOverSession(t *testing.T) {
	f := newFixture(t)
	f.durable.Entries = map[string]players.Dictionary{
		"nfl": {"d": testutil.SamplePlayer("d", "Durable Player", "RB")},
	}
	f.session.Entries = map[string]players.Dictionary{
		"nfl": {"s": testutil.SamplePlayer("s", "Session Player", "WR")},
	}

	if err := f.svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, ok := f.svc.Player("d"); !ok {
		t.Fatalf("expected durable payload to be adopted")
	}
	if _, ok := f.svc.Player("s"); ok {
		t.Fatalf("expected session payload to be ignored")
	}
	if f.provider.Calls.Load() != 0 {
		t.Fatalf("expected no upstream fetch on durable hit")
	}
	f.svc.Wait()
	if f.durable.SetCalls.Load() != 0 {
		t.Fatalf("expected no writes on durable hit")
	}
}

func TestLoadSessionHitBackfillsDurable(t *testing.T) {
	f := newFixture(t)
	f.session.Entries = map[string]players.Dictionary{"nfl": testutil.SampleDictionary()}

	if err := f.svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := f.svc.Status().Source; got != SourceSession {
		t.Fatalf("expected session source, got %s", got)
	}
	if f.provider.Calls.Load() != 0 {
		t.Fatalf("expected no upstream fetch on session hit")
	}

	f.svc.Wait()
	if got := f.durable.Entry("nfl").Len(); got != 3 {
		t.Fatalf("expected durable backfill with 3 players, got %d", got)
	}
}

func TestLoadSessionHitSkipsBackfillWhenDurableUnavailable(t *testing.T) {
	f := newFixture(t)
	f.durable.Unavailable = true
	f.session.Entries = map[string]players.Dictionary{"nfl": testutil.SampleDictionary()}

	if err := f.svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	f.svc.Wait()
	if f.durable.SetCalls.Load() != 0 {
		t.Fatalf("expected no backfill attempt")
	}
}

func TestLoadFallsBackToSessionWhenDurableWriteFails(t *testing.T) {
	f := newFixture(t)
	f.durable.FailWrites = true

	if err := f.svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := f.svc.Status().State; got != StateReady {
		t.Fatalf("expected ready state, got %s", got)
	}
	if f.svc.Len() != 3 {
		t.Fatalf("expected fetched data in memory")
	}
	if f.durable.SetCalls.Load() != 1 || f.session.SetCalls.Load() != 1 {
		t.Fatalf("expected durable attempt then session fallback, got %d/%d",
			f.durable.SetCalls.Load(), f.session.SetCalls.Load())
	}
	if got := f.session.Entry("nfl").Len(); got != 3 {
		t.Fatalf("expected session tier to hold the dictionary, got %d", got)
	}
}

func TestLoadSurvivesWhenNoTierAcceptsWrite(t *testing.T) {
	f := newFixture(t)
	f.durable.FailWrites = true
	f.session.FailWrites = true
	logger, buf := testutil.NewBufferLogger()
	f.svc.logger = logger

	if err := f.svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !f.svc.IsReady() || f.svc.Len() != 3 {
		t.Fatalf("expected in-memory result despite cache failures")
	}
	if !strings.Contains(buf.String(), "player dictionary not cached in any tier") {
		t.Fatalf("expected uncached warning, got %s", buf.String())
	}
}

func TestLoadNetworkFailureWithNoCache(t *testing.T) {
	f := newFixture(t)
	cause := errors.New("network down")
	f.provider.Err = cause

	err := f.svc.Load(context.Background())
	if !errors.Is(err, ErrNoData) || !errors.Is(err, cause) {
		t.Fatalf("expected ErrNoData wrapping cause, got %v", err)
	}

	status := f.svc.Status()
	if status.State != StateError || status.Error == "" || status.Count != 0 {
		t.Fatalf("unexpected status %+v", status)
	}
	if _, ok := f.svc.Player("1"); ok {
		t.Fatalf("expected no player after failed load")
	}
	if f.svc.IsReady() {
		t.Fatalf("expected service not ready")
	}
	if f.svc.Players() != nil {
		t.Fatalf("expected no dictionary")
	}
}

func TestRefreshFailureKeepsPreviousData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	cause := errors.New("upstream 503")
	f.provider.Err = cause
	err := f.svc.Refresh(ctx)
	if !errors.Is(err, cause) || errors.Is(err, ErrNoData) {
		t.Fatalf("expected plain refresh error, got %v", err)
	}

	status := f.svc.Status()
	if status.State != StateReady || status.Count != 3 || status.Error == "" {
		t.Fatalf("expected degraded ready status, got %+v", status)
	}
	if f.svc.Err() == nil {
		t.Fatalf("expected Err to be set")
	}
}

func TestLoadFailureWithHeldDataReturnsNil(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	f.durable.Entries = nil
	f.provider.Err = errors.New("timeout")

	if err := f.svc.Load(ctx); err != nil {
		t.Fatalf("expected degraded load to return nil, got %v", err)
	}
	if f.svc.Len() != 3 || f.svc.Err() == nil {
		t.Fatalf("expected previous data and a recorded error")
	}
}

func TestRefreshBypassesTiersAndRepopulates(t *testing.T) {
	f := newFixture(t)
	f.durable.Entries = map[string]players.Dictionary{
		"nfl": {"old": testutil.SamplePlayer("old", "Old Player", "TE")},
	}

	if err := f.svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if f.provider.Calls.Load() != 1 {
		t.Fatalf("expected refresh to hit upstream")
	}
	if f.durable.GetCalls.Load() != 0 {
		t.Fatalf("expected refresh to skip tier reads")
	}
	stored := f.durable.Entry("nfl")
	if _, ok := stored["old"]; ok || stored.Len() != 3 {
		t.Fatalf("expected durable tier replaced with fresh dictionary, got %v", stored)
	}
	if f.svc.Err() != nil {
		t.Fatalf("expected error cleared after success")
	}
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	f := newFixture(t)
	f.provider.Gate = make(chan struct{})
	f.provider.Notify = make(chan struct{})

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.svc.Load(context.Background())
		}()
	}

	<-f.provider.Notify
	if !f.svc.IsLoading() || f.svc.Status().State != StateLoading {
		t.Fatalf("expected loading state while fetch is in flight")
	}
	time.Sleep(20 * time.Millisecond)
	close(f.provider.Gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected load error %v", err)
		}
	}
	if got := f.provider.Calls.Load(); got != 1 {
		t.Fatalf("expected one upstream fetch, got %d", got)
	}
}

func TestLoadReturnsWhenCallerContextEnds(t *testing.T) {
	f := newFixture(t)
	f.provider.Gate = make(chan struct{})
	f.provider.Notify = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.svc.Load(ctx) }()

	<-f.provider.Notify
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected caller cancellation, got %v", err)
	}

	close(f.provider.Gate)
	f.svc.Wait()
	if f.svc.Len() != 3 {
		t.Fatalf("expected shared cycle to complete after caller left")
	}
}

func TestObserverSeesTransitions(t *testing.T) {
	var (
		mu     sync.Mutex
		states []State
	)
	svc := NewService(Options{
		Partition: "nfl",
		Provider:  &teststubs.StubProvider{Dict: testutil.SampleDictionary()},
		Observer: func(st Status) {
			mu.Lock()
			states = append(states, st.State)
			mu.Unlock()
		},
	})
	defer svc.Close()

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != StateLoading || states[1] != StateReady {
		t.Fatalf("unexpected transitions %v", states)
	}
}

func TestInvalidateClearsBothTiers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.session.Entries = map[string]players.Dictionary{"nfl": testutil.SampleDictionary()}
	if err := f.svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	f.svc.Wait()

	f.svc.Invalidate(ctx)

	if f.session.Entry("nfl") != nil || f.durable.Entry("nfl") != nil {
		t.Fatalf("expected both tiers cleared")
	}
	if f.svc.Len() != 3 {
		t.Fatalf("expected in-memory dictionary kept")
	}
}

func TestCloseRejectsLoads(t *testing.T) {
	f := newFixture(t)
	f.svc.Close()
	if err := f.svc.Load(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestLoadWithoutProvider(t *testing.T) {
	svc := NewService(Options{Partition: "nfl"})
	defer svc.Close()

	err := svc.Load(context.Background())
	if !errors.Is(err, ErrNoData) || !errors.Is(err, providers.ErrProviderUnavailable) {
		t.Fatalf("expected unavailable provider error, got %v", err)
	}
}

func TestEmptyUpstreamIsReadyButNotCached(t *testing.T) {
	f := newFixture(t)
	f.provider.Dict = players.Dictionary{}

	if err := f.svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !f.svc.IsReady() || f.svc.Len() != 0 {
		t.Fatalf("expected ready with empty dictionary")
	}
	if f.durable.SetCalls.Load() != 0 || f.session.SetCalls.Load() != 0 {
		t.Fatalf("expected empty dictionary not to be cached")
	}
}

func TestLoadAgainstRealTiers(t *testing.T) {
	ctx := context.Background()
	rec := metrics.NewRecorder()
	durableTier := durable.Negotiate(ctx, durable.Options{
		Backend: "sqlite",
		Path:    filepath.Join(t.TempDir(), "players.db"),
	}, nil, rec)
	t.Cleanup(func() { _ = durableTier.Close() })
	sessionTier := session.New(session.NewMemoryStorage(0), 0, nil, rec)

	provider := &teststubs.StubProvider{Dict: testutil.SampleDictionary()}
	first := NewService(Options{Partition: "nfl", Provider: provider, Session: sessionTier, Durable: durableTier, Metrics: rec})
	if err := first.Load(ctx); err != nil {
		t.Fatalf("cold load: %v", err)
	}
	first.Close()

	// A second service simulates a restart against the same durable store.
	second := NewService(Options{Partition: "nfl", Provider: provider, Session: session.New(session.NewMemoryStorage(0), 0, nil, rec), Durable: durableTier, Metrics: rec})
	defer second.Close()
	if err := second.Load(ctx); err != nil {
		t.Fatalf("warm load: %v", err)
	}
	if provider.Calls.Load() != 1 {
		t.Fatalf("expected durable tier to serve restart, got %d fetches", provider.Calls.Load())
	}
	if got := second.PlayerName("2"); got != "Josh Allen" {
		t.Fatalf("unexpected name %q", got)
	}
}

// gatedDurable holds GetAllPlayers until release is closed, then returns dict.
type gatedDurable struct {
	entered chan struct{}
	release chan struct{}
	dict    players.Dictionary
	once    sync.Once
}

func (g *gatedDurable) IsAvailable() bool { return true }

func (g *gatedDurable) GetAllPlayers(ctx context.Context, partitionKey string) players.Dictionary {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.dict.Clone()
}

func (g *gatedDurable) SetPlayers(ctx context.Context, partitionKey string, dict players.Dictionary) bool {
	return true
}

func (g *gatedDurable) Clear(ctx context.Context, partitionKey string) bool { return true }

func TestLoadOverlappingRefreshKeepsFreshDictionary(t *testing.T) {
	gated := &gatedDurable{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		dict:    players.Dictionary{"9": testutil.SamplePlayer("9", "Old Player", "QB")},
	}
	svc := NewService(Options{
		Partition: "nfl",
		Provider:  &teststubs.StubProvider{Dict: testutil.SampleDictionary()},
		Durable:   gated,
	})
	t.Cleanup(svc.Close)

	loadDone := make(chan error, 1)
	go func() { loadDone <- svc.Load(context.Background()) }()

	select {
	case <-gated.entered:
	case <-time.After(time.Second):
		t.Fatal("load never reached the durable tier")
	}

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if svc.Len() != 3 {
		t.Fatalf("expected 3 players after refresh, got %d", svc.Len())
	}

	close(gated.release)
	select {
	case err := <-loadDone:
		if err != nil {
			t.Fatalf("load: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("load did not finish")
	}

	if svc.Len() != 3 {
		t.Fatalf("expected refreshed dictionary to survive, got %d players", svc.Len())
	}
	if _, ok := svc.Player("9"); ok {
		t.Fatalf("expected stale durable payload to be discarded")
	}
	status := svc.Status()
	if status.Source != SourceUpstream || status.State != StateReady || status.IsLoading {
		t.Fatalf("unexpected status %+v", status)
	}
}
