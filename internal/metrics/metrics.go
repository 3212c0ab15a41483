package metrics

import (
	"sync"
	"time"
)

type providerStats struct {
	calls           int
	errors          int
	rateLimitHits   int
	lastRetryAfter  time.Duration
	lastCallLatency time.Duration
}

type tierStats struct {
	hits          int
	misses        int
	writes        int
	writeFailures int
}

// Recorder captures lightweight, in-memory metrics about provider calls and cache tiers.
// When built by Setup it also forwards to OpenTelemetry instruments.
type Recorder struct {
	mu    sync.Mutex
	stats map[string]*providerStats
	tiers map[string]*tierStats
	loads map[string]int
	otel  *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats: make(map[string]*providerStats),
		tiers: make(map[string]*tierStats),
		loads: make(map[string]int),
		otel:  otel,
	}
}

// RecordProviderAttempt increments counters for a provider call and stores the last observed latency.
func (r *Recorder) RecordProviderAttempt(provider string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.providerLocked(provider)
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordProviderAttempt(provider, duration, err)
	}
}

// RecordRateLimit tracks that a provider response hit a rate limit and stores the last Retry-After.
func (r *Recorder) RecordRateLimit(provider string, retryAfter time.Duration) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.providerLocked(provider)
	stats.rateLimitHits++
	if retryAfter > 0 {
		stats.lastRetryAfter = retryAfter
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordRateLimit(provider, retryAfter)
	}
}

// RecordCacheLookup tracks a read against a cache tier.
func (r *Recorder) RecordCacheLookup(tier, partition string, hit bool) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.tierLocked(tier)
	if hit {
		stats.hits++
	} else {
		stats.misses++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordCacheLookup(tier, partition, hit)
	}
}

// RecordCacheWrite tracks a write against a cache tier.
func (r *Recorder) RecordCacheWrite(tier, partition string, ok bool) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.tierLocked(tier)
	stats.writes++
	if !ok {
		stats.writeFailures++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordCacheWrite(tier, partition, ok)
	}
}

// RecordLoadCycle tracks a completed load/refresh cycle and where its data came from.
func (r *Recorder) RecordLoadCycle(partition, source string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	r.mu.Lock()
	r.loads[source]++
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordLoadCycle(partition, source, duration, err)
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// ProviderCalls returns the total attempts recorded for a provider.
func (r *Recorder) ProviderCalls(provider string) int {
	return r.Snapshot(provider).Calls
}

// ProviderErrors returns the total failed attempts recorded for a provider.
func (r *Recorder) ProviderErrors(provider string) int {
	return r.Snapshot(provider).Errors
}

// RateLimitHits returns the number of rate limit events seen for a provider.
func (r *Recorder) RateLimitHits(provider string) int {
	return r.Snapshot(provider).RateLimitHits
}

// LastRetryAfter returns the most recent Retry-After recorded for a provider.
func (r *Recorder) LastRetryAfter(provider string) time.Duration {
	return r.Snapshot(provider).LastRetryAfter
}

// LastCallLatency returns the last recorded latency for a provider call.
func (r *Recorder) LastCallLatency(provider string) time.Duration {
	return r.Snapshot(provider).LastCallLatency
}

// Snapshot returns a copy of the current stats for the provider.
type Snapshot struct {
	Calls           int
	Errors          int
	RateLimitHits   int
	LastRetryAfter  time.Duration
	LastCallLatency time.Duration
}

func (r *Recorder) Snapshot(provider string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[provider]
	if !ok || stats == nil {
		return Snapshot{}
	}
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		RateLimitHits:   stats.rateLimitHits,
		LastRetryAfter:  stats.lastRetryAfter,
		LastCallLatency: stats.lastCallLatency,
	}
}

// TierSnapshot is a copy of the counters for one cache tier.
type TierSnapshot struct {
	Hits          int
	Misses        int
	Writes        int
	WriteFailures int
}

// Tier returns the counters recorded for a cache tier.
func (r *Recorder) Tier(tier string) TierSnapshot {
	if r == nil {
		return TierSnapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.tiers[tier]
	if !ok || stats == nil {
		return TierSnapshot{}
	}
	return TierSnapshot{
		Hits:          stats.hits,
		Misses:        stats.misses,
		Writes:        stats.writes,
		WriteFailures: stats.writeFailures,
	}
}

// LoadCycles returns how many cycles completed from the given source.
func (r *Recorder) LoadCycles(source string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads[source]
}

func (r *Recorder) providerLocked(provider string) *providerStats {
	stats, ok := r.stats[provider]
	if !ok {
		stats = &providerStats{}
		r.stats[provider] = stats
	}
	return stats
}

func (r *Recorder) tierLocked(tier string) *tierStats {
	stats, ok := r.tiers[tier]
	if !ok {
		stats = &tierStats{}
		r.tiers[tier] = stats
	}
	return stats
}
