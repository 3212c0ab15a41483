package durable

import (
	"context"
	"log/slog"
	"time"

	"sleeper-players-service/internal/cache"
	"sleeper-players-service/internal/domain/players"
	"sleeper-players-service/internal/logging"
	"sleeper-players-service/internal/metrics"
)

// Tier is the durable player dictionary store as seen by callers.
// Implementations never return errors from reads or writes.
type Tier interface {
	IsAvailable() bool
	GetAllPlayers(ctx context.Context, partitionKey string) players.Dictionary
	SetPlayers(ctx context.Context, partitionKey string, dict players.Dictionary) bool
	Clear(ctx context.Context, partitionKey string) bool
	Close() error
}

// Cache is the durable tier backed by a negotiated Backend.
type Cache struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Recorder
}

var _ Tier = (*Cache)(nil)

// NewCache wraps an already-opened backend. A non-positive ttl uses cache.DefaultTTL.
func NewCache(backend Backend, ttl time.Duration, logger *slog.Logger, recorder *metrics.Recorder) *Cache {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Cache{
		backend: backend,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		metrics: recorder,
	}
}

func (c *Cache) IsAvailable() bool {
	return c != nil && c.backend != nil
}

// GetAllPlayers returns the stored dictionary for partitionKey, or nil on miss, expiry or error.
func (c *Cache) GetAllPlayers(ctx context.Context, partitionKey string) players.Dictionary {
	if !c.IsAvailable() {
		return nil
	}
	dict := c.get(ctx, partitionKey)
	c.metrics.RecordCacheLookup(cache.TierDurable, partitionKey, dict != nil)
	return dict
}

func (c *Cache) get(ctx context.Context, partitionKey string) players.Dictionary {
	rec, ok, err := c.backend.Load(ctx, partitionKey)
	if err != nil {
		c.warn("durable cache read failed", partitionKey, err)
		return nil
	}
	if !ok {
		return nil
	}
	entry, err := cache.Decode(rec.Payload)
	if err != nil {
		c.warn("durable cache entry corrupt", partitionKey, err)
		if delErr := c.backend.Delete(ctx, partitionKey); delErr != nil {
			c.warn("durable cache evict failed", partitionKey, delErr)
		}
		return nil
	}
	if !entry.Usable(partitionKey, c.now()) {
		return nil
	}
	return entry.Payload
}

// SetPlayers persists dict for partitionKey and reports whether the write landed.
func (c *Cache) SetPlayers(ctx context.Context, partitionKey string, dict players.Dictionary) bool {
	if !c.IsAvailable() {
		return false
	}
	ok := c.set(ctx, partitionKey, dict)
	c.metrics.RecordCacheWrite(cache.TierDurable, partitionKey, ok)
	return ok
}

func (c *Cache) set(ctx context.Context, partitionKey string, dict players.Dictionary) bool {
	now := c.now()
	data, err := cache.Encode(cache.NewEntry(partitionKey, dict, now, c.ttl))
	if err != nil {
		c.warn("durable cache encode failed", partitionKey, err)
		return false
	}
	rec := Record{
		PartitionKey: partitionKey,
		StoredAt:     now,
		TTL:          c.ttl,
		Payload:      data,
	}
	if err := c.backend.Save(ctx, rec); err != nil {
		c.warn("durable cache write failed", partitionKey, err, slog.Int(logging.FieldBytes, len(data)))
		return false
	}
	return true
}

// Clear removes the stored dictionary for partitionKey.
func (c *Cache) Clear(ctx context.Context, partitionKey string) bool {
	if !c.IsAvailable() {
		return false
	}
	if err := c.backend.Delete(ctx, partitionKey); err != nil {
		c.warn("durable cache clear failed", partitionKey, err)
		return false
	}
	return true
}

// Close releases the backend.
func (c *Cache) Close() error {
	if !c.IsAvailable() {
		return nil
	}
	return c.backend.Close()
}

func (c *Cache) warn(msg, partitionKey string, err error, args ...any) {
	if c.logger == nil {
		return
	}
	args = append(args,
		slog.String(logging.FieldTier, cache.TierDurable),
		slog.String(logging.FieldPartition, partitionKey),
		"error", err,
	)
	c.logger.Warn(msg, args...)
}

// Unavailable is the durable tier used when negotiation fails.
type Unavailable struct{}

var _ Tier = Unavailable{}

func (Unavailable) IsAvailable() bool { return false }

func (Unavailable) GetAllPlayers(context.Context, string) players.Dictionary { return nil }

func (Unavailable) SetPlayers(context.Context, string, players.Dictionary) bool { return false }

func (Unavailable) Clear(context.Context, string) bool { return false }

func (Unavailable) Close() error { return nil }
