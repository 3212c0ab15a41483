package session

import (
	"errors"
	"log/slog"
	"time"

	"sleeper-players-service/internal/cache"
	"sleeper-players-service/internal/domain/players"
	"sleeper-players-service/internal/logging"
	"sleeper-players-service/internal/metrics"
)

// Cache is the fast, session-scoped player dictionary tier.
// No method returns an error: failures surface as misses or false.
type Cache struct {
	storage Storage
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// New wraps storage with envelope and ttl handling. A non-positive ttl uses cache.DefaultTTL.
func New(storage Storage, ttl time.Duration, logger *slog.Logger, recorder *metrics.Recorder) *Cache {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Cache{
		storage: storage,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		metrics: recorder,
	}
}

// Get returns the cached dictionary for partitionKey, or nil on miss, expiry or corrupt data.
func (c *Cache) Get(partitionKey string) players.Dictionary {
	if c == nil {
		return nil
	}
	dict := c.get(partitionKey)
	c.metrics.RecordCacheLookup(cache.TierSession, partitionKey, dict != nil)
	return dict
}

func (c *Cache) get(partitionKey string) players.Dictionary {
	if c.storage == nil {
		return nil
	}
	raw, err := c.storage.GetItem(cache.Key(partitionKey))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.warn("session cache read failed", partitionKey, err)
		}
		return nil
	}
	entry, err := cache.Decode(raw)
	if err != nil {
		c.warn("session cache entry corrupt", partitionKey, err)
		_ = c.storage.RemoveItem(cache.Key(partitionKey))
		return nil
	}
	if !entry.Usable(partitionKey, c.now()) {
		return nil
	}
	return entry.Payload
}

// Set stores dict for partitionKey. It reports false when the storage rejects the write.
func (c *Cache) Set(partitionKey string, dict players.Dictionary) bool {
	if c == nil {
		return false
	}
	ok := c.set(partitionKey, dict)
	c.metrics.RecordCacheWrite(cache.TierSession, partitionKey, ok)
	return ok
}

func (c *Cache) set(partitionKey string, dict players.Dictionary) bool {
	if c.storage == nil {
		return false
	}
	data, err := cache.Encode(cache.NewEntry(partitionKey, dict, c.now(), c.ttl))
	if err != nil {
		c.warn("session cache encode failed", partitionKey, err)
		return false
	}
	if err := c.storage.SetItem(cache.Key(partitionKey), data); err != nil {
		c.warn("session cache write rejected", partitionKey, err, slog.Int(logging.FieldBytes, len(data)))
		return false
	}
	return true
}

// Clear removes any entry for partitionKey.
func (c *Cache) Clear(partitionKey string) {
	if c == nil || c.storage == nil {
		return
	}
	if err := c.storage.RemoveItem(cache.Key(partitionKey)); err != nil {
		c.warn("session cache clear failed", partitionKey, err)
	}
}

func (c *Cache) warn(msg, partitionKey string, err error, args ...any) {
	if c.logger == nil {
		return
	}
	args = append(args,
		slog.String(logging.FieldTier, cache.TierSession),
		slog.String(logging.FieldPartition, partitionKey),
		"error", err,
	)
	c.logger.Warn(msg, args...)
}
