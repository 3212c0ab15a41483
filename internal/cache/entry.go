package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sleeper-players-service/internal/domain/players"
)

// DefaultTTL is how long a cached player dictionary stays valid.
const DefaultTTL = 24 * time.Hour

// Tier names used in logs and metrics.
const (
	TierSession = "session"
	TierDurable = "durable"
)

// ErrInvalidEntry is returned when a decoded envelope is structurally unusable.
var ErrInvalidEntry = errors.New("invalid cache entry")

// Entry is the persisted envelope around a cached dictionary.
type Entry struct {
	StoredAt     int64              `json:"storedAt"`
	TTLMs        int64              `json:"ttlMs"`
	PartitionKey string             `json:"partitionKey"`
	Payload      players.Dictionary `json:"payload"`
}

// NewEntry stamps dict with the given time and ttl.
func NewEntry(partitionKey string, dict players.Dictionary, now time.Time, ttl time.Duration) Entry {
	return Entry{
		StoredAt:     now.UnixMilli(),
		TTLMs:        ttl.Milliseconds(),
		PartitionKey: partitionKey,
		Payload:      dict,
	}
}

// Valid reports whether the entry is still inside its ttl window at now.
func (e Entry) Valid(now time.Time) bool {
	if e.TTLMs <= 0 {
		return false
	}
	return now.UnixMilli()-e.StoredAt < e.TTLMs
}

// Usable reports whether the entry can be returned for partitionKey at now.
// Expired, empty, or foreign-partition entries are treated as absent.
func (e Entry) Usable(partitionKey string, now time.Time) bool {
	return e.PartitionKey == partitionKey && e.Payload.Len() > 0 && e.Valid(now)
}

// ExpiresAt returns the instant the entry stops being valid.
func (e Entry) ExpiresAt() time.Time {
	return time.UnixMilli(e.StoredAt + e.TTLMs)
}

// Encode serializes the envelope.
func Encode(e Entry) ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a serialized envelope.
func Decode(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decode cache entry: %w", err)
	}
	if e.PartitionKey == "" {
		return Entry{}, fmt.Errorf("%w: missing partition key", ErrInvalidEntry)
	}
	return e, nil
}

// Key returns the storage key for a partition.
func Key(partitionKey string) string {
	return "players:" + partitionKey
}
