package durable

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrUnavailable is returned when no durable backend could be negotiated.
var ErrUnavailable = errors.New("durable cache unavailable")

// Record is the row shape persisted by every backend.
type Record struct {
	PartitionKey string
	StoredAt     time.Time
	TTL          time.Duration
	Payload      []byte
}

// Backend persists records keyed by partition.
type Backend interface {
	Load(ctx context.Context, partitionKey string) (Record, bool, error)
	Save(ctx context.Context, rec Record) error
	Delete(ctx context.Context, partitionKey string) error
	Ping(ctx context.Context) error
	Close() error
}

func timeToUnixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func unixMillisToTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func validKey(partitionKey string) bool {
	return strings.TrimSpace(partitionKey) != ""
}
