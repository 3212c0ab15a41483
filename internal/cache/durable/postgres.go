package durable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS player_dictionary_cache (
    partition_key VARCHAR(64) PRIMARY KEY,
    stored_at_ms BIGINT NOT NULL,
    ttl_ms BIGINT NOT NULL,
    payload BYTEA NOT NULL
)`

// PostgresBackend stores records in a shared Postgres database.
type PostgresBackend struct {
	db *sql.DB
}

// OpenPostgres connects to dsn and ensures the cache table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresBackend, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate postgres db: %w", err)
	}
	return &PostgresBackend{db: db}, nil
}

func (b *PostgresBackend) Load(ctx context.Context, partitionKey string) (Record, bool, error) {
	if b == nil || b.db == nil {
		return Record{}, false, fmt.Errorf("storage is not configured")
	}
	if !validKey(partitionKey) {
		return Record{}, false, fmt.Errorf("partition key is required")
	}

	var (
		rec        Record
		storedAtMs int64
		ttlMs      int64
	)
	err := b.db.QueryRowContext(ctx,
		`SELECT partition_key, stored_at_ms, ttl_ms, payload
		 FROM player_dictionary_cache
		 WHERE partition_key = $1`,
		partitionKey,
	).Scan(&rec.PartitionKey, &storedAtMs, &ttlMs, &rec.Payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("load player cache: %w", err)
	}
	rec.StoredAt = unixMillisToTime(storedAtMs)
	rec.TTL = time.Duration(ttlMs) * time.Millisecond
	return rec, true, nil
}

func (b *PostgresBackend) Save(ctx context.Context, rec Record) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if !validKey(rec.PartitionKey) {
		return fmt.Errorf("partition key is required")
	}
	if len(rec.Payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO player_dictionary_cache (partition_key, stored_at_ms, ttl_ms, payload)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (partition_key) DO UPDATE SET
		    stored_at_ms = EXCLUDED.stored_at_ms,
		    ttl_ms = EXCLUDED.ttl_ms,
		    payload = EXCLUDED.payload`,
		rec.PartitionKey,
		timeToUnixMillis(rec.StoredAt),
		rec.TTL.Milliseconds(),
		rec.Payload,
	)
	if err != nil {
		return fmt.Errorf("save player cache: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, partitionKey string) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := b.db.ExecContext(ctx, `DELETE FROM player_dictionary_cache WHERE partition_key = $1`, partitionKey); err != nil {
		return fmt.Errorf("delete player cache: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return b.db.PingContext(ctx)
}

func (b *PostgresBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
