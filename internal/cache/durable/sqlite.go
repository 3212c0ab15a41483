package durable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sleeper-players-service/internal/cache/durable/migrations"
	_ "modernc.org/sqlite"
)

// SQLiteBackend stores records in a local SQLite file.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) and migrates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	b := &SQLiteBackend{db: db}
	if err := b.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) migrate(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var applied int
		if err := b.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, name).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied > 0 {
			continue
		}
		content, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := b.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, upMigration(string(content))); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, name, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

// upMigration returns the SQL in the -- +migrate Up section.
func upMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	content = content[upIdx+len("-- +migrate Up"):]
	if downIdx := strings.Index(content, "-- +migrate Down"); downIdx != -1 {
		content = content[:downIdx]
	}
	return content
}

func (b *SQLiteBackend) Load(ctx context.Context, partitionKey string) (Record, bool, error) {
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
		 WHERE partition_key = ?`,
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

func (b *SQLiteBackend) Save(ctx context.Context, rec Record) error {
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
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(partition_key) DO UPDATE SET
		    stored_at_ms = excluded.stored_at_ms,
		    ttl_ms = excluded.ttl_ms,
		    payload = excluded.payload`,
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

func (b *SQLiteBackend) Delete(ctx context.Context, partitionKey string) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := b.db.ExecContext(ctx, `DELETE FROM player_dictionary_cache WHERE partition_key = ?`, partitionKey); err != nil {
		return fmt.Errorf("delete player cache: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Ping(ctx context.Context) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return b.db.PingContext(ctx)
}

// Close releases the underlying SQLite connection.
func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
