package durable

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestSQLite(t *testing.T) *SQLiteBackend {
	t.Helper()
	b, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "players.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestSQLiteSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	b := openTestSQLite(t)

	if _, ok, err := b.Load(ctx, "nfl"); err != nil || ok {
		t.Fatalf("expected empty load, ok=%v err=%v", ok, err)
	}

	storedAt := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{PartitionKey: "nfl", StoredAt: storedAt, TTL: time.Hour, Payload: []byte(`{"a":1}`)}
	if err := b.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := b.Load(ctx, "nfl")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if !got.StoredAt.Equal(storedAt) || got.TTL != time.Hour || string(got.Payload) != `{"a":1}` {
		t.Fatalf("unexpected record %+v", got)
	}

	rec.Payload = []byte(`{"b":2}`)
	if err := b.Save(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _, _ = b.Load(ctx, "nfl")
	if string(got.Payload) != `{"b":2}` {
		t.Fatalf("expected upserted payload, got %s", got.Payload)
	}

	if err := b.Delete(ctx, "nfl"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := b.Load(ctx, "nfl"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestSQLiteRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	b := openTestSQLite(t)

	if err := b.Save(ctx, Record{PartitionKey: " ", Payload: []byte("x")}); err == nil {
		t.Fatalf("expected error for blank key")
	}
	if err := b.Save(ctx, Record{PartitionKey: "nfl"}); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if _, _, err := b.Load(ctx, ""); err == nil {
		t.Fatalf("expected error for blank load key")
	}
}

func TestSQLiteReopenKeepsDataAndSkipsAppliedMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "players.db")

	first, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Save(ctx, Record{PartitionKey: "nfl", StoredAt: time.Now(), TTL: time.Hour, Payload: []byte("{}")}); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = first.Close()

	second, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if _, ok, err := second.Load(ctx, "nfl"); err != nil || !ok {
		t.Fatalf("expected persisted record, ok=%v err=%v", ok, err)
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestUpMigrationStripsDownSection(t *testing.T) {
	sql := "-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;"
	got := upMigration(sql)
	if got != "\nCREATE TABLE a (x INT);\n" {
		t.Fatalf("unexpected up section %q", got)
	}
	if upMigration("SELECT 1") != "SELECT 1" {
		t.Fatalf("expected passthrough without markers")
	}
}

func TestNilBackendMethodsError(t *testing.T) {
	var b *SQLiteBackend
	ctx := context.Background()
	if _, _, err := b.Load(ctx, "nfl"); err == nil {
		t.Fatalf("expected load error")
	}
	if err := b.Save(ctx, Record{}); err == nil {
		t.Fatalf("expected save error")
	}
	if err := b.Ping(ctx); err == nil {
		t.Fatalf("expected ping error")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("expected nil close, got %v", err)
	}
}
