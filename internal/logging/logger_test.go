package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerNotNil(t *testing.T) {
	logger := NewLogger(Config{})
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
}

func TestNewLoggerUsesTextHandlerWithInfoLevel(t *testing.T) {
	logger := NewLogger(Config{Format: "text", Level: "info"})

	if enabled := logger.Enabled(context.Background(), slog.LevelInfo); !enabled {
		t.Fatal("expected info level to be enabled")
	}

	if enabled := logger.Enabled(context.Background(), slog.LevelDebug); enabled {
		t.Fatal("expected debug level to be disabled")
	}
}

func TestNewLoggerJSONIncludesServiceAndVersion(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: "json", Level: "debug", Service: "svc", Version: "v1", Output: &buf})

	logger.Debug("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if line[FieldService] != "svc" || line[FieldVersion] != "v1" {
		t.Fatalf("expected service/version attrs, got %+v", line)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	scoped := slog.New(slog.NewTextHandler(&buf, nil))
	fallback := slog.Default()

	ctx := WithLogger(context.Background(), scoped)
	if got := FromContext(ctx, fallback); got != scoped {
		t.Fatalf("expected scoped logger from context")
	}
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Fatalf("expected fallback when context has no logger")
	}
	if got := WithLogger(context.Background(), nil); FromContext(got, fallback) != fallback {
		t.Fatalf("expected nil logger to be ignored")
	}
}

func TestHelpersAreNilSafe(t *testing.T) {
	Info(nil, "x")
	Warn(nil, "x")
	Error(nil, "x", nil)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	Error(logger, "failed", errTest("boom"), "k", "v")
	if !strings.Contains(buf.String(), "error=boom") {
		t.Fatalf("expected error attr in output, got %q", buf.String())
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
