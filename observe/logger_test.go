package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("failed to parse log line as JSON: %v\nLine: %s", err, line)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_IncludesCacheFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).WithCache(CacheMeta{Namespace: "users", Name: "profiles"})

	logger.Info(context.Background(), "test message")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry["cache.name"] != "profiles" {
		t.Errorf("expected cache.name='profiles', got %v", entry["cache.name"])
	}
	if entry["cache.namespace"] != "users" {
		t.Errorf("expected cache.namespace='users', got %v", entry["cache.namespace"])
	}
	if entry["msg"] != "test message" {
		t.Errorf("expected msg='test message', got %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("expected level='info', got %v", entry["level"])
	}
}

func TestLogger_ValuesRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	logger.Debug(context.Background(), "stored",
		Field{Key: "value", Value: "s3cr3t"},
		Field{Key: "token", Value: "abc"},
		Field{Key: "cache.key", Value: "user:1"},
	)

	entry := decodeLines(t, &buf)[0]
	if entry["value"] != "[REDACTED]" {
		t.Errorf("expected value redacted, got %v", entry["value"])
	}
	if entry["token"] != "[REDACTED]" {
		t.Errorf("expected token redacted, got %v", entry["token"])
	}
	if entry["cache.key"] != "user:1" {
		t.Errorf("expected cache.key kept, got %v", entry["cache.key"])
	}
}

func TestLogger_ErrorFieldsRenderMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Error(context.Background(), "dispose failed", Field{Key: "error", Value: errors.New("boom")})

	entry := decodeLines(t, &buf)[0]
	if entry["error"] != "boom" {
		t.Errorf("expected error='boom', got %v", entry["error"])
	}
	if entry["level"] != "error" {
		t.Errorf("expected level='error', got %v", entry["level"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  int
	}{
		{"debug", 4},
		{"info", 3},
		{"warn", 2},
		{"error", 1},
		{"bogus", 3},
	}

	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(tc.level, &buf)
			ctx := context.Background()

			logger.Debug(ctx, "d")
			logger.Info(ctx, "i")
			logger.Warn(ctx, "w")
			logger.Error(ctx, "e")

			if got := len(decodeLines(t, &buf)); got != tc.want {
				t.Errorf("expected %d entries, got %d", tc.want, got)
			}
		})
	}
}

func TestLogger_WithCacheSharesWriter(t *testing.T) {
	var buf bytes.Buffer
	root := NewLoggerWithWriter("info", &buf)
	a := root.WithCache(CacheMeta{Name: "a"})
	b := root.WithCache(CacheMeta{Name: "b"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.Info(context.Background(), "from a")
		}()
		go func() {
			defer wg.Done()
			b.Info(context.Background(), "from b")
		}()
	}
	wg.Wait()

	entries := decodeLines(t, &buf)
	if len(entries) != 100 {
		t.Fatalf("expected 100 intact entries, got %d", len(entries))
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		if got := ParseLogLevel(level.String()); got != level {
			t.Errorf("round trip of %v gave %v", level, got)
		}
	}
}
