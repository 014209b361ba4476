package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func newBufferedLogger(t *testing.T, level LogLevel) (*ZapLogger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	log, err := NewZapLogger(Config{Level: level, Format: JSONFormat, Output: buf})
	if err != nil {
		t.Fatalf("NewZapLogger() error = %v", err)
	}
	return log, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewZapLogger(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "json format with debug level", config: Config{Level: DebugLevel, Format: JSONFormat}},
		{name: "text format with info level", config: Config{Level: InfoLevel, Format: TextFormat}},
		{name: "unknown level falls back to info", config: Config{Level: "verbose", Format: JSONFormat}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Output = &bytes.Buffer{}
			log, err := NewZapLogger(tt.config)
			if err != nil {
				t.Fatalf("NewZapLogger() error = %v", err)
			}
			if log == nil {
				t.Fatal("NewZapLogger() returned nil logger")
			}
			_ = log.Sync()
		})
	}
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	log, buf := newBufferedLogger(t, WarnLevel)

	log.Debug("debug entry")
	log.Info("info entry")
	log.Warn("warn entry")
	log.Error("error entry")

	entries := decodeLines(t, buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries at warn level, got %d", len(entries))
	}
	if entries[0]["level"] != "warn" || entries[1]["level"] != "error" {
		t.Errorf("unexpected levels: %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

func TestZapLogger_StructuredFields(t *testing.T) {
	log, buf := newBufferedLogger(t, InfoLevel)

	log.With("component", "catalog").Info("query executed", "collection", "products", "count", 3)

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry["message"] != "query executed" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["component"] != "catalog" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["collection"] != "products" {
		t.Errorf("collection = %v", entry["collection"])
	}
	if entry["count"] != float64(3) {
		t.Errorf("count = %v", entry["count"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("timestamp field missing")
	}
}

func TestZapLogger_WithContext(t *testing.T) {
	log, buf := newBufferedLogger(t, InfoLevel)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	log.WithContext(ctx).Info("with request")
	log.WithContext(context.Background()).Info("without request")

	entries := decodeLines(t, buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["request_id"] != "req-42" {
		t.Errorf("request_id = %v, want req-42", entries[0]["request_id"])
	}
	if _, ok := entries[1]["request_id"]; ok {
		t.Error("request_id should be absent without a request ID in context")
	}
}

func TestZapLogger_DefaultFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewZapLogger(Config{Level: InfoLevel, Format: JSONFormat, Output: buf, Fields: []any{"service", "neeprokriti"}})
	if err != nil {
		t.Fatalf("NewZapLogger() error = %v", err)
	}
	log.Info("started")

	entries := decodeLines(t, buf)
	if len(entries) != 1 || entries[0]["service"] != "neeprokriti" {
		t.Fatalf("service field not attached: %v", entries)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"warning", WarnLevel, false},
		{" error ", ErrorLevel, false},
		{"trace", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseLogFormat(t *testing.T) {
	if got, err := ParseLogFormat("console"); err != nil || got != TextFormat {
		t.Errorf("ParseLogFormat(console) = %q, %v", got, err)
	}
	if got, err := ParseLogFormat("json"); err != nil || got != JSONFormat {
		t.Errorf("ParseLogFormat(json) = %q, %v", got, err)
	}
	if _, err := ParseLogFormat("xml"); err == nil {
		t.Error("expected error for xml format")
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Info("ignored", "k", "v")
	if log.With("a", 1) == nil || log.WithContext(context.Background()) == nil {
		t.Fatal("Nop logger children must not be nil")
	}
}
