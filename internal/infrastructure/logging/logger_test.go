package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type codedError struct{}

func (codedError) Error() string                 { return "server rejected credential" }
func (codedError) GetCode() string               { return "AUTH" }
func (codedError) IsRetryable() bool             { return false }
func (codedError) GetContext() map[string]string { return map[string]string{"endpoint": "/log"} }
func (codedError) GetTimestamp() time.Time       { return time.Unix(0, 0) }

func decodeLines(t *testing.T, buf *bytes.Buffer) []logEntry {
	t.Helper()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("line is not JSON: %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestLoggerLevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown", "attempt", 2)
	logger.Error("shown too")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "WARN" || entries[0].Fields["attempt"].(float64) != 2 {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[1].Level != "ERROR" {
		t.Errorf("Expected ERROR, got %s", entries[1].Level)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		" warn ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFieldsToMapHandlesMalformedInput(t *testing.T) {
	m := fieldsToMap([]interface{}{"ok", 1, 7, "x", "dangling"})
	if m["ok"] != 1 {
		t.Errorf("Expected ok=1, got %v", m["ok"])
	}
	if m["field_1"] != 7 || m["field_1_value"] != "x" {
		t.Errorf("Expected non-string key to be indexed, got %v", m)
	}
	if m["field_2"] != "dangling" {
		t.Errorf("Expected dangling value to be kept, got %v", m)
	}
	if fieldsToMap(nil) != nil {
		t.Errorf("Expected nil map for no fields")
	}
}

func TestErrorValuesAreStringified(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, LevelDebug).Error("failed", "error", errors.New("disk full"))

	entries := decodeLines(t, &buf)
	if got := entries[0].Fields["error"]; got != "disk full" {
		t.Errorf("Expected error string, got %v", got)
	}
}

func TestWithAppendsBoundFields(t *testing.T) {
	var buf bytes.Buffer
	logger := With(NewLogger(&buf, LevelDebug), "component", "syncer")
	logger.Info("pass", "sent", 1)

	entries := decodeLines(t, &buf)
	if entries[0].Fields["component"] != "syncer" || entries[0].Fields["sent"].(float64) != 1 {
		t.Errorf("Unexpected fields: %v", entries[0].Fields)
	}
}

func TestLogErrorClassified(t *testing.T) {
	var buf bytes.Buffer
	LogError(NewLogger(&buf, LevelDebug), codedError{}, "push", map[string]interface{}{"record_id": 4})

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	f := entries[0].Fields
	if f["error_code"] != "AUTH" || f["endpoint"] != "/log" || f["operation"] != "push" {
		t.Errorf("Unexpected fields: %v", f)
	}
	if !strings.HasPrefix(entries[0].Message, "Operation failed") {
		t.Errorf("Unexpected message: %s", entries[0].Message)
	}
}

func TestLogErrorPlainAndNil(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug)
	LogError(logger, nil, "noop", nil)
	LogError(logger, errors.New("boom"), "pull", nil)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Fields["error_type"] != "*errors.errorString" {
		t.Errorf("Unexpected error_type: %v", entries[0].Fields["error_type"])
	}
}

func TestLogOperation(t *testing.T) {
	var buf bytes.Buffer
	LogOperation(NewLogger(&buf, LevelDebug), "append", 1500*time.Millisecond, map[string]interface{}{"id": 9})

	entries := decodeLines(t, &buf)
	if entries[0].Level != "DEBUG" || entries[0].Fields["duration_ms"].(float64) != 1500 {
		t.Errorf("Unexpected entry: %+v", entries[0])
	}
}
