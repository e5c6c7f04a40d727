package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecorder is a thread-safe sink for capturing structured log output
// in tests.
type LogRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewRecorded returns a debug-level JSON logger together with the
// recorder its output is written to.
func NewRecorded() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{}
	handler := slog.NewJSONHandler(rec, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return slog.New(handler), rec
}

// Write implements io.Writer.
func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// String returns everything logged so far.
func (r *LogRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// Reset discards everything logged so far.
func (r *LogRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Reset()
}

// Entries parses the captured output as one JSON record per line,
// failing the test on malformed output.
func (r *LogRecorder) Entries(t *testing.T) []map[string]any {
	t.Helper()

	entries := make([]map[string]any, 0)
	for _, line := range strings.Split(r.String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("malformed log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}

	return entries
}

// AssertContains fails the test unless the captured output contains
// content somewhere.
func (r *LogRecorder) AssertContains(t *testing.T, content string) {
	t.Helper()

	logs := r.String()
	if !strings.Contains(logs, content) {
		t.Errorf("expected logs to contain %q.\nLogs:\n%s", content, logs)
	}
}

// AssertField fails the test unless some captured record carries the
// field with the expected value. JSON numbers decode as float64, so
// numeric expectations must be given as float64.
func (r *LogRecorder) AssertField(t *testing.T, field string, expected any) {
	t.Helper()

	for _, entry := range r.Entries(t) {
		if value, ok := entry[field]; ok && value == expected {
			return
		}
	}
	t.Errorf("no log record carries %s=%v.\nLogs:\n%s", field, expected, r.String())
}
