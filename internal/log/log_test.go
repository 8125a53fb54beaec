package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Writer: &buf}).WithComponent(ComponentLedger)

	logger.DebugContext(context.Background(), "hidden")
	logger.InfoContext(context.Background(), "record stored", FieldRecordID, 4)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line (debug filtered), got %d: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["component"] != ComponentLedger || entry["record_id"] != float64(4) {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestPrettyHandlerWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: FormatPretty, Writer: &buf})
	logger.DebugContext(context.Background(), "projection ready")
	if !strings.Contains(buf.String(), "projection ready") {
		t.Fatalf("tint handler output missing message: %q", buf.String())
	}
}

func TestFromContextDefaultsToSlog(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected default logger %+v", l)
	}
}

func TestMiddlewareCarriesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: FormatJSON, Writer: &buf, Component: ComponentHTTP})

	handler := Middleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithLogger(r.Context(), FromContext(r.Context()).With(FieldRequestID, "req-1"))
		LogRecordError(ctx, "update failed", errors.New("boom"), OpUpdate, "fixed", 9)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"operation":"update"`, `"record_id":9`, `"error":"boom"`, `"component":"http"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}
