package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/api/projection", 200, 5*time.Millisecond)
	m.ObserveHTTP("GET", "/api/projection", 200, time.Millisecond)
	m.AddSettled("installment", 3)
	m.AddSettled("fixed", 0)
	m.EventPublished("month.settled", nil)
	m.EventPublished("month.settled", errors.New("down"))

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/projection", "200")); got != 2 {
		t.Fatalf("http requests = %v", got)
	}
	if got := testutil.ToFloat64(m.settledRecords.WithLabelValues("installment")); got != 3 {
		t.Fatalf("settled = %v", got)
	}
	if got := testutil.ToFloat64(m.eventsPublished.WithLabelValues("month.settled", "error")); got != 1 {
		t.Fatalf("failed publishes = %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/", 200, time.Second)
	m.ObserveProjection(time.Second)
	m.AddSettled("fixed", 1)
	m.EventPublished("x", nil)
	m.EventHandled("x", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("expected 404 from nil metrics handler, got %d", rec.Code)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveProjection(2 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "finanzas_projection_duration_seconds_count 1") {
		t.Fatalf("projection histogram missing from exposition:\n%s", body)
	}
}
