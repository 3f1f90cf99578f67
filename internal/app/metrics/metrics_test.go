package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTransitionCounter(t *testing.T) {
	c := New()

	c.Transition("login", "ok")
	c.Transition("login", "ok")
	c.Transition("login", "error")

	if got := testutil.ToFloat64(c.transitions.WithLabelValues("login", "ok")); got != 2 {
		t.Errorf("login/ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.transitions.WithLabelValues("login", "error")); got != 1 {
		t.Errorf("login/error = %v, want 1", got)
	}
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	c := New()
	c.Transition("guest", "ok")
	c.ObserveRequest("/session", "2xx", 0.01)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "gymovoo_session_transitions_total") {
		t.Error("scrape output missing transition counter")
	}
	if !strings.Contains(body, "gymovoo_http_requests_total") {
		t.Error("scrape output missing request counter")
	}
}
