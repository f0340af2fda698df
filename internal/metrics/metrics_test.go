package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("add_expense", "ok", time.Millisecond)
	m.ObserveEvent("created", nil)
	m.ObserveRequest("GET", 200)
}

func TestHandlerExposesObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveOperation("get_expense", "not_found", 2*time.Millisecond)
	m.ObserveOperation("get_expense", "ok", time.Millisecond)
	m.ObserveEvent("deleted", errors.New("broker down"))
	m.ObserveRequest("POST", 201)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`expensetracker_operations_total{operation="get_expense",outcome="not_found"} 1`,
		`expensetracker_operations_total{operation="get_expense",outcome="ok"} 1`,
		`expensetracker_operation_duration_seconds_count{operation="get_expense"} 2`,
		`expensetracker_events_published_total{result="error",type="deleted"} 1`,
		`expensetracker_http_requests_total{code="201",method="POST"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
