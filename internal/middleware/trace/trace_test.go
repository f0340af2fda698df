package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"expensetracker/internal/log"
)

type recordingObserver struct {
	method string
	code   int
}

func (o *recordingObserver) ObserveRequest(method string, code int) {
	o.method, o.code = method, code
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var seen string
	var hasLogger bool
	h := NewMiddleware(nil, nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		hasLogger = log.FromContext(r.Context()).Component() == log.ComponentHTTP
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("request id %q is not a UUID: %v", seen, err)
	}
	if got := rec.Header().Get(HeaderRequestID); got != seen {
		t.Errorf("response header = %q, want %q", got, seen)
	}
	if !hasLogger {
		t.Error("handler context should carry the request logger")
	}
}

func TestMiddleware_ReusesValidIncomingID(t *testing.T) {
	incoming := uuid.NewString()
	h := NewMiddleware(nil, nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		name   string
		header string
		reuse  bool
	}{
		{"valid uuid", incoming, true},
		{"garbage", "not-an-id\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, tt.header)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(HeaderRequestID)
			if (got == tt.header) != tt.reuse {
				t.Errorf("response id = %q, incoming %q, reuse %v", got, tt.header, tt.reuse)
			}
		})
	}
}

func TestMiddleware_ReportsStatus(t *testing.T) {
	obs := &recordingObserver{}
	h := NewMiddleware(func(*http.Request) string { return "10.0.0.1" }, obs, nil).
		Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.WriteHeader(http.StatusOK)
		}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/expenses/9", nil))

	if obs.method != http.MethodDelete || obs.code != http.StatusNotFound {
		t.Errorf("observed %s %d, want DELETE 404", obs.method, obs.code)
	}
}
