package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 3})
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("fourth request within a minute should be rejected")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients have their own budget")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("budget should reset after a quiet minute")
	}
	if rl.ActiveClients() != 2 {
		t.Errorf("ActiveClients() = %d, want 2", rl.ActiveClients())
	}

	now = now.Add(11 * time.Minute)
	rl.sweep()
	if rl.ActiveClients() != 0 {
		t.Errorf("ActiveClients() after cleanup = %d, want 0", rl.ActiveClients())
	}
}

func TestLimiter_MiddlewareOnlyLimitsConfiguredMethods(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 1
	rl := NewLimiter(cfg)
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "9.9.9.9" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	serve := func(method string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/expenses", nil))
		return rec.Code
	}

	if code := serve(http.MethodPost); code != http.StatusNoContent {
		t.Fatalf("first POST = %d, want 204", code)
	}
	if code := serve(http.MethodPost); code != http.StatusTooManyRequests {
		t.Errorf("second POST = %d, want 429", code)
	}
	for i := 0; i < 5; i++ {
		if code := serve(http.MethodGet); code != http.StatusNoContent {
			t.Fatalf("GET %d = %d, want 204", i, code)
		}
	}
}

func TestLimiter_WindowIsFixed(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	// A steady trickle must not keep the first window open forever.
	for i := 0; i < 2; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
		now = now.Add(25 * time.Second)
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request in the first minute should be rejected")
	}
	now = now.Add(15 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("a new window should open one minute after the first request")
	}
}

func TestLimiter_RetryAfterCountsDownTheWindow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Middleware(func(*http.Request) string { return "9.9.9.9" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/expenses", nil))
	now = now.Add(45500 * time.Millisecond)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/expenses", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "15" {
		t.Errorf("Retry-After = %q, want 15", got)
	}
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}
