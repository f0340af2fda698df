// Package ratelimit caps requests per client in fixed one-minute windows.
package ratelimit

import (
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"
)

const (
	window   = time.Minute
	staleAge = 10 * time.Minute
)

// Limiter counts requests per client address. A client's window opens with
// its first request and its budget is restored when the window closes.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*clientWindow
	now      func() time.Time
	budget   int
	methods  []string
	sweepDue time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	opened time.Time
	count  int
	seen   time.Time
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration

	// Methods limits the middleware to these HTTP methods. Empty means all.
	Methods []string
}

// DefaultConfig limits writes to 60 per minute per client.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
		Methods:           []string{http.MethodPost, http.MethodPatch, http.MethodDelete},
	}
}

// NewLimiter starts a limiter and its sweeper. Stop releases the sweeper.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	l := &Limiter{
		windows:  make(map[string]*clientWindow),
		now:      time.Now,
		budget:   cfg.RequestsPerMinute,
		methods:  cfg.Methods,
		sweepDue: cfg.CleanupInterval,
		done:     make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow spends one request from client's budget.
func (l *Limiter) Allow(client string) bool {
	ok, _ := l.take(client)
	return ok
}

// take spends one request and, when the budget is gone, reports how long
// until the client's window closes.
func (l *Limiter) take(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[client]
	if w == nil || now.Sub(w.opened) >= window {
		w = &clientWindow{opened: now}
		l.windows[client] = w
	}
	w.seen = now

	if w.count >= l.budget {
		return false, w.opened.Add(window).Sub(now)
	}
	w.count++
	return true, 0
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.sweepDue)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep forgets clients idle for longer than staleAge.
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-staleAge)
	for client, w := range l.windows {
		if w.seen.Before(cutoff) {
			delete(l.windows, client)
		}
	}
}

// ActiveClients returns how many clients are being tracked.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Middleware limits the configured methods per client. Rejected requests
// carry Retry-After in whole seconds; onLimit writes the body, or a plain
// 429 is sent when it is nil.
func (l *Limiter) Middleware(clientOf func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(l.methods) > 0 && !slices.Contains(l.methods, r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			ok, wait := l.take(clientOf(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(wait)))
			if onLimit == nil {
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			onLimit(w, r)
		})
	}
}

func retrySeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}
