package http

import (
	"context"
	"net/http"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/metrics"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
)

// Service is the set of expense operations served over HTTP.
type Service interface {
	AddExpense(ctx context.Context, e core.Expense) (int64, error)
	ListExpenses(ctx context.Context, startDate, endDate string) ([]core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) (int64, error)
	UpdateExpense(ctx context.Context, id int64, u core.ExpenseUpdate) (int64, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	FilterExpenses(ctx context.Context, f core.Filter) ([]core.Expense, error)
	Summarize(ctx context.Context, startDate, endDate, category string) ([]core.CategoryTotal, error)
	Categories(ctx context.Context) ([]byte, error)
	Ping(ctx context.Context) error
}

// Options tune the server. The zero value is usable.
type Options struct {
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Logger         *log.Logger
	RateLimit      ratelimit.Config
	Headers        security.HeadersConfig
}

type Server struct {
	http.Server
	svc      Service
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	rlConfig := opts.RateLimit
	if rlConfig.RequestsPerMinute == 0 {
		rlConfig = ratelimit.DefaultConfig()
	}
	headers := opts.Headers
	if headers == (security.HeadersConfig{}) {
		headers = security.DefaultHeadersConfig()
	}

	s := &Server{
		svc:      svc,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(rlConfig),
		detector: security.NewDetector(logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /expenses", s.handleAddExpense)
	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("GET /expenses/filter", s.handleFilterExpenses)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PATCH /expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("GET /summary", s.handleSummarize)
	mux.HandleFunc("GET /categories", s.handleCategories)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	var observer trace.RequestObserver
	if opts.Metrics != nil {
		observer = opts.Metrics
	}

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, writeRateLimited)(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(headers).Middleware(handler)
	handler = trace.NewMiddleware(s.detector.ExtractClientIP, observer, logger).Middleware(handler)

	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded")
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
