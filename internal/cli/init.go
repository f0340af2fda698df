// Package cli provides common initialization shared by the cmd/ binaries.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"expensetracker/internal/backend"
	"expensetracker/internal/catalog"
	"expensetracker/internal/config"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/metrics"
	"expensetracker/internal/services"
)

// NewHandler returns the slog handler for format: "json", "pretty" (tint,
// coloured) or anything else for the plain text handler.
func NewHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	switch format {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "pretty":
		return tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
}

// SetupLogger installs and returns the process-wide default logger.
func SetupLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	logger := slog.New(NewHandler(w, level, format))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// OpenBackend creates the configured store and, when a broker is set, the
// change-event client.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return result, nil
}

// UpdatePolicy maps the configuration switch to the update policy.
func UpdatePolicy(cfg *config.Config) core.UpdatePolicy {
	if cfg.AllowClearingFields {
		return core.ClearOptionalFields
	}
	return core.IgnoreEmptyStrings
}

// NewExpenseService wires the service to the backend. m may be nil.
func NewExpenseService(cfg *config.Config, result *backend.BackendResult, m *metrics.Metrics, logger *slog.Logger) *services.ExpenseService {
	opts := []services.Option{
		services.WithUpdatePolicy(UpdatePolicy(cfg)),
		services.WithLogger(log.New(logger.Handler(), log.ComponentExpense)),
	}
	if m != nil {
		opts = append(opts, services.WithMetrics(m))
	}
	// A nil *amqp.Client must not become a non-nil EventPublisher.
	if result.Events != nil {
		opts = append(opts, services.WithEvents(result.Events))
	}
	return services.NewExpenseService(result.Store, catalog.New(cfg.CategoriesPath), opts...)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. Only a
// real signal is logged; calling the returned cancel func stays silent.
func SignalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Fatal logs err and exits with status 1.
func Fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
