// Command expensetracker-worker mirrors expenses into a Google Sheet by
// consuming change events.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/log"
	gsheet "expensetracker/internal/sheets/google"
	"expensetracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err == nil {
		err = cfg.ValidateSheets()
	}
	if err != nil {
		cli.Fatal(slog.Default(), "Invalid configuration", err)
	}
	logger := cli.SetupLogger(os.Stdout, cfg.SlogLevel(), cfg.LogFormat)
	logger.Info("Starting expensetracker-worker")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		stop()
		cli.Fatal(logger, "Worker failed", err)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	result, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()
	if result.Events == nil {
		return fmt.Errorf("AMQP broker at %s is unreachable", cfg.AMQPURL)
	}

	mirror, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, log.New(logger.Handler(), log.ComponentSheets))
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	if err := mirror.EnsureHeader(ctx); err != nil {
		return err
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	workerLogger := log.New(logger.Handler(), log.ComponentWorker)
	syncWorker := worker.NewSyncWorker(result.Store, mirror, workerLogger)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.ReconcileInterval > 0 {
		reconciler := worker.NewReconciler(syncWorker, cfg.ReconcileInterval, workerLogger)
		if err := reconciler.Start(gctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return reconciler.Stop(stopCtx)
		})
	} else {
		logger.Info("Periodic reconcile disabled")
	}

	g.Go(func() error {
		return result.Events.Consume(gctx, syncWorker.HandleEvent)
	})

	return g.Wait()
}
