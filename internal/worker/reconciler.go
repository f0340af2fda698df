package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expensetracker/internal/log"
)

// Reconciler runs SyncWorker.Reconcile on a fixed interval.
type Reconciler struct {
	worker   *SyncWorker
	interval time.Duration
	logger   *log.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReconciler(worker *SyncWorker, interval time.Duration, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &Reconciler{worker: worker, interval: interval, logger: logger}
}

// Start begins the reconcile loop. The first pass runs immediately.
// Returns an error if already running.
func (r *Reconciler) Start(ctx context.Context) error {
	if r.interval <= 0 {
		return fmt.Errorf("invalid reconcile interval %v", r.interval)
	}
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reconciler is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	go r.runLoop(ctx, stopCh, doneCh)

	r.logger.InfoContext(ctx, "Reconciler started", "interval", r.interval)
	return nil
}

// Stop signals the loop and waits for the current pass to finish.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.running = false
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		r.logger.InfoContext(ctx, "Reconciler stopped gracefully")
		return nil
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "Reconciler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the loop is currently running
func (r *Reconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Reconciler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runOnce(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Reconciler) runOnce(ctx context.Context) {
	start := time.Now()
	res, err := r.worker.Reconcile(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Reconcile failed", log.FieldOperation, log.OpSync, log.FieldError, err)
		return
	}
	r.logger.InfoContext(ctx, "Reconcile completed",
		log.FieldOperation, log.OpSync,
		"upserted", res.Upserted,
		"removed", res.Removed,
		"failed", res.Failed,
		log.FieldDuration, time.Since(start).Milliseconds())
}
