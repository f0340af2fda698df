// Package worker keeps the Sheets mirror in step with the store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/sheets"
)

// ExpenseReader is the read side of the store the worker needs.
type ExpenseReader interface {
	Get(ctx context.Context, id int64) (core.Expense, error)
	Filter(ctx context.Context, f core.Filter) ([]core.Expense, error)
}

// SyncWorker applies change events to an ExpenseMirror. Events carry only
// the id; the current record is always read back from the store. Event
// handling and reconcile passes take turns on the mirror.
type SyncWorker struct {
	mu sync.Mutex

	store  ExpenseReader
	mirror sheets.ExpenseMirror
	logger *log.Logger
}

func NewSyncWorker(store ExpenseReader, mirror sheets.ExpenseMirror, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &SyncWorker{store: store, mirror: mirror, logger: logger}
}

// HandleEvent processes a single change event from AMQP. A returned error
// requeues the message.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	logger := w.logger.With(log.FieldExpenseID, ev.ID, log.FieldEventType, string(ev.Type))
	logger.InfoContext(ctx, "Processing change event")

	w.mu.Lock()
	defer w.mu.Unlock()

	switch ev.Type {
	case amqp.EventCreated, amqp.EventUpdated:
		expense, err := w.store.Get(ctx, ev.ID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before this event was handled.
			logger.InfoContext(ctx, "Expense no longer exists, removing mirrored copy")
			return w.remove(ctx, ev.ID)
		}
		if err != nil {
			return fmt.Errorf("get expense %d: %w", ev.ID, err)
		}
		ref, err := w.mirror.Upsert(ctx, expense)
		if err != nil {
			return fmt.Errorf("upsert expense %d: %w", ev.ID, err)
		}
		logger.InfoContext(ctx, "Mirrored expense", "sheets_ref", ref)
		return nil

	case amqp.EventDeleted:
		return w.remove(ctx, ev.ID)

	default:
		logger.WarnContext(ctx, "Unknown event type, skipping")
		return nil
	}
}

func (w *SyncWorker) remove(ctx context.Context, id int64) error {
	if err := w.mirror.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove expense %d: %w", id, err)
	}
	w.logger.InfoContext(ctx, "Removed mirrored expense", log.FieldExpenseID, id)
	return nil
}

// ReconcileResult counts what a reconcile pass changed.
type ReconcileResult struct {
	Upserted int
	Removed  int
	Failed   int
}

// Reconcile copies every stored expense to the mirror and, when the mirror
// can list its ids, removes copies of expenses that no longer exist. It
// recovers from events lost while the worker was down.
func (w *SyncWorker) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult

	expenses, err := w.store.Filter(ctx, core.Filter{})
	if err != nil {
		return res, fmt.Errorf("list expenses: %w", err)
	}

	stored := make(map[int64]struct{}, len(expenses))
	for _, e := range expenses {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		stored[e.ID] = struct{}{}
		if err := w.upsertLocked(ctx, e); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror expense", log.FieldExpenseID, e.ID, log.FieldError, err)
			res.Failed++
			continue
		}
		res.Upserted++
	}

	lister, ok := w.mirror.(sheets.MirrorLister)
	if !ok {
		return res, nil
	}
	ids, err := lister.IDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list mirrored ids: %w", err)
	}
	for _, id := range ids {
		if _, ok := stored[id]; ok {
			continue
		}
		removed, err := w.removeOrphan(ctx, id)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to remove orphaned copy", log.FieldExpenseID, id, log.FieldError, err)
			res.Failed++
			continue
		}
		if removed {
			res.Removed++
		}
	}
	return res, nil
}

func (w *SyncWorker) upsertLocked(ctx context.Context, e core.Expense) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.mirror.Upsert(ctx, e)
	return err
}

// removeOrphan removes id from the mirror if the store still has no such
// expense. Records created after the pass started are left alone.
func (w *SyncWorker) removeOrphan(ctx context.Context, id int64) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.store.Get(ctx, id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return false, fmt.Errorf("get expense %d: %w", id, err)
	}
	if err := w.mirror.Remove(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}
