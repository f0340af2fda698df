package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	sheetsmem "expensetracker/internal/sheets/memory"
	"expensetracker/internal/storage/memory"
)

func seed(t *testing.T, store *memory.Store, dates ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(dates))
	for _, d := range dates {
		id, err := store.Add(context.Background(), core.Expense{Date: d, Amount: 1, Category: "food"})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestSyncWorker_HandleEvent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror, nil)
	ids := seed(t, store, "2024-01-01")
	id := ids[0]

	if err := w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.EventCreated, id)); err != nil {
		t.Fatalf("created event: %v", err)
	}
	if got, ok := mirror.Get(id); !ok || got.Date != "2024-01-01" {
		t.Fatalf("mirror copy = %+v, %v", got, ok)
	}

	if _, err := store.Update(ctx, id, core.ExpenseUpdate{Note: core.Some("edited")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.EventUpdated, id)); err != nil {
		t.Fatalf("updated event: %v", err)
	}
	if got, _ := mirror.Get(id); got.Note != "edited" {
		t.Errorf("note = %q, want edited", got.Note)
	}

	if err := w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.EventDeleted, id)); err != nil {
		t.Fatalf("deleted event: %v", err)
	}
	if mirror.Len() != 0 {
		t.Errorf("mirror len = %d, want 0", mirror.Len())
	}
}

func TestSyncWorker_UpdatedAfterDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror, nil)
	id := seed(t, store, "2024-01-01")[0]

	if err := w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.EventCreated, id)); err != nil {
		t.Fatalf("created event: %v", err)
	}
	if _, err := store.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// The record is gone by the time the update is handled.
	if err := w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.EventUpdated, id)); err != nil {
		t.Fatalf("updated event: %v", err)
	}
	if _, ok := mirror.Get(id); ok {
		t.Error("stale copy should be removed")
	}
}

type failingMirror struct{ *sheetsmem.Mirror }

func (failingMirror) Upsert(context.Context, core.Expense) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestSyncWorker_MirrorFailureIsReturned(t *testing.T) {
	store := memory.New()
	id := seed(t, store, "2024-01-01")[0]
	w := NewSyncWorker(store, failingMirror{sheetsmem.New()}, nil)

	if err := w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.EventCreated, id)); err == nil {
		t.Error("mirror failure should be returned so the message is requeued")
	}
}

func TestSyncWorker_Reconcile(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror, nil)
	ids := seed(t, store, "2024-01-01", "2024-01-02", "2024-01-03")

	// An orphan left behind by a lost delete event.
	if _, err := mirror.Upsert(ctx, core.Expense{ID: 99, Date: "2023-12-31"}); err != nil {
		t.Fatalf("upsert orphan: %v", err)
	}

	res, err := w.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if res.Upserted != 3 || res.Removed != 1 || res.Failed != 0 {
		t.Errorf("result = %+v, want 3 upserted, 1 removed", res)
	}
	got, _ := mirror.IDs(ctx)
	if len(got) != len(ids) {
		t.Fatalf("mirror ids = %v, want %v", got, ids)
	}
	for i := range ids {
		if got[i] != ids[i] {
			t.Errorf("mirror ids = %v, want %v", got, ids)
		}
	}
}

// appendingMirror looks a row up and appends in two separate steps, like a
// spreadsheet API does.
type appendingMirror struct {
	mu   sync.Mutex
	rows []core.Expense
}

func (m *appendingMirror) Upsert(_ context.Context, e core.Expense) (string, error) {
	m.mu.Lock()
	found := -1
	for i, r := range m.rows {
		if r.ID == e.ID {
			found = i
			break
		}
	}
	m.mu.Unlock()

	time.Sleep(time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	if found >= 0 {
		m.rows[found] = e
	} else {
		m.rows = append(m.rows, e)
	}
	return "", nil
}

func (m *appendingMirror) Remove(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *appendingMirror) IDs(context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.rows))
	for _, r := range m.rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func TestSyncWorker_EventsDuringReconcileKeepOneRow(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := &appendingMirror{}
	w := NewSyncWorker(store, mirror, nil)
	ids := seed(t, store, "2024-01-01", "2024-01-02", "2024-01-03")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := w.Reconcile(ctx); err != nil {
			t.Errorf("Reconcile() error = %v", err)
		}
	}()
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if err := w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.EventCreated, id)); err != nil {
				t.Errorf("HandleEvent(%d) error = %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	got, _ := mirror.IDs(ctx)
	seen := make(map[int64]int)
	for _, id := range got {
		seen[id]++
	}
	for _, id := range ids {
		if seen[id] != 1 {
			t.Errorf("id %d mirrored %d times, want once (ids %v)", id, seen[id], got)
		}
	}
}

// staleSnapshot hides every record from Filter, as if they were created
// after a reconcile pass read the store.
type staleSnapshot struct{ *memory.Store }

func (staleSnapshot) Filter(context.Context, core.Filter) ([]core.Expense, error) {
	return nil, nil
}

func TestSyncWorker_ReconcileKeepsRecordsCreatedDuringPass(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := sheetsmem.New()
	id := seed(t, store, "2024-01-01")[0]
	if _, err := mirror.Upsert(ctx, core.Expense{ID: id, Date: "2024-01-01"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	res, err := NewSyncWorker(staleSnapshot{store}, mirror, nil).Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if res.Removed != 0 {
		t.Errorf("result = %+v, want nothing removed", res)
	}
	if _, ok := mirror.Get(id); !ok {
		t.Error("record that still exists in the store was removed from the mirror")
	}
}

func TestReconciler_Lifecycle(t *testing.T) {
	store := memory.New()
	mirror := sheetsmem.New()
	seed(t, store, "2024-01-01")
	r := NewReconciler(NewSyncWorker(store, mirror, nil), 50*time.Millisecond, nil)

	if r.IsRunning() {
		t.Fatal("reconciler should not be running initially")
	}
	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := r.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for mirror.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if mirror.Len() != 1 {
		t.Errorf("mirror len = %d, want 1 after the first pass", mirror.Len())
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if r.IsRunning() {
		t.Error("reconciler should not be running after Stop")
	}
	if err := r.Stop(stopCtx); err != nil {
		t.Errorf("second Stop() should be a no-op, got %v", err)
	}
}

func TestReconciler_InvalidInterval(t *testing.T) {
	r := NewReconciler(NewSyncWorker(memory.New(), sheetsmem.New(), nil), 0, nil)
	if err := r.Start(context.Background()); err == nil {
		t.Error("Start() with zero interval should fail")
	}
}
