package memory

import (
	"context"
	"testing"

	"expensetracker/internal/core"
)

func TestMirrorUpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	m := New()

	ref, err := m.Upsert(ctx, core.Expense{ID: 2, Date: "2024-01-01", Amount: 5, Category: "food"})
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected upsert: ref=%q err=%v", ref, err)
	}
	if _, err := m.Upsert(ctx, core.Expense{ID: 1, Date: "2024-01-02", Amount: 1, Category: "books"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Upsert replaces in place.
	if _, err := m.Upsert(ctx, core.Expense{ID: 2, Date: "2024-01-01", Amount: 9, Category: "food"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got, _ := m.Get(2); got.Amount != 9 {
		t.Errorf("amount = %v, want 9", got.Amount)
	}
	if m.Len() != 2 {
		t.Errorf("len = %d, want 2", m.Len())
	}

	ids, _ := m.IDs(ctx)
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("ids = %v, want [1 2]", ids)
	}

	if err := m.Remove(ctx, 2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := m.Remove(ctx, 42); err != nil {
		t.Errorf("removing an unknown id should succeed: %v", err)
	}
	if _, ok := m.Get(2); ok {
		t.Error("id 2 should be gone")
	}
}

func TestMirrorRejectsUnsavedExpense(t *testing.T) {
	if _, err := New().Upsert(context.Background(), core.Expense{Date: "2024-01-01"}); err == nil {
		t.Error("expected error for an expense without id")
	}
}
