// Package storetest holds the behaviour every storage.Store must show. Each
// store package runs it against a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"math"
	"testing"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// Run exercises s. newStore must return an empty store; it is called once per
// subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("Add then Get round trips with empty defaults", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Add(ctx, core.Expense{Date: "2024-01-05", Amount: 12.5, Category: "food"})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		got, err := s.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		want := core.Expense{ID: id, Date: "2024-01-05", Amount: 12.5, Category: "food"}
		if got != want {
			t.Errorf("Get() = %+v, want %+v", got, want)
		}
	})

	t.Run("ids increase", func(t *testing.T) {
		s := newStore(t)
		first := mustAdd(t, s, core.Expense{Date: "2024-01-01", Amount: 1, Category: "a"})
		second := mustAdd(t, s, core.Expense{Date: "2024-01-01", Amount: 1, Category: "a"})
		if second <= first {
			t.Errorf("second id %d not greater than first %d", second, first)
		}
	})

	t.Run("Delete removes the record", func(t *testing.T) {
		s := newStore(t)
		id := mustAdd(t, s, core.Expense{Date: "2024-01-01", Amount: 3, Category: "misc"})

		n, err := s.Delete(ctx, id)
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Delete() = %d, want 1", n)
		}
		if _, err := s.Get(ctx, id); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Get after delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("missing id is reported with its value", func(t *testing.T) {
		s := newStore(t)
		check := func(op string, err error) {
			t.Helper()
			var nf *core.NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("%s error = %v, want *core.NotFoundError", op, err)
			}
			if nf.ID != 999 {
				t.Errorf("%s NotFoundError.ID = %d, want 999", op, nf.ID)
			}
		}
		_, err := s.Delete(ctx, 999)
		check("Delete", err)
		_, err = s.Update(ctx, 999, core.ExpenseUpdate{Amount: core.Some(5.0)})
		check("Update", err)
		_, err = s.Get(ctx, 999)
		check("Get", err)
	})

	t.Run("Update sets only supplied fields and keeps amount zero", func(t *testing.T) {
		s := newStore(t)
		id := mustAdd(t, s, core.Expense{Date: "2024-01-01", Amount: 40, Category: "travel", Subcategory: "train", Note: "x"})

		n, err := s.Update(ctx, id, core.ExpenseUpdate{Amount: core.Some(0.0), Note: core.Some("refund")})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Update() = %d, want 1", n)
		}
		got, err := s.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		want := core.Expense{ID: id, Date: "2024-01-01", Amount: 0, Category: "travel", Subcategory: "train", Note: "refund"}
		if got != want {
			t.Errorf("Get() = %+v, want %+v", got, want)
		}
	})

	t.Run("Update can write an empty string when asked to", func(t *testing.T) {
		s := newStore(t)
		id := mustAdd(t, s, core.Expense{Date: "2024-01-01", Amount: 1, Category: "a", Subcategory: "b"})

		if _, err := s.Update(ctx, id, core.ExpenseUpdate{Subcategory: core.Some("")}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		got, err := s.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Subcategory != "" {
			t.Errorf("Subcategory = %q, want empty", got.Subcategory)
		}
	})

	t.Run("Update without fields", func(t *testing.T) {
		s := newStore(t)
		id := mustAdd(t, s, core.Expense{Date: "2024-01-01", Amount: 1, Category: "a"})
		if _, err := s.Update(ctx, id, core.ExpenseUpdate{}); !errors.Is(err, core.ErrNoFieldsToUpdate) {
			t.Errorf("Update() error = %v, want ErrNoFieldsToUpdate", err)
		}
	})

	t.Run("List is inclusive and ordered by id", func(t *testing.T) {
		s := newStore(t)
		a := mustAdd(t, s, core.Expense{Date: "2024-03-10", Amount: 1, Category: "a"})
		b := mustAdd(t, s, core.Expense{Date: "2024-03-01", Amount: 2, Category: "b"})
		mustAdd(t, s, core.Expense{Date: "2024-04-01", Amount: 3, Category: "c"})
		c := mustAdd(t, s, core.Expense{Date: "2024-03-31", Amount: 4, Category: "d"})

		got, err := s.List(ctx, "2024-03-01", "2024-03-31")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		assertIDs(t, got, a, b, c)
		for _, e := range got {
			if e.Date < "2024-03-01" || e.Date > "2024-03-31" {
				t.Errorf("record %d date %s outside range", e.ID, e.Date)
			}
		}
	})

	t.Run("List over a disjoint range is empty", func(t *testing.T) {
		s := newStore(t)
		mustAdd(t, s, core.Expense{Date: "2024-03-10", Amount: 1, Category: "a"})

		got, err := s.List(ctx, "2030-01-01", "2030-12-31")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("List() = %#v, want empty non-nil slice", got)
		}
	})

	t.Run("Filter combines criteria and orders by date", func(t *testing.T) {
		s := newStore(t)
		late := mustAdd(t, s, core.Expense{Date: "2024-05-02", Amount: 1, Category: "food", Subcategory: "groceries"})
		early := mustAdd(t, s, core.Expense{Date: "2024-05-01", Amount: 1, Category: "food", Subcategory: "groceries"})
		dining := mustAdd(t, s, core.Expense{Date: "2024-04-01", Amount: 1, Category: "food", Subcategory: "dining"})
		other := mustAdd(t, s, core.Expense{Date: "2024-01-01", Amount: 1, Category: "rent", Subcategory: "groceries"})

		tests := []struct {
			name   string
			filter core.Filter
			want   []int64
		}{
			{"no filter", core.Filter{}, []int64{other, dining, early, late}},
			{"category", core.Filter{Category: "food"}, []int64{dining, early, late}},
			{"subcategory", core.Filter{Subcategory: "groceries"}, []int64{other, early, late}},
			{"both", core.Filter{Category: "food", Subcategory: "groceries"}, []int64{early, late}},
			{"no match", core.Filter{Category: "none"}, nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.Filter(ctx, tt.filter)
				if err != nil {
					t.Fatalf("Filter failed: %v", err)
				}
				if got == nil {
					t.Fatal("Filter() returned nil slice")
				}
				assertIDs(t, got, tt.want...)
			})
		}
	})

	t.Run("Summarize totals per category", func(t *testing.T) {
		s := newStore(t)
		mustAdd(t, s, core.Expense{Date: "2024-01-05", Amount: 12.5, Category: "food"})
		mustAdd(t, s, core.Expense{Date: "2024-01-20", Amount: 7.5, Category: "food"})
		mustAdd(t, s, core.Expense{Date: "2024-01-10", Amount: 30, Category: "books"})
		mustAdd(t, s, core.Expense{Date: "2024-02-01", Amount: 99, Category: "travel"})

		got, err := s.Summarize(ctx, "2024-01-01", "2024-01-31", "")
		if err != nil {
			t.Fatalf("Summarize failed: %v", err)
		}
		want := []core.CategoryTotal{{Category: "books", TotalAmount: 30}, {Category: "food", TotalAmount: 20}}
		assertTotals(t, got, want)

		got, err = s.Summarize(ctx, "2024-01-01", "2024-01-31", "food")
		if err != nil {
			t.Fatalf("Summarize failed: %v", err)
		}
		assertTotals(t, got, []core.CategoryTotal{{Category: "food", TotalAmount: 20}})

		got, err = s.Summarize(ctx, "2024-01-01", "2024-01-31", "travel")
		if err != nil {
			t.Fatalf("Summarize failed: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("Summarize() = %#v, want empty non-nil slice", got)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}

func mustAdd(t *testing.T, s storage.Store, e core.Expense) int64 {
	t.Helper()
	id, err := s.Add(context.Background(), e)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	return id
}

func assertIDs(t *testing.T, got []core.Expense, want ...int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("record %d id = %d, want %d", i, got[i].ID, want[i])
		}
	}
}

func assertTotals(t *testing.T, got, want []core.CategoryTotal) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d totals, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Category != want[i].Category {
			t.Errorf("total %d category = %q, want %q", i, got[i].Category, want[i].Category)
		}
		if math.Abs(got[i].TotalAmount-want[i].TotalAmount) > 1e-9 {
			t.Errorf("total %d amount = %v, want %v", i, got[i].TotalAmount, want[i].TotalAmount)
		}
	}
}
