// Package memory is an in-process expense store for development and tests.
// Contents are lost when the process exits.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

type Store struct {
	mu     sync.Mutex
	lastID int64
	items  map[int64]core.Expense
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[int64]core.Expense)}
}

func (s *Store) Add(_ context.Context, e core.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	e.ID = s.lastID
	s.items[e.ID] = e
	return e.ID, nil
}

func (s *Store) List(_ context.Context, startDate, endDate string) ([]core.Expense, error) {
	out := s.collect(func(e core.Expense) bool {
		return e.Date >= startDate && e.Date <= endDate
	})
	slices.SortFunc(out, byID)
	return out, nil
}

func (s *Store) Delete(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return 0, &core.NotFoundError{ID: id}
	}
	delete(s.items, id)
	return 1, nil
}

func (s *Store) Update(_ context.Context, id int64, u core.ExpenseUpdate) (int64, error) {
	if u.IsEmpty() {
		return 0, core.ErrNoFieldsToUpdate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return 0, &core.NotFoundError{ID: id}
	}
	s.items[id] = u.Apply(e)
	return 1, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, &core.NotFoundError{ID: id}
	}
	return e, nil
}

func (s *Store) Filter(_ context.Context, f core.Filter) ([]core.Expense, error) {
	out := s.collect(func(e core.Expense) bool {
		if f.Category != "" && e.Category != f.Category {
			return false
		}
		if f.Subcategory != "" && e.Subcategory != f.Subcategory {
			return false
		}
		return true
	})
	slices.SortFunc(out, func(a, b core.Expense) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return byID(a, b)
	})
	return out, nil
}

func (s *Store) Summarize(_ context.Context, startDate, endDate, category string) ([]core.CategoryTotal, error) {
	matches := s.collect(func(e core.Expense) bool {
		if e.Date < startDate || e.Date > endDate {
			return false
		}
		return category == "" || e.Category == category
	})
	slices.SortFunc(matches, byID)

	totals := make(map[string]float64)
	for _, e := range matches {
		totals[e.Category] += e.Amount
	}

	out := make([]core.CategoryTotal, 0, len(totals))
	for cat, total := range totals {
		out = append(out, core.CategoryTotal{Category: cat, TotalAmount: total})
	}
	slices.SortFunc(out, func(a, b core.CategoryTotal) int {
		return cmp.Compare(a.Category, b.Category)
	})
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) collect(keep func(core.Expense) bool) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0)
	for _, e := range s.items {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func byID(a, b core.Expense) int {
	return cmp.Compare(a.ID, b.ID)
}
