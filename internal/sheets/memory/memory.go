// Package memory is an in-process ExpenseMirror for development and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"
)

var (
	_ ports.ExpenseMirror = (*Mirror)(nil)
	_ ports.MirrorLister  = (*Mirror)(nil)
)

type Mirror struct {
	mu    sync.Mutex
	items map[int64]core.Expense
}

func New() *Mirror {
	return &Mirror{items: make(map[int64]core.Expense)}
}

// Upsert stores the expense and returns a synthetic row reference.
func (m *Mirror) Upsert(_ context.Context, e core.Expense) (string, error) {
	if e.ID <= 0 {
		return "", fmt.Errorf("invalid expense id %d", e.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[e.ID] = e
	return fmt.Sprintf("mem:%d", e.ID), nil
}

func (m *Mirror) Remove(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// IDs returns the mirrored ids in ascending order.
func (m *Mirror) IDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Get returns the mirrored copy of id.
func (m *Mirror) Get(id int64) (core.Expense, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	return e, ok
}

// Len returns the number of mirrored expenses.
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
