// Package storage defines the contract every expense store implements.
// Concrete stores live in the sqlite, postgres and memory subpackages.
package storage

import (
	"context"

	"expensetracker/internal/core"
)

// Store persists expense records. Each call is one committed unit of work.
//
// Delete, Update and Get return a *core.NotFoundError when no row has the
// given id. Update returns core.ErrNoFieldsToUpdate when u sets no field; the
// update policy has already been applied by the caller. List and Filter
// return an empty, non-nil slice when nothing matches.
type Store interface {
	Add(ctx context.Context, e core.Expense) (int64, error)
	List(ctx context.Context, startDate, endDate string) ([]core.Expense, error)
	Delete(ctx context.Context, id int64) (int64, error)
	Update(ctx context.Context, id int64, u core.ExpenseUpdate) (int64, error)
	Get(ctx context.Context, id int64) (core.Expense, error)
	Filter(ctx context.Context, f core.Filter) ([]core.Expense, error)
	Summarize(ctx context.Context, startDate, endDate, category string) ([]core.CategoryTotal, error)

	Ping(ctx context.Context) error
	Close() error
}

// Assignment is one "column = value" pair of a partial update, in column
// order date, amount, category, subcategory, note.
type Assignment struct {
	Column string
	Value  any
}

// Assignments lists the columns u sets. SQL stores build their SET clause
// from it.
func Assignments(u core.ExpenseUpdate) []Assignment {
	var out []Assignment
	if v, ok := u.Date.Get(); ok {
		out = append(out, Assignment{"date", v})
	}
	if v, ok := u.Amount.Get(); ok {
		out = append(out, Assignment{"amount", v})
	}
	if v, ok := u.Category.Get(); ok {
		out = append(out, Assignment{"category", v})
	}
	if v, ok := u.Subcategory.Get(); ok {
		out = append(out, Assignment{"subcategory", v})
	}
	if v, ok := u.Note.Get(); ok {
		out = append(out, Assignment{"note", v})
	}
	return out
}
