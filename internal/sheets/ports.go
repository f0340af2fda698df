package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseMirror keeps a copy of each expense keyed by its id.
	ExpenseMirror interface {
		// Upsert writes e, replacing any copy with the same id.
		Upsert(ctx context.Context, e core.Expense) (rowRef string, err error)

		// Remove deletes the copy of id. Removing an id that is not mirrored
		// is not an error.
		Remove(ctx context.Context, id int64) error
	}

	// MirrorLister reports which ids a mirror currently holds.
	MirrorLister interface {
		IDs(ctx context.Context) ([]int64, error)
	}
)
