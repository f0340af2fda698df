// Package postgres stores expenses in PostgreSQL through a pgx pool. Text
// columns compared by range or sort use the "C" collation so ordering matches
// plain byte comparison.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

const selectColumns = "SELECT id, date, amount, category, COALESCE(subcategory, ''), COALESCE(note, '') FROM expenses"

type Repository struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Repository)(nil)

// New connects to databaseURL and initializes the schema.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) withConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	return fn(conn)
}

func (r *Repository) Add(ctx context.Context, e core.Expense) (int64, error) {
	var id int64
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		err := conn.QueryRow(ctx,
			"INSERT INTO expenses(date, amount, category, subcategory, note) VALUES ($1, $2, $3, $4, $5) RETURNING id",
			e.Date, e.Amount, e.Category, e.Subcategory, e.Note).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		return nil
	})
	return id, err
}

func (r *Repository) List(ctx context.Context, startDate, endDate string) ([]core.Expense, error) {
	var out []core.Expense
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx,
			selectColumns+" WHERE date BETWEEN $1 AND $2 ORDER BY id ASC",
			startDate, endDate)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		out, err = scanExpenses(rows)
		return err
	})
	return out, err
}

func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, "DELETE FROM expenses WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete expense %d: %w", id, err)
		}
		n = tag.RowsAffected()
		if n == 0 {
			return &core.NotFoundError{ID: id}
		}
		return nil
	})
	return n, err
}

func (r *Repository) Update(ctx context.Context, id int64, u core.ExpenseUpdate) (int64, error) {
	assignments := storage.Assignments(u)
	if len(assignments) == 0 {
		return 0, core.ErrNoFieldsToUpdate
	}

	sets := make([]string, 0, len(assignments))
	args := make([]any, 0, len(assignments)+1)
	for i, a := range assignments {
		sets = append(sets, a.Column+" = $"+strconv.Itoa(i+1))
		args = append(args, a.Value)
	}
	args = append(args, id)
	query := "UPDATE expenses SET " + strings.Join(sets, ", ") + " WHERE id = $" + strconv.Itoa(len(args))

	var n int64
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update expense %d: %w", id, err)
		}
		n = tag.RowsAffected()
		if n == 0 {
			return &core.NotFoundError{ID: id}
		}
		return nil
	})
	return n, err
}

func (r *Repository) Get(ctx context.Context, id int64) (core.Expense, error) {
	var e core.Expense
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		err := conn.QueryRow(ctx, selectColumns+" WHERE id = $1", id).
			Scan(&e.ID, &e.Date, &e.Amount, &e.Category, &e.Subcategory, &e.Note)
		if errors.Is(err, pgx.ErrNoRows) {
			return &core.NotFoundError{ID: id}
		}
		if err != nil {
			return fmt.Errorf("get expense %d: %w", id, err)
		}
		return nil
	})
	return e, err
}

func (r *Repository) Filter(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	query := selectColumns + " WHERE 1=1"
	var args []any
	if f.Category != "" {
		args = append(args, f.Category)
		query += " AND category = $" + strconv.Itoa(len(args))
	}
	if f.Subcategory != "" {
		args = append(args, f.Subcategory)
		query += " AND subcategory = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY date ASC, id ASC"

	var out []core.Expense
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("filter expenses: %w", err)
		}
		out, err = scanExpenses(rows)
		return err
	})
	return out, err
}

func (r *Repository) Summarize(ctx context.Context, startDate, endDate, category string) ([]core.CategoryTotal, error) {
	query := "SELECT category, SUM(amount) AS total_amount FROM expenses WHERE date BETWEEN $1 AND $2"
	args := []any{startDate, endDate}
	if category != "" {
		query += " AND category = $3"
		args = append(args, category)
	}
	query += " GROUP BY category ORDER BY category ASC"

	out := make([]core.CategoryTotal, 0)
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("summarize expenses: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var t core.CategoryTotal
			if err := rows.Scan(&t.Category, &t.TotalAmount); err != nil {
				return fmt.Errorf("scan summary row: %w", err)
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	return out, err
}

func scanExpenses(rows pgx.Rows) ([]core.Expense, error) {
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Amount, &e.Category, &e.Subcategory, &e.Note); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense rows: %w", err)
	}
	return out, nil
}
