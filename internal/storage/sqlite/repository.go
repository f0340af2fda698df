// Package sqlite is the default expense store: a single SQLite file holding
// the expenses table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"

	_ "modernc.org/sqlite"
)

const selectColumns = "SELECT id, date, amount, category, subcategory, note FROM expenses"

type Repository struct {
	db *sql.DB
}

var _ storage.Store = (*Repository)(nil)

// New opens the database at dbPath, creating the file and its directory when
// missing, and initializes the schema.
func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func dsn(dbPath string) string {
	return "file:" + dbPath + "?" + url.Values{"_pragma": {"busy_timeout(5000)"}}.Encode()
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withConn runs fn on a dedicated connection that is returned to the pool on
// every exit path.
func (r *Repository) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

func (r *Repository) Add(ctx context.Context, e core.Expense) (int64, error) {
	var id int64
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			"INSERT INTO expenses(date, amount, category, subcategory, note) VALUES (?,?,?,?,?)",
			e.Date, e.Amount, e.Category, e.Subcategory, e.Note)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read inserted id: %w", err)
		}
		return nil
	})
	return id, err
}

func (r *Repository) List(ctx context.Context, startDate, endDate string) ([]core.Expense, error) {
	var out []core.Expense
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			selectColumns+" WHERE date BETWEEN ? AND ? ORDER BY id ASC",
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
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete expense %d: %w", id, err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("read affected rows: %w", err)
		}
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
	for _, a := range assignments {
		sets = append(sets, a.Column+" = ?")
		args = append(args, a.Value)
	}
	args = append(args, id)
	query := "UPDATE expenses SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	var n int64
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update expense %d: %w", id, err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("read affected rows: %w", err)
		}
		if n == 0 {
			return &core.NotFoundError{ID: id}
		}
		return nil
	})
	return n, err
}

func (r *Repository) Get(ctx context.Context, id int64) (core.Expense, error) {
	var e core.Expense
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
		var err error
		e, err = scanExpense(row)
		if errors.Is(err, sql.ErrNoRows) {
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
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.Subcategory != "" {
		query += " AND subcategory = ?"
		args = append(args, f.Subcategory)
	}
	query += " ORDER BY date ASC, id ASC"

	var out []core.Expense
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("filter expenses: %w", err)
		}
		out, err = scanExpenses(rows)
		return err
	})
	return out, err
}

func (r *Repository) Summarize(ctx context.Context, startDate, endDate, category string) ([]core.CategoryTotal, error) {
	query := "SELECT category, SUM(amount) AS total_amount FROM expenses WHERE date BETWEEN ? AND ?"
	args := []any{startDate, endDate}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " GROUP BY category ORDER BY category ASC"

	out := make([]core.CategoryTotal, 0)
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e                 core.Expense
		subcategory, note sql.NullString
	)
	if err := s.Scan(&e.ID, &e.Date, &e.Amount, &e.Category, &subcategory, &note); err != nil {
		return core.Expense{}, err
	}
	e.Subcategory = subcategory.String
	e.Note = note.String
	return e, nil
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense rows: %w", err)
	}
	return out, nil
}
