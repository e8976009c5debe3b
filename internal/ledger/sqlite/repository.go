// Package sqlite keeps the ledger in a SQLite database. Rows are returned in
// insertion order, matching the flat file backend.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"expensetracker/internal/core"
	"expensetracker/internal/ledger"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db     *sql.DB
	dbPath string
}

var _ ledger.Store = (*Repository)(nil)

// NewRepository opens the database and applies pending migrations.
func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &Repository{db: db, dbPath: dbPath}
	if err := repo.EnsureExists(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// EnsureExists runs the schema migrations.
func (r *Repository) EnsureExists(context.Context) error {
	if err := RunMigrations(r.dbPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements ledger.Loader
func (r *Repository) Load(ctx context.Context) (core.Ledger, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, amount_cents, description, category FROM expenses ORDER BY id`)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out core.Ledger
	for rows.Next() {
		var (
			id          int64
			date        string
			amountCents int64
			e           core.Expense
			category    string
		)
		if err := rows.Scan(&id, &date, &amountCents, &e.Description, &category); err != nil {
			return core.Ledger{}, fmt.Errorf("scan expense: %w", err)
		}
		d, err := ledger.ParseDate(date)
		if err != nil {
			slog.DebugContext(ctx, "Coerced unparsable date", "id", id, "date", date)
		}
		e.Date = d
		e.Amount = core.Money{Cents: amountCents}
		e.Category = core.Category(category)
		out.Entries = append(out.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return core.Ledger{}, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// Append implements ledger.Appender
func (r *Repository) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, amount_cents, description, category) VALUES (?, ?, ?, ?)`,
		e.Date.String(), e.Amount.Cents, e.Description, string(e.Category))
	if err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("read expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"amount_cents", e.Amount.Cents,
		"category", e.Category,
		"date", e.Date.String())

	return strconv.FormatInt(id, 10), nil
}
