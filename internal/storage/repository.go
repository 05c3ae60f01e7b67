// Package storage is the sqlite record store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budget/internal/core"
	"budget/internal/ports"

	_ "modernc.org/sqlite"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the main connection opens the file.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn inside a transaction, rolling back when it fails.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows to core.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

// Sources

func (r *SQLiteRepository) CreateSource(ctx context.Context, s core.Source) (core.Source, error) {
	if err := s.Validate(); err != nil {
		return core.Source{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sources (name, description) VALUES (?, ?)`, s.Name, s.Description)
	if err != nil {
		return core.Source{}, fmt.Errorf("create source: %w", err)
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return core.Source{}, fmt.Errorf("create source: %w", err)
	}
	slog.InfoContext(ctx, "Source saved to SQLite", "id", s.ID, "name", s.Name)
	return s, nil
}

func (r *SQLiteRepository) GetSource(ctx context.Context, id int64) (core.Source, error) {
	var s core.Source
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM sources WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.Description)
	if err != nil {
		return core.Source{}, notFound(err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListSources(ctx context.Context) ([]core.Source, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM sources ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	out := []core.Source{}
	for rows.Next() {
		var s core.Source
		if err := rows.Scan(&s.ID, &s.Name, &s.Description); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Banks

func (r *SQLiteRepository) CreateBank(ctx context.Context, b core.Bank) (core.Bank, error) {
	if err := b.Validate(); err != nil {
		return core.Bank{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO banks (name, currency) VALUES (?, ?)`, b.Name, string(b.Currency))
	if err != nil {
		return core.Bank{}, fmt.Errorf("create bank: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return core.Bank{}, fmt.Errorf("create bank: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBank(ctx context.Context, id int64) (core.Bank, error) {
	var (
		b   core.Bank
		cur string
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, name, currency FROM banks WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &cur)
	if err != nil {
		return core.Bank{}, notFound(err)
	}
	b.Currency = core.Currency(cur)
	return b, nil
}

func (r *SQLiteRepository) ListBanks(ctx context.Context) ([]core.Bank, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, currency FROM banks ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	defer rows.Close()

	out := []core.Bank{}
	for rows.Next() {
		var (
			b   core.Bank
			cur string
		)
		if err := rows.Scan(&b.ID, &b.Name, &cur); err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		b.Currency = core.Currency(cur)
		out = append(out, b)
	}
	return out, rows.Err()
}

// Column helpers

func nullDate(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func scanDate(ns sql.NullString) (core.Date, error) {
	if !ns.Valid || ns.String == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(ns.String)
}
