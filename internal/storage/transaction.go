package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"budget/internal/core"
	"budget/internal/ports"
)

const transactionSelect = `SELECT t.id, t.owner, t.bank_id, b.name, t.amount, t.currency, t.date, t.note, t.type
	FROM investment_transactions t JOIN banks b ON b.id = t.bank_id`

func scanTransaction(row rowScanner) (core.InvestmentTransaction, error) {
	var (
		t        core.InvestmentTransaction
		currency string
		typ      string
		date     sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Owner, &t.BankID, &t.BankName, &t.Amount, &currency, &date, &t.Note, &typ); err != nil {
		return core.InvestmentTransaction{}, err
	}
	t.Currency = core.Currency(currency)
	t.Type = core.TransactionType(typ)
	var err error
	if t.Date, err = scanDate(date); err != nil {
		return core.InvestmentTransaction{}, fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	return t, nil
}

func (r *SQLiteRepository) checkBank(ctx context.Context, id int64) error {
	if _, err := r.GetBank(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NewValidationError("bank_id", "unknown bank %d", id)
		}
		return fmt.Errorf("get bank: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.InvestmentTransaction) (core.InvestmentTransaction, error) {
	if err := r.checkBank(ctx, t.BankID); err != nil {
		return core.InvestmentTransaction{}, err
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO investment_transactions
		(owner, bank_id, amount, currency, date, note, type) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Owner, t.BankID, t.Amount, string(t.Currency), t.Date.String(), t.Note, string(t.Type))
	if err != nil {
		return core.InvestmentTransaction{}, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.InvestmentTransaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return r.GetTransaction(ctx, id)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.InvestmentTransaction) (core.InvestmentTransaction, error) {
	if err := r.checkBank(ctx, t.BankID); err != nil {
		return core.InvestmentTransaction{}, err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE investment_transactions SET
		owner = ?, bank_id = ?, amount = ?, currency = ?, date = ?, note = ?, type = ?
	WHERE id = ?`,
		t.Owner, t.BankID, t.Amount, string(t.Currency), t.Date.String(), t.Note, string(t.Type), t.ID)
	if err != nil {
		return core.InvestmentTransaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.InvestmentTransaction{}, core.ErrNotFound
	}
	return r.GetTransaction(ctx, t.ID)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.InvestmentTransaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, transactionSelect+` WHERE t.id = ?`, id))
	if err != nil {
		return core.InvestmentTransaction{}, notFound(err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f ports.TransactionFilter) ([]core.InvestmentTransaction, error) {
	var (
		where []string
		args  []any
	)
	if f.Owner != "" {
		where = append(where, "t.owner = ?")
		args = append(args, f.Owner)
	}
	if f.BankID != 0 {
		where = append(where, "t.bank_id = ?")
		args = append(args, f.BankID)
	}
	if f.Currency != "" {
		where = append(where, "t.currency = ?")
		args = append(args, string(f.Currency))
	}
	if f.Type != "" {
		where = append(where, "t.type = ?")
		args = append(args, string(f.Type))
	}

	q := transactionSelect
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY t.date DESC, t.id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.InvestmentTransaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
