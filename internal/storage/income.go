package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/ports"
)

const incomeColumns = `i.id, i.owner, i.source_id, s.name, i.currency, i.exchange_rate, i.date,
	i.type, i.note, i.is_template, i.basic_amount, i.allowance, i.is_allowance_for_funds,
	i.stamp_duty, i.other_deductions, i.tax, i.is_tax_paid,
	i.epf_user, i.epf_employer, i.etf_employer, i.take_home`

const incomeFrom = ` FROM income_records i JOIN sources s ON s.id = i.source_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncome(row rowScanner) (core.IncomeRecord, error) {
	var (
		r        core.IncomeRecord
		currency string
		typ      string
		rate     decimal.NullDecimal
		date     sql.NullString
	)
	err := row.Scan(&r.ID, &r.Owner, &r.SourceID, &r.SourceName, &currency, &rate, &date,
		&typ, &r.Note, &r.IsTemplate, &r.BasicAmount, &r.Allowance, &r.IsAllowanceForFunds,
		&r.StampDuty, &r.OtherDeductions, &r.Tax, &r.IsTaxPaid,
		&r.EPFUser, &r.EPFEmployer, &r.ETFEmployer, &r.TakeHome)
	if err != nil {
		return core.IncomeRecord{}, err
	}
	r.Currency = core.Currency(currency)
	r.Type = core.IncomeType(typ)
	if rate.Valid {
		d := rate.Decimal
		r.ExchangeRate = &d
	}
	if r.Date, err = scanDate(date); err != nil {
		return core.IncomeRecord{}, fmt.Errorf("income %d: %w", r.ID, err)
	}
	return r, nil
}

func nullRate(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// incomeArgs returns the writable columns in the order used by insert and
// update statements.
func incomeArgs(r core.IncomeRecord) []any {
	return []any{
		r.Owner, r.SourceID, string(r.Currency), nullRate(r.ExchangeRate), nullDate(r.Date),
		string(r.Type), r.Note, r.IsTemplate, r.BasicAmount, r.Allowance, r.IsAllowanceForFunds,
		r.StampDuty, r.OtherDeductions, r.Tax, r.IsTaxPaid,
		r.EPFUser, r.EPFEmployer, r.ETFEmployer, r.TakeHome,
	}
}

// checkSource turns a missing source into a field error.
func (r *SQLiteRepository) checkSource(ctx context.Context, id int64) error {
	if _, err := r.GetSource(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NewValidationError("source_id", "unknown source %d", id)
		}
		return fmt.Errorf("get source: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateIncome(ctx context.Context, rec core.IncomeRecord) (core.IncomeRecord, error) {
	if err := r.checkSource(ctx, rec.SourceID); err != nil {
		return core.IncomeRecord{}, err
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO income_records (
		owner, source_id, currency, exchange_rate, date,
		type, note, is_template, basic_amount, allowance, is_allowance_for_funds,
		stamp_duty, other_deductions, tax, is_tax_paid,
		epf_user, epf_employer, etf_employer, take_home
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, incomeArgs(rec)...)
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("create income record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("create income record: %w", err)
	}

	slog.InfoContext(ctx, "Income record saved to SQLite",
		"id", id,
		"owner", rec.Owner,
		"currency", rec.Currency,
		"is_template", rec.IsTemplate)

	return r.GetIncome(ctx, id)
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, rec core.IncomeRecord) (core.IncomeRecord, error) {
	if err := r.checkSource(ctx, rec.SourceID); err != nil {
		return core.IncomeRecord{}, err
	}
	args := append(incomeArgs(rec), rec.ID)
	res, err := r.db.ExecContext(ctx, `UPDATE income_records SET
		owner = ?, source_id = ?, currency = ?, exchange_rate = ?, date = ?,
		type = ?, note = ?, is_template = ?, basic_amount = ?, allowance = ?, is_allowance_for_funds = ?,
		stamp_duty = ?, other_deductions = ?, tax = ?, is_tax_paid = ?,
		epf_user = ?, epf_employer = ?, etf_employer = ?, take_home = ?,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, args...)
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("update income record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.IncomeRecord{}, core.ErrNotFound
	}
	return r.GetIncome(ctx, rec.ID)
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id int64) (core.IncomeRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+incomeColumns+incomeFrom+` WHERE i.id = ?`, id)
	rec, err := scanIncome(row)
	if err != nil {
		return core.IncomeRecord{}, notFound(err)
	}
	return rec, nil
}

// ListIncomes orders by month descending, then owner and source name. Dates
// are stored as YYYY-MM-DD so the first seven characters sort by month.
func (r *SQLiteRepository) ListIncomes(ctx context.Context, f ports.IncomeFilter) ([]core.IncomeRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.Owner != "" {
		where = append(where, "i.owner = ?")
		args = append(args, f.Owner)
	}
	if f.SourceID != 0 {
		where = append(where, "i.source_id = ?")
		args = append(args, f.SourceID)
	}
	if f.IsTemplate != nil {
		where = append(where, "i.is_template = ?")
		args = append(args, *f.IsTemplate)
	}
	if f.Year != 0 {
		where = append(where, "substr(i.date, 1, 4) = ?")
		args = append(args, fmt.Sprintf("%04d", f.Year))
	}
	if f.Month != 0 {
		where = append(where, "substr(i.date, 6, 2) = ?")
		args = append(args, fmt.Sprintf("%02d", f.Month))
	}

	q := `SELECT ` + incomeColumns + incomeFrom
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY i.date IS NULL, substr(i.date, 1, 7) DESC, i.owner, s.name, i.id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list income records: %w", err)
	}
	defer rows.Close()

	out := []core.IncomeRecord{}
	for rows.Next() {
		rec, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
