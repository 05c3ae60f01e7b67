package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// IncomeType classifies an income record.
type IncomeType string

const (
	Salary IncomeType = "Salary"
	Bonus  IncomeType = "Bonus"
	Other  IncomeType = "Other"
)

// Valid reports whether t is a known income type.
func (t IncomeType) Valid() bool {
	switch t {
	case Salary, Bonus, Other:
		return true
	}
	return false
}

type (
	// Source is a named income category (employer, client, ...).
	Source struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}

	// IncomeRecord is one income entry. The fund contributions and take-home
	// fields are derived by Recompute and must not be edited directly.
	IncomeRecord struct {
		ID           int64            `json:"id"`
		Owner        string           `json:"owner"`
		SourceID     int64            `json:"source_id"`
		SourceName   string           `json:"source_name,omitempty"`
		Currency     Currency         `json:"currency"`
		ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
		Date         Date             `json:"date"`
		Type         IncomeType       `json:"type"`
		Note         string           `json:"note,omitempty"`
		IsTemplate   bool             `json:"is_template"`

		// Earnings
		BasicAmount         decimal.Decimal `json:"basic_amount"`
		Allowance           decimal.Decimal `json:"allowance"`
		IsAllowanceForFunds bool            `json:"is_allowance_for_funds"`

		// Deductions
		StampDuty       decimal.Decimal `json:"stamp_duty"`
		OtherDeductions decimal.Decimal `json:"other_deductions"`
		Tax             decimal.Decimal `json:"tax"`
		IsTaxPaid       bool            `json:"is_tax_paid"`

		// Derived
		EPFUser     decimal.Decimal `json:"epf_user"`
		EPFEmployer decimal.Decimal `json:"epf_employer"`
		ETFEmployer decimal.Decimal `json:"etf_employer"`
		TakeHome    decimal.Decimal `json:"take_home"`
	}
)

func (s Source) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return NewValidationError("name", "source name is required")
	}
	if len(s.Name) > 100 {
		return NewValidationError("name", "source name too long (max 100 characters)")
	}
	return nil
}

// Label renders the record the way it is shown in selection lists,
// e.g. "Acme(LKR) - Salary".
func (r IncomeRecord) Label() string {
	name := r.SourceName
	if name == "" {
		name = fmt.Sprintf("source #%d", r.SourceID)
	}
	return fmt.Sprintf("%s(%s) - %s", name, r.Currency, r.Type)
}

// Validate checks user-entered fields. It does not look at derived fields.
func (r IncomeRecord) Validate() error {
	if strings.TrimSpace(r.Owner) == "" {
		return NewValidationError("owner", "owner is required")
	}
	if r.SourceID <= 0 {
		return NewValidationError("source_id", "source is required")
	}
	if !r.Currency.Valid() {
		return NewValidationError("currency", "unsupported currency %q", r.Currency)
	}
	if !r.Type.Valid() {
		return NewValidationError("type", "unsupported income type %q", r.Type)
	}
	if !r.Date.IsEmpty() {
		if err := r.Date.Validate(); err != nil {
			return NewValidationError("date", "%v", err)
		}
	} else if !r.IsTemplate {
		return NewValidationError("date", "date is required for non-template records")
	}
	if !r.Currency.IsBase() && !r.IsTemplate {
		if r.ExchangeRate == nil || !r.ExchangeRate.IsPositive() {
			return NewValidationError("exchange_rate",
				"Exchange rate must be a positive number for non-%s currencies.", BaseCurrency)
		}
	}
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"basic_amount", r.BasicAmount},
		{"allowance", r.Allowance},
		{"stamp_duty", r.StampDuty},
		{"other_deductions", r.OtherDeductions},
		{"tax", r.Tax},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return NewValidationError(a.field, "must not be negative")
		}
	}
	return nil
}
