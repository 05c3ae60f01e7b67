package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of an investment transaction.
type TransactionType string

const (
	Deposit    TransactionType = "deposit"
	Withdrawal TransactionType = "withdrawal"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == Deposit || t == Withdrawal
}

type (
	// Bank holds investment accounts in a home currency.
	Bank struct {
		ID       int64    `json:"id"`
		Name     string   `json:"name"`
		Currency Currency `json:"currency"`
	}

	// InvestmentTransaction is a deposit into or withdrawal from a bank.
	// Amount carries the sign: deposits are stored positive, withdrawals
	// negative.
	InvestmentTransaction struct {
		ID       int64           `json:"id"`
		Owner    string          `json:"owner"`
		BankID   int64           `json:"bank_id"`
		BankName string          `json:"bank_name,omitempty"`
		Amount   decimal.Decimal `json:"amount"`
		Currency Currency        `json:"currency"`
		Date     Date            `json:"date"`
		Note     string          `json:"note,omitempty"`
		Type     TransactionType `json:"type"`
	}
)

func (b Bank) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return NewValidationError("name", "bank name is required")
	}
	if !b.Currency.Valid() {
		return NewValidationError("currency", "unsupported currency %q", b.Currency)
	}
	return nil
}

func (t InvestmentTransaction) Validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return NewValidationError("owner", "owner is required")
	}
	if t.BankID <= 0 {
		return NewValidationError("bank_id", "bank is required")
	}
	if !t.Currency.Valid() {
		return NewValidationError("currency", "unsupported currency %q", t.Currency)
	}
	if !t.Type.Valid() {
		return NewValidationError("type", "unsupported transaction type %q", t.Type)
	}
	return nil
}

// Normalize sets the sign of Amount from Type. It assigns the sign rather
// than flipping it, so normalizing an already stored withdrawal is a no-op.
func (t *InvestmentTransaction) Normalize() {
	if t.Type == Withdrawal {
		t.Amount = t.Amount.Abs().Neg()
		return
	}
	t.Amount = t.Amount.Abs()
}
