package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO-like currency code.
type Currency string

const (
	LKR Currency = "LKR"
	EUR Currency = "EUR"
	AUD Currency = "AUD"

	// BaseCurrency is the reporting currency every roll-up converts into.
	BaseCurrency = LKR
)

var currencyNames = map[Currency]string{
	LKR: "Sri Lankan Rupee",
	EUR: "Euro",
	AUD: "Australian Dollar",
}

// Currencies lists the currencies records may be entered in.
func Currencies() []Currency {
	return []Currency{LKR, EUR, AUD}
}

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	_, ok := currencyNames[c]
	return ok
}

// Name returns the human readable currency name.
func (c Currency) Name() string {
	return currencyNames[c]
}

// IsBase reports whether c is the reporting currency.
func (c Currency) IsBase() bool {
	return c == BaseCurrency
}

// ExchangeTable maps a currency to a fixed multiplier into the base currency.
// It is built once at start-up and never mutated afterwards.
type ExchangeTable struct {
	rates map[Currency]decimal.Decimal
}

// NewExchangeTable copies rates into an immutable table. The base currency
// always converts at 1 regardless of what rates says.
func NewExchangeTable(rates map[Currency]decimal.Decimal) ExchangeTable {
	t := ExchangeTable{rates: make(map[Currency]decimal.Decimal, len(rates)+1)}
	for c, r := range rates {
		t.rates[c] = r
	}
	t.rates[BaseCurrency] = decimal.NewFromInt(1)
	return t
}

// DefaultExchangeTable returns the rates shipped with the application.
func DefaultExchangeTable() ExchangeTable {
	return NewExchangeTable(map[Currency]decimal.Decimal{
		EUR: decimal.RequireFromString("344.9"),
		AUD: decimal.RequireFromString("191.7"),
	})
}

// Rate returns the multiplier for c and whether c is present in the table.
// Unknown currencies convert at 1.
func (t ExchangeTable) Rate(c Currency) (decimal.Decimal, bool) {
	if r, ok := t.rates[c]; ok {
		return r, true
	}
	return decimal.NewFromInt(1), false
}

// Convert multiplies amount by the rate for c. The second value is false when
// c was not in the table and the identity rate was used.
func (t ExchangeTable) Convert(amount decimal.Decimal, c Currency) (decimal.Decimal, bool) {
	rate, ok := t.Rate(c)
	return amount.Mul(rate), ok
}

// Rates returns a copy of the table contents.
func (t ExchangeTable) Rates() map[Currency]decimal.Decimal {
	out := make(map[Currency]decimal.Decimal, len(t.rates))
	for c, r := range t.rates {
		out[c] = r
	}
	return out
}

// String renders the table as "AUD=191.7,EUR=344.9,LKR=1".
func (t ExchangeTable) String() string {
	codes := make([]string, 0, len(t.rates))
	for c := range t.rates {
		codes = append(codes, string(c))
	}
	sort.Strings(codes)
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = c + "=" + t.rates[Currency(c)].String()
	}
	return strings.Join(parts, ",")
}

// ParseExchangeRates parses "EUR=344.9,AUD=191.7" into a rate map.
// Every rate must be a positive decimal.
func ParseExchangeRates(s string) (map[Currency]decimal.Decimal, error) {
	rates := make(map[Currency]decimal.Decimal)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid exchange rate entry %q: expected CODE=RATE", pair)
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			return nil, fmt.Errorf("invalid exchange rate entry %q: empty currency code", pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid exchange rate for %s: %w", code, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("invalid exchange rate for %s: must be positive", code)
		}
		rates[Currency(code)] = rate
	}
	return rates, nil
}
