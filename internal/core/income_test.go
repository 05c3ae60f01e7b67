package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratePtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestIncomeRecordValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*IncomeRecord)
		field  string
	}{
		{"valid", func(*IncomeRecord) {}, ""},
		{"missing owner", func(r *IncomeRecord) { r.Owner = " " }, "owner"},
		{"missing source", func(r *IncomeRecord) { r.SourceID = 0 }, "source_id"},
		{"bad currency", func(r *IncomeRecord) { r.Currency = "GBP" }, "currency"},
		{"bad type", func(r *IncomeRecord) { r.Type = "Gift" }, "type"},
		{"missing date", func(r *IncomeRecord) { r.Date = Date{} }, "date"},
		{"template without date", func(r *IncomeRecord) {
			r.Date = Date{}
			r.IsTemplate = true
		}, ""},
		{"foreign without rate", func(r *IncomeRecord) { r.Currency = EUR }, "exchange_rate"},
		{"foreign with zero rate", func(r *IncomeRecord) {
			r.Currency = EUR
			r.ExchangeRate = ratePtr("0")
		}, "exchange_rate"},
		{"foreign with rate", func(r *IncomeRecord) {
			r.Currency = EUR
			r.ExchangeRate = ratePtr("344.9")
		}, ""},
		{"foreign template without rate", func(r *IncomeRecord) {
			r.Currency = AUD
			r.IsTemplate = true
		}, ""},
		{"negative basic", func(r *IncomeRecord) { r.BasicAmount = dec("-1") }, "basic_amount"},
		{"negative tax", func(r *IncomeRecord) { r.Tax = dec("-0.01") }, "tax"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := salaryRecord()
			tc.mutate(&r)
			err := r.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestExchangeRateMessage(t *testing.T) {
	r := salaryRecord()
	r.Currency = EUR
	err := r.Validate()
	require.Error(t, err)
	assert.True(t, strings.HasSuffix(err.Error(), "Exchange rate must be a positive number for non-LKR currencies."))
}

func TestIncomeRecordLabel(t *testing.T) {
	r := salaryRecord()
	r.SourceName = "Acme"
	assert.Equal(t, "Acme(LKR) - Salary", r.Label())

	r.SourceName = ""
	r.SourceID = 7
	assert.Equal(t, "source #7(LKR) - Salary", r.Label())
}

func TestSourceValidate(t *testing.T) {
	assert.NoError(t, Source{Name: "Acme"}.Validate())
	assert.Error(t, Source{Name: ""}.Validate())
	assert.Error(t, Source{Name: strings.Repeat("x", 101)}.Validate())
}
