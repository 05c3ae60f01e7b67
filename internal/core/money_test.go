package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"1 000.5", "1000.5", true},
		{"1'000", "1000", true},
		{"-12.5", "-12.5", true},
		{"+3", "3", true},
		{"", "0", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{".", "", false},
		{"-", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tc.out).Equal(got), "got %s", got)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, "2.12", Round2(dec("2.125")).StringFixed(2))
	assert.Equal(t, "2.14", Round2(dec("2.135")).StringFixed(2))
	assert.Equal(t, "34490.00", Round2(dec("344.9").Mul(dec("100"))).StringFixed(2))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "LKR 8,700.00", FormatMoney(dec("8700"), LKR))
	assert.Equal(t, "EUR 1,234,567.89", FormatMoney(dec("1234567.891"), EUR))
	assert.Equal(t, "-12.50", FormatMoney(dec("-12.5"), ""))
	assert.Equal(t, "LKR 0.00", FormatMoney(decimal.Zero, LKR))
}
