package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func income(owner string, y, m int, c Currency, takeHome string) IncomeRecord {
	return IncomeRecord{
		Owner:    owner,
		Currency: c,
		Date:     NewDate(y, m, 1),
		Type:     Salary,
		TakeHome: dec(takeHome),
		Tax:      dec("0"),
	}
}

func TestSummarizeIncomeGroupsSameKey(t *testing.T) {
	records := []IncomeRecord{
		income("u1", 2024, 3, LKR, "100"),
		income("u1", 2024, 3, LKR, "50"),
	}
	periods := SummarizeIncome(records, DefaultExchangeTable())

	require.Len(t, periods, 1)
	require.Len(t, periods[0].Users, 1)
	lines := periods[0].Users[0].Lines
	require.Len(t, lines, 1)
	assertDec(t, "150", lines[0].Total)
	assert.Nil(t, lines[0].Base)
	assertDec(t, "150", periods[0].TotalIncome)
	assert.Equal(t, "March", periods[0].MonthName)
}

func TestSummarizeIncomeConvertsForeignLines(t *testing.T) {
	r := income("u1", 2024, 3, EUR, "100")
	r.ExchangeRate = ratePtr("344.9")
	r.Tax = dec("12.5")

	periods := SummarizeIncome([]IncomeRecord{r}, DefaultExchangeTable())
	require.Len(t, periods, 1)
	line := periods[0].Users[0].Lines[0]
	require.NotNil(t, line.Base)
	assert.Equal(t, "34490.00", line.Base.TotalInBase.StringFixed(2))
	assertDec(t, "12.5", line.Base.PayableTax)
	assert.False(t, line.Base.RateFromTable)
	assertDec(t, "34490", periods[0].Users[0].TotalIncome)
	assertDec(t, "12.5", periods[0].TotalPayableTax)
}

func TestSummarizeIncomePaidTaxIsNotPayable(t *testing.T) {
	r := income("u1", 2024, 3, AUD, "10")
	r.ExchangeRate = ratePtr("200")
	r.Tax = dec("3")
	r.IsTaxPaid = true

	periods := SummarizeIncome([]IncomeRecord{r}, DefaultExchangeTable())
	line := periods[0].Users[0].Lines[0]
	assert.True(t, line.PayableTax().IsZero())
	assertDec(t, "2000", line.InBase())
}

func TestSummarizeIncomeFallsBackToTableRate(t *testing.T) {
	r := income("u1", 2024, 3, AUD, "10")

	periods := SummarizeIncome([]IncomeRecord{r}, DefaultExchangeTable())
	line := periods[0].Users[0].Lines[0]
	require.NotNil(t, line.Base)
	assert.True(t, line.Base.RateFromTable)
	assertDec(t, "1917", line.Base.TotalInBase)
}

func TestSummarizeIncomeSeparatesDistinctRates(t *testing.T) {
	a := income("u1", 2024, 3, EUR, "100")
	a.ExchangeRate = ratePtr("300")
	b := income("u1", 2024, 3, EUR, "100")
	b.ExchangeRate = ratePtr("350")
	c := income("u1", 2024, 3, EUR, "1")
	c.ExchangeRate = ratePtr("300.00")

	periods := SummarizeIncome([]IncomeRecord{a, b, c}, DefaultExchangeTable())
	lines := periods[0].Users[0].Lines
	require.Len(t, lines, 2)
	assertDec(t, "101", lines[0].Total)
	assertDec(t, "100", lines[1].Total)
	assertDec(t, "65300", periods[0].TotalIncome)
}

func TestSummarizeIncomeNesting(t *testing.T) {
	records := []IncomeRecord{
		income("u2", 2024, 3, LKR, "5"),
		income("u1", 2024, 4, LKR, "7"),
		income("u1", 2024, 3, LKR, "1"),
		income("u1", 2024, 3, EUR, "2"),
		{Owner: "u1", Currency: LKR, IsTemplate: true, TakeHome: dec("999")},
	}
	records[3].ExchangeRate = ratePtr("10")

	periods := SummarizeIncome(records, DefaultExchangeTable())
	require.Len(t, periods, 2)

	// u1 sorts first, so its March group opens the first period.
	assert.Equal(t, 3, periods[0].Month)
	assert.Equal(t, 4, periods[1].Month)

	march := periods[0]
	require.Len(t, march.Users, 2)
	assert.Equal(t, "u1", march.Users[0].User)
	assert.Equal(t, "u2", march.Users[1].User)
	require.Len(t, march.Users[0].Lines, 2)
	assert.Equal(t, EUR, march.Users[0].Lines[0].Currency)
	assert.Equal(t, LKR, march.Users[0].Lines[1].Currency)
	assertDec(t, "21", march.Users[0].TotalIncome)
	assertDec(t, "26", march.TotalIncome)
}

func TestSummarizeIncomeEmpty(t *testing.T) {
	assert.Empty(t, SummarizeIncome(nil, DefaultExchangeTable()))
}
