package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// BaseConversion is present on currency lines that are not in the base
	// currency.
	BaseConversion struct {
		Rate          decimal.Decimal `json:"rate"`
		TotalInBase   decimal.Decimal `json:"total_in_base"`
		PayableTax    decimal.Decimal `json:"payable_tax"`
		RateFromTable bool            `json:"rate_from_table,omitempty"`
	}

	// CurrencyLine is the take-home total of one group of records sharing
	// owner, month, currency, exchange rate and tax settings.
	CurrencyLine struct {
		Currency Currency        `json:"currency"`
		Total    decimal.Decimal `json:"total"`
		Base     *BaseConversion `json:"base,omitempty"`
	}

	// UserSummary rolls up one user's currency lines for a month.
	UserSummary struct {
		User            string          `json:"user"`
		Lines           []CurrencyLine  `json:"incomes"`
		TotalIncome     decimal.Decimal `json:"total_income"`
		TotalPayableTax decimal.Decimal `json:"total_payable_tax"`
	}

	// PeriodSummary rolls up every user for one year and month.
	PeriodSummary struct {
		Year            int             `json:"year"`
		Month           int             `json:"month"`
		MonthName       string          `json:"month_name"`
		Users           []UserSummary   `json:"users"`
		TotalIncome     decimal.Decimal `json:"total_income"`
		TotalPayableTax decimal.Decimal `json:"total_payable_tax"`
	}
)

// InBase returns the line total expressed in the base currency.
func (l CurrencyLine) InBase() decimal.Decimal {
	if l.Base != nil {
		return l.Base.TotalInBase
	}
	return l.Total
}

// PayableTax returns the unpaid tax carried by the line, zero for base
// currency lines.
func (l CurrencyLine) PayableTax() decimal.Decimal {
	if l.Base != nil {
		return l.Base.PayableTax
	}
	return decimal.Zero
}

type incomeGroup struct {
	owner    string
	year     int
	month    int
	currency Currency
	rate     *decimal.Decimal
	tax      decimal.Decimal
	taxPaid  bool
	total    decimal.Decimal
}

type incomeGroupKey struct {
	owner    string
	year     int
	month    int
	currency Currency
	rate     string
	tax      string
	taxPaid  bool
}

// SummarizeIncome groups records by owner, month and currency and nests the
// resulting lines by month and user. Callers pass non-template records only.
// Non-base lines are converted with the record's own exchange rate; table is
// consulted only for records that carry none.
func SummarizeIncome(records []IncomeRecord, table ExchangeTable) []PeriodSummary {
	groups := groupIncome(records)

	var periods []PeriodSummary
	periodIdx := make(map[[2]int]int)

	for _, g := range groups {
		pk := [2]int{g.year, g.month}
		pi, ok := periodIdx[pk]
		if !ok {
			periods = append(periods, PeriodSummary{
				Year:      g.year,
				Month:     g.month,
				MonthName: time.Month(g.month).String(),
			})
			pi = len(periods) - 1
			periodIdx[pk] = pi
		}
		period := &periods[pi]

		ui := -1
		for i := range period.Users {
			if period.Users[i].User == g.owner {
				ui = i
				break
			}
		}
		if ui < 0 {
			period.Users = append(period.Users, UserSummary{User: g.owner})
			ui = len(period.Users) - 1
		}

		period.Users[ui].Lines = append(period.Users[ui].Lines, currencyLine(g, table))
	}

	for pi := range periods {
		p := &periods[pi]
		p.TotalIncome = decimal.Zero
		p.TotalPayableTax = decimal.Zero
		for ui := range p.Users {
			u := &p.Users[ui]
			income, tax := decimal.Zero, decimal.Zero
			for _, l := range u.Lines {
				income = income.Add(l.InBase())
				tax = tax.Add(l.PayableTax())
			}
			u.TotalIncome = Round2(income)
			u.TotalPayableTax = Round2(tax)
			p.TotalIncome = p.TotalIncome.Add(u.TotalIncome)
			p.TotalPayableTax = p.TotalPayableTax.Add(u.TotalPayableTax)
		}
		p.TotalIncome = Round2(p.TotalIncome)
		p.TotalPayableTax = Round2(p.TotalPayableTax)
	}

	return periods
}

func currencyLine(g incomeGroup, table ExchangeTable) CurrencyLine {
	line := CurrencyLine{Currency: g.currency, Total: Round2(g.total)}
	if g.currency.IsBase() {
		return line
	}

	conv := &BaseConversion{PayableTax: decimal.Zero}
	if g.rate != nil {
		conv.Rate = *g.rate
	} else {
		conv.Rate, _ = table.Rate(g.currency)
		conv.RateFromTable = true
	}
	conv.TotalInBase = Round2(line.Total.Mul(conv.Rate))
	if !g.taxPaid {
		conv.PayableTax = Round2(g.tax)
	}
	line.Base = conv
	return line
}

// groupIncome sums take-home pay per grouping key and returns the groups in
// owner, year, month, currency order.
func groupIncome(records []IncomeRecord) []incomeGroup {
	idx := make(map[incomeGroupKey]int)
	var groups []incomeGroup

	for _, r := range records {
		if r.Date.IsEmpty() {
			continue
		}
		key := incomeGroupKey{
			owner:    r.Owner,
			year:     r.Date.Year(),
			month:    r.Date.Month(),
			currency: r.Currency,
			tax:      r.Tax.String(),
			taxPaid:  r.IsTaxPaid,
		}
		if r.ExchangeRate != nil {
			key.rate = r.ExchangeRate.String()
		}

		if i, ok := idx[key]; ok {
			groups[i].total = groups[i].total.Add(r.TakeHome)
			continue
		}
		idx[key] = len(groups)
		groups = append(groups, incomeGroup{
			owner:    r.Owner,
			year:     key.year,
			month:    key.month,
			currency: r.Currency,
			rate:     r.ExchangeRate,
			tax:      r.Tax,
			taxPaid:  r.IsTaxPaid,
			total:    r.TakeHome,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.owner != b.owner {
			return a.owner < b.owner
		}
		if a.year != b.year {
			return a.year < b.year
		}
		if a.month != b.month {
			return a.month < b.month
		}
		if a.currency != b.currency {
			return a.currency < b.currency
		}
		if c := compareRate(a.rate, b.rate); c != 0 {
			return c < 0
		}
		if c := a.tax.Cmp(b.tax); c != 0 {
			return c < 0
		}
		return !a.taxPaid && b.taxPaid
	})
	return groups
}

func compareRate(a, b *decimal.Decimal) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Cmp(*b)
}
