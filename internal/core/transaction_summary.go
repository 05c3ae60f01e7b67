package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

type (
	// TransactionLine is the net position of one user at one bank in one
	// currency.
	TransactionLine struct {
		User        string          `json:"user"`
		Bank        string          `json:"bank"`
		Currency    Currency        `json:"currency"`
		Total       decimal.Decimal `json:"total"`
		TotalInBase decimal.Decimal `json:"total_in_base"`
		RateKnown   bool            `json:"rate_known"`
	}

	// TransactionSummary is the per-bank breakdown plus the grand total in
	// the base currency.
	TransactionSummary struct {
		Lines      []TransactionLine `json:"lines"`
		GrandTotal decimal.Decimal   `json:"grand_total"`
	}
)

// UnknownCurrencies lists the currencies that were converted at the identity
// rate because the table had no entry for them.
func (s TransactionSummary) UnknownCurrencies() []Currency {
	seen := make(map[Currency]bool)
	var out []Currency
	for _, l := range s.Lines {
		if !l.RateKnown && !seen[l.Currency] {
			seen[l.Currency] = true
			out = append(out, l.Currency)
		}
	}
	return out
}

// SummarizeTransactions nets signed amounts per user, bank and currency and
// converts each total to the base currency with table. A currency missing
// from the table converts at 1 instead of failing the report.
func SummarizeTransactions(txs []InvestmentTransaction, table ExchangeTable) TransactionSummary {
	type key struct {
		user     string
		bank     string
		currency Currency
	}
	idx := make(map[key]int)
	var lines []TransactionLine

	for _, t := range txs {
		bank := t.BankName
		k := key{user: t.Owner, bank: bank, currency: t.Currency}
		if i, ok := idx[k]; ok {
			lines[i].Total = lines[i].Total.Add(t.Amount)
			continue
		}
		idx[k] = len(lines)
		lines = append(lines, TransactionLine{
			User:     t.Owner,
			Bank:     bank,
			Currency: t.Currency,
			Total:    t.Amount,
		})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.User != b.User {
			return a.User < b.User
		}
		if a.Bank != b.Bank {
			return a.Bank < b.Bank
		}
		return a.Currency < b.Currency
	})

	summary := TransactionSummary{Lines: lines, GrandTotal: decimal.Zero}
	for i := range summary.Lines {
		l := &summary.Lines[i]
		l.Total = Round2(l.Total)
		l.TotalInBase, l.RateKnown = table.Convert(l.Total, l.Currency)
		l.TotalInBase = Round2(l.TotalInBase)
		summary.GrandTotal = summary.GrandTotal.Add(l.TotalInBase)
	}
	summary.GrandTotal = Round2(summary.GrandTotal)
	if summary.Lines == nil {
		summary.Lines = []TransactionLine{}
	}
	return summary
}
