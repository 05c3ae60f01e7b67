// Package sheets lays the reports out as rows and columns. The same tables
// back the Google Sheets export and the XLSX downloads.
package sheets

import (
	"strconv"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// Table is a header row followed by data rows. Amount cells hold
// decimal.Decimal values; each writer decides how to render them.
type Table struct {
	Title  string
	Header []string
	Rows   [][]any
}

// Values returns the header followed by the rows.
func (t Table) Values() [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	out = append(out, header)
	return append(out, t.Rows...)
}

// Width is the number of columns of the widest row.
func (t Table) Width() int {
	w := len(t.Header)
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// IncomeSummaryTable flattens the nested income summary: one row per
// currency line, a total row per user and a total row per period.
func IncomeSummaryTable(periods []core.PeriodSummary) Table {
	t := Table{
		Title: "Income Summary",
		Header: []string{"Period", "User", "Currency", "Total", "Rate",
			"Total (" + string(core.BaseCurrency) + ")", "Payable Tax"},
	}
	for _, p := range periods {
		period := strconv.Itoa(p.Year) + " " + p.MonthName
		for _, u := range p.Users {
			for _, l := range u.Lines {
				rate := any("")
				if l.Base != nil {
					rate = l.Base.Rate
				}
				t.Rows = append(t.Rows, []any{period, u.User, string(l.Currency), l.Total, rate, l.InBase(), l.PayableTax()})
			}
			t.Rows = append(t.Rows, []any{period, u.User, "Total", "", "", u.TotalIncome, u.TotalPayableTax})
		}
		t.Rows = append(t.Rows, []any{period, "All users", "Total", "", "", p.TotalIncome, p.TotalPayableTax})
	}
	return t
}

// TransactionsTable lists transactions with their signed amounts.
func TransactionsTable(txs []core.InvestmentTransaction) Table {
	t := Table{
		Title:  "Transactions",
		Header: []string{"Date", "User", "Bank", "Type", "Currency", "Amount", "Note"},
	}
	for _, tx := range txs {
		t.Rows = append(t.Rows, []any{tx.Date.String(), tx.Owner, tx.BankName,
			string(tx.Type), string(tx.Currency), tx.Amount, tx.Note})
	}
	return t
}

// TransactionSummaryTable lists the per user, bank and currency totals
// followed by the grand total in the base currency.
func TransactionSummaryTable(s core.TransactionSummary) Table {
	t := Table{
		Title: "Transaction Summary",
		Header: []string{"User", "Bank", "Currency", "Total",
			"Total (" + string(core.BaseCurrency) + ")", "Rate Known"},
	}
	for _, l := range s.Lines {
		known := "yes"
		if !l.RateKnown {
			known = "no"
		}
		t.Rows = append(t.Rows, []any{l.User, l.Bank, string(l.Currency), l.Total, l.TotalInBase, known})
	}
	t.Rows = append(t.Rows, []any{"Grand Total", "", "", "", s.GrandTotal, ""})
	return t
}

// CellString renders a cell for text based writers. Amounts keep two
// decimals.
func CellString(v any) string {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.StringFixed(core.StoredPlaces)
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case nil:
		return ""
	default:
		return ""
	}
}

// ColumnName converts a 1-based column index to its letter name (1 -> A,
// 27 -> AA).
func ColumnName(n int) string {
	if n < 1 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
