package sheets

import (
	"context"

	"budget/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportWriter publishes the reports to an external spreadsheet. Each
	// call replaces what was written before.
	ReportWriter interface {
		WriteIncomeSummary(ctx context.Context, periods []core.PeriodSummary) (rangeRef string, err error)
		WriteTransactions(ctx context.Context, txs []core.InvestmentTransaction, summary core.TransactionSummary) (rangeRef string, err error)
	}
)
