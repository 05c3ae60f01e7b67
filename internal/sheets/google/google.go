package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budget/internal/core"
	ports "budget/internal/sheets"
)

const (
	DefaultSummarySheet      = "Summary"
	DefaultTransactionsSheet = "Transactions"
)

// Config names the spreadsheet and the tabs the reports are written to.
type Config struct {
	SpreadsheetID     string
	SummarySheet      string
	TransactionsSheet string
}

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	summarySheet      string
	transactionsSheet string
}

// Ensure interface conformance
var _ ports.ReportWriter = (*Client)(nil)

// New creates a Sheets client. Without opts the service account credentials
// are read from the environment.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	cfg.SpreadsheetID = strings.TrimSpace(cfg.SpreadsheetID)
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(cfg.SummarySheet) == "" {
		cfg.SummarySheet = DefaultSummarySheet
	}
	if strings.TrimSpace(cfg.TransactionsSheet) == "" {
		cfg.TransactionsSheet = DefaultTransactionsSheet
	}
	if cfg.SummarySheet == cfg.TransactionsSheet {
		return nil, fmt.Errorf("summary and transactions sheets must differ (both %q)", cfg.SummarySheet)
	}

	if len(opts) == 0 {
		creds, err := credentialsFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("sheets service: %w", err)
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created successfully",
		"summary_sheet", cfg.SummarySheet,
		"transactions_sheet", cfg.TransactionsSheet)

	return &Client{
		svc:               svc,
		spreadsheetID:     cfg.SpreadsheetID,
		summarySheet:      cfg.SummarySheet,
		transactionsSheet: cfg.TransactionsSheet,
	}, nil
}

// credentialsFromEnv reads service account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func credentialsFromEnv(ctx context.Context) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteIncomeSummary replaces the summary tab with the income summary table.
func (c *Client) WriteIncomeSummary(ctx context.Context, periods []core.PeriodSummary) (string, error) {
	return c.replaceSheet(ctx, c.summarySheet, ports.IncomeSummaryTable(periods))
}

// WriteTransactions replaces the transactions tab with the summary table, a
// blank row, and the transaction list.
func (c *Client) WriteTransactions(ctx context.Context, txs []core.InvestmentTransaction, summary core.TransactionSummary) (string, error) {
	return c.replaceSheet(ctx, c.transactionsSheet,
		ports.TransactionSummaryTable(summary),
		ports.TransactionsTable(txs))
}

func (c *Client) replaceSheet(ctx context.Context, sheet string, tables ...ports.Table) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	values, width := sheetValues(tables)

	clearRange := fmt.Sprintf("%s!A:%s", sheet, ports.ColumnName(max(width, 1)))
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", clearRange, err)
	}

	ref := fmt.Sprintf("%s!A1:%s%d", sheet, ports.ColumnName(max(width, 1)), len(values))
	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", ref, err)
	}
	return ref, nil
}

// sheetValues stacks the tables with a blank row between them. Amounts are
// written as fixed point strings and parsed by the sheet as numbers.
func sheetValues(tables []ports.Table) ([][]any, int) {
	var (
		out   [][]any
		width int
	)
	for i, t := range tables {
		if i > 0 {
			out = append(out, []any{})
		}
		for _, row := range t.Values() {
			cells := make([]any, len(row))
			for j, v := range row {
				cells[j] = ports.CellString(v)
			}
			out = append(out, cells)
		}
		width = max(width, t.Width())
	}
	return out, width
}
