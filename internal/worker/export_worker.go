package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
	"budget/internal/services"
	"budget/internal/sheets"
)

// Reports is the part of the report service the worker reads from.
type Reports interface {
	IncomeSummary(ctx context.Context, f ports.IncomeFilter) ([]core.PeriodSummary, error)
	TransactionSummary(ctx context.Context, f ports.TransactionFilter) (services.TransactionReport, error)
}

// ExportWorker keeps the spreadsheet copies of the reports current. It
// re-exports on every record changed event and on the cron schedule, which
// also covers events lost while the worker was down.
type ExportWorker struct {
	reports Reports
	sheets  sheets.ReportWriter
	timeout time.Duration
	logger  *log.Logger
}

func NewExportWorker(reports Reports, writer sheets.ReportWriter, timeout time.Duration, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &ExportWorker{
		reports: reports,
		sheets:  writer,
		timeout: timeout,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRecordChanged processes a single record changed message from AMQP.
// A returned error requeues the message.
func (w *ExportWorker) HandleRecordChanged(ctx context.Context, msg *amqp.RecordChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing record changed message",
		log.FieldEventID, msg.EventID,
		"kind", msg.Kind,
		"id", msg.ID,
		"action", msg.Action)

	switch msg.Kind {
	case amqp.KindIncome:
		return w.ExportIncomeSummary(ctx)
	case amqp.KindTransaction:
		return w.ExportTransactions(ctx)
	default:
		w.logger.DebugContext(ctx, "No spreadsheet export for record kind", "kind", msg.Kind)
		return nil
	}
}

func (w *ExportWorker) ExportIncomeSummary(ctx context.Context) error {
	periods, err := w.reports.IncomeSummary(ctx, ports.IncomeFilter{})
	if err != nil {
		return fmt.Errorf("build income summary: %w", err)
	}
	ref, err := w.sheets.WriteIncomeSummary(ctx, periods)
	if err != nil {
		return fmt.Errorf("write income summary to sheets: %w", err)
	}
	w.logger.InfoContext(ctx, "Income summary exported",
		log.FieldOperation, log.OpExport,
		log.FieldSheetRange, ref,
		"periods", len(periods))
	return nil
}

func (w *ExportWorker) ExportTransactions(ctx context.Context) error {
	report, err := w.reports.TransactionSummary(ctx, ports.TransactionFilter{})
	if err != nil {
		return fmt.Errorf("build transaction summary: %w", err)
	}
	ref, err := w.sheets.WriteTransactions(ctx, report.Transactions, report.Summary)
	if err != nil {
		return fmt.Errorf("write transactions to sheets: %w", err)
	}
	w.logger.InfoContext(ctx, "Transactions exported",
		log.FieldOperation, log.OpExport,
		log.FieldSheetRange, ref,
		"transactions", len(report.Transactions))
	return nil
}

// ExportAll exports both reports concurrently.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.ExportIncomeSummary(gctx) })
	g.Go(func() error { return w.ExportTransactions(gctx) })
	return g.Wait()
}

// StartupExport brings the spreadsheet up to date when the worker starts.
// Failures are logged; the schedule retries later.
func (w *ExportWorker) StartupExport(ctx context.Context) {
	if err := w.ExportAll(ctx); err != nil {
		w.logger.WarnContext(ctx, "Startup export failed", log.FieldError, err)
		return
	}
	w.logger.InfoContext(ctx, "Startup export completed")
}

// Job adapts ExportAll to the scheduler.
func (w *ExportWorker) Job() *ExportJob {
	return &ExportJob{worker: w}
}

type ExportJob struct {
	worker *ExportWorker
}

func (j *ExportJob) Name() string { return "sheets-export" }

func (j *ExportJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.worker.timeout)
	defer cancel()
	return j.worker.ExportAll(ctx)
}
