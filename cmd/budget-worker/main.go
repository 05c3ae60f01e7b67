package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/scheduler"
	"budget/internal/services"
	gsheet "budget/internal/sheets/google"
	"budget/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(log.New(log.DefaultConfig()))
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting budget-worker")

	if !cfg.SheetsEnabled() {
		logger.Error("Google Sheets export disabled - set GOOGLE_SPREADSHEET_ID to run the worker")
		os.Exit(1)
	}
	if cfg.DataBackend != "sqlite" {
		logger.Warn("Worker is reading a private memory store; exports will not see server writes",
			"backend", cfg.DataBackend)
	}

	table, err := cfg.ExchangeTable()
	if err != nil {
		logger.Error("Invalid exchange rates", log.FieldError, err)
		os.Exit(1)
	}

	backendResult := cli.InitBackend(context.Background(), logger, cfg)
	defer func() {
		if err := backendResult.Close(); err != nil {
			logger.Error("Failed to close record store", log.FieldError, err)
		}
	}()

	// The worker always reads fresh data, so the summary cache stays off.
	reports := services.NewReportService(backendResult.Store, backendResult.Store, table, services.ReportConfig{}, logger)

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:     cfg.GoogleSpreadsheetID,
		SummarySheet:      cfg.GoogleSummarySheetName,
		TransactionsSheet: cfg.GoogleTransactionsSheetName,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	exporter := worker.NewExportWorker(reports, sheetsClient, cfg.ExportTimeout, logger)

	sched := scheduler.New(logger)
	if err := sched.AddJob(cfg.ExportSchedule, exporter.Job()); err != nil {
		logger.Error("Failed to schedule export", log.FieldError, err, "schedule", cfg.ExportSchedule)
		os.Exit(1)
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP consumption disabled - no AMQP_URL provided, exporting on schedule only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		sched.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Failed to close AMQP client", log.FieldError, err)
			}
		}
	})

	// Catch up on anything written while the worker was down.
	exporter.StartupExport(ctx)
	sched.Start()

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeRecordChanged(ctx, exporter.HandleRecordChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
