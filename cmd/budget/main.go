package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/cli"
	apphttp "budget/internal/http"
	"budget/internal/log"
	"budget/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(log.New(log.DefaultConfig()))
	logger := cli.SetupLogger(cfg.LogLevel)

	table, err := cfg.ExchangeTable()
	if err != nil {
		logger.Error("Invalid exchange rates", log.FieldError, err)
		os.Exit(1)
	}

	backendResult := cli.InitBackend(context.Background(), logger, cfg)
	store := backendResult.Store

	reports := services.NewReportService(store, store, table, services.ReportConfig{
		CacheTTL:  cfg.ReportCacheTTL,
		CacheSize: cfg.ReportCacheSize,
	}, logger)

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithInvalidator(reports),
	}

	// Events are optional: without AMQP_URL the worker only exports on its
	// schedule.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		opts = append(opts, services.WithPublisher(amqpClient))
		logger.Info("Record changed events enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Record changed events disabled - no AMQP_URL provided")
	}

	incomes := services.NewIncomeService(store, opts...)
	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Incomes:      incomes,
		Templates:    services.NewTemplateGenerator(store, incomes, cfg.RecomputeOnInstantiate, opts...),
		Transactions: services.NewTransactionService(store, opts...),
		Vehicles:     services.NewVehicleLogService(store, opts...),
		Reports:      reports,
		Store:        store,
	}, apphttp.Options{Logger: logger})
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Failed to close AMQP client", log.FieldError, err)
			}
		}
		if err := backendResult.Close(); err != nil {
			logger.Error("Failed to close record store", log.FieldError, err)
		}
	})

	logger.Info("Starting budget server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"exchange_rates", table.String(),
		"recompute_on_instantiate", cfg.RecomputeOnInstantiate)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
