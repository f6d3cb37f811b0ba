package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"billbook/internal/adapters"
	"billbook/internal/amqp"
	"billbook/internal/backend"
	"billbook/internal/cli"
	applog "billbook/internal/log"
	"billbook/internal/services"
	"billbook/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting billbook-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker",
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	if !backendCfg.LedgerEnabled() {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the worker",
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	store := adapters.NewInstrumentedStore(repo, nil)
	defer store.Close()

	ledger, err := backend.NewLedger(context.Background(), backendCfg, slog.Default())
	if err != nil {
		logger.Error("Failed to initialize ledger", applog.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exporter := services.NewLedgerExporter(store, ledger, nil)
	syncWorker := worker.NewSyncWorker(exporter, cfg.SyncBatchSize, cfg.SyncMaxRetries)

	sigCtx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	// Catch up on events published while the worker was down.
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", applog.FieldError, err)
	}

	go func() {
		if err := amqpClient.ConsumeBillEvents(ctx, syncWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", applog.FieldError, err)
		}
		cancel()
	}()

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if sigCtx.Err() == nil {
				// consumer stopped without a signal; exit so the supervisor restarts us
				store.Close()
				amqpClient.Close()
				os.Exit(1)
			}
			cli.WaitForShutdown(sigCtx, done)
			logger.Info("Worker stopped")
			return
		case <-ticker.C:
			if err := syncWorker.ProcessPendingBills(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Periodic sync failed", applog.FieldError, err)
			}
		}
	}
}
