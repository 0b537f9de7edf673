package main

import (
	"context"
	"os"
	"time"

	"koinochrista/internal/amqp"
	"koinochrista/internal/cache"
	"koinochrista/internal/cli"
	"koinochrista/internal/export"
	gsheet "koinochrista/internal/export/google"
	"koinochrista/internal/log"
	"koinochrista/internal/services"
	"koinochrista/internal/storage"
	"koinochrista/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting koinochrista-worker")

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var writer export.StatementWriter
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = sheetsClient
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Error("No GOOGLE_SPREADSHEET_ID provided, nothing to export")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	statementCache := cache.NewStatementCache(cfg.CacheSize, cfg.CacheTTL)
	statements := services.NewStatementService(repo, statementCache, logger)
	exportWorker := worker.NewExportWorker(statements, writer, statementCache, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	go func() {
		if err := amqpClient.ConsumeLedgerEvents(ctx, exportWorker.HandleLedgerEvent); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}
	}()

	logger.Info("Consuming ledger events", "queue", cfg.AMQPQueue)
	cli.WaitForShutdown(ctx, done)
}
