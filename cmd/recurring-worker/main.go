package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"koinochrista/internal/amqp"
	"koinochrista/internal/cli"
	"koinochrista/internal/log"
	"koinochrista/internal/services"
	"koinochrista/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting recurring-worker")

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: the materialized expenses still land in SQLite, the
	// export worker just will not hear about them.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without ledger events", log.FieldError, err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	ledgerService := services.NewLedgerService(repo, nil, amqpClient, logger)
	processor := services.NewRecurringProcessor(repo, ledgerService, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Recurring charge processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	// Run initial processing on startup
	if count, err := processor.ProcessDueCharges(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", log.FieldError, err)
	} else {
		logger.Info("Initial processing complete", "charges_created", count)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring worker stopped")
			return
		case <-ticker.C:
			if count, err := processor.ProcessDueCharges(ctx, time.Now()); err != nil {
				logger.Error("Recurring processing failed", log.FieldError, err)
			} else if count > 0 {
				logger.Info("Recurring processing complete", "charges_created", count)
			}
		}
	}
}
