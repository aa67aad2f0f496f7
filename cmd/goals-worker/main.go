package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"goals/internal/amqp"
	"goals/internal/cli"
	"goals/internal/config"
	"goals/internal/log"
	gsheet "goals/internal/sheets/google"
	"goals/internal/storage"
	"goals/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.Default(log.ComponentApp).Warn("Failed to load .env file", log.FieldError, err)
	}
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting goals-worker")

	cfg, err := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)
	if err != nil {
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(cfg *config.Config, logger *log.Logger) error {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	sheetsClient, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleGoalsSheet)
	if err != nil {
		return err
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleGoalsSheet)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, sheetsClient, cfg.ExportBatchSize, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Goals saved while the worker was down have no event waiting.
	if n, err := exportWorker.ProcessPending(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldError, err, log.FieldCount, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeGoalEvents(gctx, exportWorker.HandleGoalEvent)
	})
	g.Go(func() error {
		return exportWorker.Run(gctx, cfg.ExportInterval)
	})

	err = g.Wait()
	if ctx.Err() == nil {
		return err
	}
	<-done
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
