package main

import (
	"context"
	"errors"
	"os"

	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"

	"palestra/internal/cli"
	applog "palestra/internal/log"
	"palestra/internal/services"
	"palestra/internal/worker"
)

func main() {
	os.Exit(run())
}

// run returns the exit code so deferred cleanup runs before the process exits.
func run() int {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info", applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker)

	logger.Info("Starting palestra-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	writer, err := cli.NewLedgerWriter(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize payment ledger", applog.FieldError, err)
		return 1
	}

	processor := services.NewLedgerProcessor(repo, writer, services.LedgerProcessorConfig{
		PollInterval: cfg.LedgerSyncInterval,
		BatchSize:    cfg.LedgerBatchSize,
	})

	// The worker only purges a shared cache; an in-process one would be its own.
	var purger worker.ReportPurger
	if cfg.RedisURL != "" {
		reports, closeReports := cli.NewReportCache(ctx, logger, cfg)
		defer closeReports()
		purger = reports
	}
	eventWorker := worker.NewEventWorker(processor, purger)

	logger.Info("Performing startup sync check...")
	if err := eventWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", applog.FieldError, err)
	}

	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		return 1
	}

	g, gctx := errgroup.WithContext(ctx)

	if amqpClient != nil {
		defer amqpClient.Close()
		g.Go(func() error {
			err := amqpClient.ConsumeEvents(gctx, eventWorker.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP consumption, relying on periodic ledger sync")
	}

	g.Go(func() error {
		return processor.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down worker...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		return processor.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		return 1
	}
	logger.Info("Worker shutdown complete")
	return 0
}
