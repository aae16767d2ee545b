package main

import (
	"context"
	"os"

	_ "go.uber.org/automaxprocs"

	"palestra/internal/cli"
	applog "palestra/internal/log"
	"palestra/internal/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info", applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker)

	logger.Info("Starting membership-worker", "interval", cfg.ExpiryInterval)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	var events services.EventPublisher
	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.Warn("AMQP unavailable, expiry events disabled", applog.FieldError, err)
	} else if amqpClient != nil {
		defer amqpClient.Close()
		events = amqpClient
	}

	processor := services.NewMembershipExpiryProcessor(repo, events, cfg.ExpiryInterval)
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start membership expiry processor", applog.FieldError, err)
		return 1
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
	defer cancel()
	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Warn("Membership expiry processor did not stop cleanly", applog.FieldError, err)
	}
	logger.Info("Membership worker shutdown complete")
	return 0
}
