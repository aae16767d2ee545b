package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"

	"palestra/internal/cli"
	grpchealth "palestra/internal/grpc"
	apphttp "palestra/internal/http"
	applog "palestra/internal/log"
	"palestra/internal/services"
)

func main() {
	os.Exit(run())
}

// run returns the exit code so deferred cleanup runs before the process exits.
func run() int {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info", applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	logger.Info("Starting palestra", "port", cfg.Port)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	// Events are best effort: the API keeps serving without a broker.
	var events services.EventPublisher
	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.Warn("AMQP unavailable, domain events disabled", applog.FieldError, err)
	} else if amqpClient != nil {
		defer amqpClient.Close()
		events = amqpClient
	}

	reports, closeReports := cli.NewReportCache(ctx, logger, cfg)
	defer closeReports()

	svc := services.NewGymService(services.Dependencies{
		Store:       repo,
		Events:      events,
		ReportCache: reports,
	})

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		JWTSecret:          cfg.AuthJWTSecret,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, svc, repo)
	if cfg.AuthJWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set, RPC endpoints are unauthenticated")
	}

	var health *grpchealth.HealthServer
	if cfg.GRPCPort != "" {
		health = grpchealth.NewHealthServer(":" + cfg.GRPCPort)
		health.SetServing(true)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if health != nil {
		g.Go(health.ListenAndServe)
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()

		if health != nil {
			health.Shutdown(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server forced to shutdown", applog.FieldError, err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		return 1
	}
	logger.Info("Server exited")
	return 0
}
