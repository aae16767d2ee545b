// Package cli provides common CLI initialization utilities shared by
// cmd/palestra, cmd/palestra-worker and cmd/membership-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"palestra/internal/amqp"
	"palestra/internal/cache"
	"palestra/internal/config"
	"palestra/internal/core"
	"palestra/internal/ledger"
	"palestra/internal/ledger/google"
	"palestra/internal/ledger/memory"
	applog "palestra/internal/log"
	"palestra/internal/storage"
)

// ShutdownTimeout bounds graceful shutdown in every binary.
const ShutdownTimeout = 30 * time.Second

// reportCachePrefix namespaces revenue reports in a shared Redis.
const reportCachePrefix = "palestra:reports"

// SetupLogger installs the process logger at the named level.
func SetupLogger(level, component string) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return applog.Setup(lvl, component)
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", applog.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the database and runs migrations.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// ConnectAMQP connects to the broker, or returns nil when AMQP_URL is unset.
func ConnectAMQP(logger *applog.Logger, cfg *config.Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set, domain events disabled")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to AMQP broker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client, nil
}

// NewReportCache returns the revenue report cache: Redis when REDIS_URL is
// set, otherwise an in-process LRU cleaned by a cache.Manager. The returned
// func releases it.
func NewReportCache(ctx context.Context, logger *applog.Logger, cfg *config.Config) (cache.Cache[core.RevenueReport], func()) {
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info("Using Redis report cache", "ttl", cfg.ReportCacheTTL)
			return cache.NewRedisCache[core.RevenueReport](client, reportCachePrefix, cfg.ReportCacheTTL), func() {
				_ = client.Close()
			}
		}
		logger.Warn("Redis unavailable, falling back to in-process report cache", applog.FieldError, err)
	}

	lru := cache.NewLRUCache[core.RevenueReport](256, cfg.ReportCacheTTL)
	manager := cache.NewManager()
	manager.Register(lru)
	manager.StartCleanup(cfg.ReportCacheTTL)
	return lru, manager.Stop
}

// NewLedgerWriter returns the Google Sheets ledger when a spreadsheet is
// configured, otherwise the in-memory ledger.
func NewLedgerWriter(ctx context.Context, logger *applog.Logger, cfg *config.Config) (ledger.PaymentLedgerWriter, error) {
	if !cfg.SheetsLedgerEnabled() {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, payments are copied to the in-memory ledger only")
		return memory.New(), nil
	}
	client, err := google.New(ctx, google.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleLedgerSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Using Google Sheets payment ledger", "sheet", cfg.GoogleLedgerSheetName)
	return client, nil
}
