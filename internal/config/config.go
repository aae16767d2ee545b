package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "palestra/internal/log"
)

type Config struct {
	// HTTP Server
	Port               string
	GRPCPort           string
	AuthJWTSecret      string
	RateLimitPerMinute int

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Report cache
	RedisURL       string
	ReportCacheTTL time.Duration

	// Google Sheets payment ledger
	GoogleSpreadsheetID      string
	GoogleLedgerSheetName    string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Workers
	LedgerBatchSize    int
	LedgerSyncInterval time.Duration
	ExpiryInterval     time.Duration

	LogLevel string
}

// configFile mirrors the optional YAML file. Empty fields keep the defaults.
type configFile struct {
	Server struct {
		Port               string `yaml:"port"`
		GRPCPort           string `yaml:"grpc_port"`
		AuthJWTSecret      string `yaml:"auth_jwt_secret"`
		RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
		Queue    string `yaml:"queue"`
	} `yaml:"amqp"`
	Cache struct {
		RedisURL  string `yaml:"redis_url"`
		ReportTTL string `yaml:"report_ttl"`
	} `yaml:"cache"`
	Ledger struct {
		SpreadsheetID      string `yaml:"spreadsheet_id"`
		SheetName          string `yaml:"sheet_name"`
		ServiceAccountFile string `yaml:"service_account_file"`
		BatchSize          int    `yaml:"batch_size"`
		SyncInterval       string `yaml:"sync_interval"`
	} `yaml:"ledger"`
	Memberships struct {
		ExpiryInterval string `yaml:"expiry_interval"`
	} `yaml:"memberships"`
	LogLevel string `yaml:"log_level"`
}

func defaults() *Config {
	return &Config{
		Port:                  "8081",
		RateLimitPerMinute:    60,
		SQLiteDBPath:          "./data/palestra.db",
		AMQPExchange:          "palestra",
		AMQPQueue:             "gym_events",
		ReportCacheTTL:        5 * time.Minute,
		GoogleLedgerSheetName: "Payments",
		LedgerBatchSize:       10,
		LedgerSyncInterval:    30 * time.Second,
		ExpiryInterval:        time.Hour,
		LogLevel:              "info",
	}
}

// Load builds the configuration from the defaults, the YAML file named by
// CONFIG_FILE (config.yaml when unset) and finally the environment.
// A missing file is not an error.
func Load() (*Config, error) {
	cfg := defaults()

	path := getEnv("CONFIG_FILE", "config.yaml")
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.overlay(raw); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GRPCPort = getEnv("GRPC_PORT", cfg.GRPCPort)
	cfg.AuthJWTSecret = getEnv("AUTH_JWT_SECRET", cfg.AuthJWTSecret)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)

	cfg.SQLiteDBPath = getEnv("SQLITE_DB_PATH", cfg.SQLiteDBPath)

	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.AMQPQueue = getEnv("AMQP_QUEUE", cfg.AMQPQueue)

	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.ReportCacheTTL = getEnvDuration("REPORT_CACHE_TTL", cfg.ReportCacheTTL)

	cfg.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", cfg.GoogleSpreadsheetID)
	cfg.GoogleLedgerSheetName = getEnv("GOOGLE_LEDGER_SHEET_NAME", cfg.GoogleLedgerSheetName)
	cfg.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", cfg.GoogleServiceAccountFile))
	cfg.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", cfg.GoogleServiceAccountJSON)

	cfg.LedgerBatchSize = getEnvInt("LEDGER_BATCH_SIZE", cfg.LedgerBatchSize)
	cfg.LedgerSyncInterval = getEnvDuration("LEDGER_SYNC_INTERVAL", cfg.LedgerSyncInterval)
	cfg.ExpiryInterval = getEnvDuration("EXPIRY_INTERVAL", cfg.ExpiryInterval)

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	return cfg, nil
}

func (c *Config) overlay(raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}

	setString(&c.Port, f.Server.Port)
	setString(&c.GRPCPort, f.Server.GRPCPort)
	setString(&c.AuthJWTSecret, f.Server.AuthJWTSecret)
	if f.Server.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = f.Server.RateLimitPerMinute
	}
	setString(&c.SQLiteDBPath, f.Database.Path)
	setString(&c.AMQPURL, f.AMQP.URL)
	setString(&c.AMQPExchange, f.AMQP.Exchange)
	setString(&c.AMQPQueue, f.AMQP.Queue)
	setString(&c.RedisURL, f.Cache.RedisURL)
	setString(&c.GoogleSpreadsheetID, f.Ledger.SpreadsheetID)
	setString(&c.GoogleLedgerSheetName, f.Ledger.SheetName)
	setString(&c.GoogleServiceAccountFile, f.Ledger.ServiceAccountFile)
	if f.Ledger.BatchSize != 0 {
		c.LedgerBatchSize = f.Ledger.BatchSize
	}
	setString(&c.LogLevel, f.LogLevel)

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"cache.report_ttl", f.Cache.ReportTTL, &c.ReportCacheTTL},
		{"ledger.sync_interval", f.Ledger.SyncInterval, &c.LedgerSyncInterval},
		{"memberships.expiry_interval", f.Memberships.ExpiryInterval, &c.ExpiryInterval},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

// SheetsLedgerEnabled reports whether payments go to Google Sheets rather
// than the in-memory ledger.
func (c *Config) SheetsLedgerEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if err := validatePort(c.Port); err != "" {
		errors = append(errors, err)
	}
	if c.GRPCPort != "" {
		if err := validatePort(c.GRPCPort); err != "" {
			errors = append(errors, "gRPC "+err)
		} else if c.GRPCPort == c.Port {
			errors = append(errors, fmt.Sprintf("gRPC port %s must differ from the HTTP port", c.GRPCPort))
		}
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RedisURL != "" {
		if parsedURL, err := url.Parse(c.RedisURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Redis URL '%s': %v", c.RedisURL, err))
		} else if parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", parsedURL.Scheme))
		}
	}
	if c.ReportCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must be positive", c.ReportCacheTTL))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.SheetsLedgerEnabled() && c.GoogleLedgerSheetName == "" {
		errors = append(errors, "Google ledger sheet name is required when GOOGLE_SPREADSHEET_ID is set")
	}

	if c.LedgerBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid ledger batch size %d: must be at least 1", c.LedgerBatchSize))
	} else if c.LedgerBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid ledger batch size %d: must be at most 1000", c.LedgerBatchSize))
	}

	if c.LedgerSyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid ledger sync interval %v: must be at least 1 second", c.LedgerSyncInterval))
	} else if c.LedgerSyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid ledger sync interval %v: must be at most 24 hours", c.LedgerSyncInterval))
	}

	if c.ExpiryInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid expiry interval %v: must be at least 1 minute", c.ExpiryInterval))
	} else if c.ExpiryInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid expiry interval %v: must be at most 24 hours", c.ExpiryInterval))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func validatePort(p string) string {
	port, err := strconv.Atoi(p)
	if err != nil {
		return fmt.Sprintf("invalid port '%s': must be a number", p)
	}
	if port < 1 || port > 65535 {
		return fmt.Sprintf("invalid port %d: must be between 1 and 65535", port)
	}
	return ""
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
