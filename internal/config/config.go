// Package config loads application configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL         string
	HTTPPort            string
	AdminAPIKey         string
	FundSlug            string
	FundName            string
	Assets              string
	QuoteAPIURL         string
	QuoteRetryMax       int
	QuoteRetryBaseDelay time.Duration
	QuoteStaleThreshold time.Duration
	QuoteInterval       time.Duration
	SnapshotInterval    time.Duration
	ManagementFeePerDay decimal.Decimal
	PerformanceFeeRate  decimal.Decimal
	SpreadsheetID       string
	GoogleCredentials   string
	ExportPath          string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:         envOrDefaultWarn("DATABASE_URL", ""),
		HTTPPort:            envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:         envOrDefault("ADMIN_API_KEY", ""),
		FundSlug:            envOrDefault("FUND_SLUG", "mainfund"),
		FundName:            envOrDefault("FUND_NAME", "Main Fund"),
		Assets:              envOrDefault("ASSETS", ""),
		QuoteAPIURL:         envOrDefaultWarn("QUOTE_API_URL", ""),
		QuoteRetryMax:       envOrDefaultInt("QUOTE_RETRY_MAX", 5),
		QuoteRetryBaseDelay: envOrDefaultDuration("QUOTE_RETRY_BASE_DELAY", 2*time.Second),
		QuoteStaleThreshold: envOrDefaultDuration("QUOTE_STALE_THRESHOLD", 2*time.Hour),
		QuoteInterval:       envOrDefaultDuration("QUOTE_WORKER_INTERVAL", 1*time.Hour),
		SnapshotInterval:    envOrDefaultDuration("SNAPSHOT_WORKER_INTERVAL", 24*time.Hour),
		ManagementFeePerDay: envOrDefaultDecimal("MANAGEMENT_FEE_PER_DAY", decimal.Zero),
		PerformanceFeeRate:  envOrDefaultDecimal("PERFORMANCE_FEE_RATE", decimal.Zero),
		SpreadsheetID:       envOrDefault("EXPORT_SPREADSHEET_ID", ""),
		GoogleCredentials:   envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		ExportPath:          envOrDefault("EXPORT_XLSX_PATH", ""),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			slog.Warn("invalid decimal env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
