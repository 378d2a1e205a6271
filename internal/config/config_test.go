package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might affect defaults
	for _, key := range []string{"DATABASE_URL", "QUOTE_API_URL", "HTTP_PORT", "QUOTE_RETRY_MAX", "FUND_SLUG", "MANAGEMENT_FEE_PER_DAY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.FundSlug != "mainfund" {
		t.Errorf("FundSlug = %q, want mainfund", cfg.FundSlug)
	}
	if cfg.QuoteRetryMax != 5 {
		t.Errorf("QuoteRetryMax = %d, want 5", cfg.QuoteRetryMax)
	}
	if cfg.QuoteRetryBaseDelay != 2*time.Second {
		t.Errorf("QuoteRetryBaseDelay = %v, want 2s", cfg.QuoteRetryBaseDelay)
	}
	if cfg.SnapshotInterval != 24*time.Hour {
		t.Errorf("SnapshotInterval = %v, want 24h", cfg.SnapshotInterval)
	}
	if !cfg.ManagementFeePerDay.IsZero() {
		t.Errorf("ManagementFeePerDay = %s, want 0", cfg.ManagementFeePerDay)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/testdb")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("QUOTE_RETRY_MAX", "10")
	t.Setenv("QUOTE_RETRY_BASE_DELAY", "5s")
	t.Setenv("ASSETS", "GOLD:7:gold")
	t.Setenv("MANAGEMENT_FEE_PER_DAY", "0.25")

	cfg := Load()

	if cfg.DatabaseURL != "postgres://localhost/testdb" {
		t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if cfg.QuoteRetryMax != 10 {
		t.Errorf("QuoteRetryMax = %d, want 10", cfg.QuoteRetryMax)
	}
	if cfg.QuoteRetryBaseDelay != 5*time.Second {
		t.Errorf("QuoteRetryBaseDelay = %v, want 5s", cfg.QuoteRetryBaseDelay)
	}
	if cfg.Assets != "GOLD:7:gold" {
		t.Errorf("Assets = %q, want override", cfg.Assets)
	}
	if !cfg.ManagementFeePerDay.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("ManagementFeePerDay = %s, want 0.25", cfg.ManagementFeePerDay)
	}
}

func TestLoadInvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("QUOTE_RETRY_MAX", "not-a-number")
	t.Setenv("QUOTE_RETRY_BASE_DELAY", "invalid-duration")
	t.Setenv("PERFORMANCE_FEE_RATE", "not-a-decimal")

	cfg := Load()

	if cfg.QuoteRetryMax != 5 {
		t.Errorf("QuoteRetryMax = %d, want default 5 on invalid input", cfg.QuoteRetryMax)
	}
	if cfg.QuoteRetryBaseDelay != 2*time.Second {
		t.Errorf("QuoteRetryBaseDelay = %v, want default 2s on invalid input", cfg.QuoteRetryBaseDelay)
	}
	if !cfg.PerformanceFeeRate.IsZero() {
		t.Errorf("PerformanceFeeRate = %s, want default 0 on invalid input", cfg.PerformanceFeeRate)
	}
}
