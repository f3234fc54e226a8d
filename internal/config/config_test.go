package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataSource.Provider != "yahoo" || cfg.DataSource.IndexSymbol != "VIX" {
		t.Errorf("unexpected data source defaults: %+v", cfg.DataSource)
	}
	if cfg.Analysis.DaysToExpiry != 30 || cfg.Analysis.RiskFreeRate != 0.05 || cfg.Analysis.WindowDays != 10 {
		t.Errorf("unexpected analysis defaults: %+v", cfg.Analysis)
	}
	fb := cfg.Fallback()
	if fb.PreMultiplier != 1.5 || fb.PostMultiplier != 1.2 || fb.DefaultIndexLevel != 20 {
		t.Errorf("unexpected fallback defaults: %+v", fb)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if err := cfg.ValidateTelegram(); err == nil {
		t.Error("expected telegram validation error without a token")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: csv
  csv_dir: /tmp/bars
analysis:
  days_to_expiry: 45
  risk_free_rate: 0.04
  fallback:
    pre_multiplier: 1.4
events:
  - symbol: NVDA
    earnings_date: "2025-02-26"
  - symbol: AAPL
    earnings_date: "2025-01-30"
    days_to_expiry: 7
`)
	t.Setenv("RISK_FREE_RATE", "0.045")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if err := cfg.ValidateTelegram(); err != nil {
		t.Errorf("unexpected telegram validation error: %v", err)
	}
	if cfg.Analysis.RiskFreeRate != 0.045 {
		t.Errorf("expected env override 0.045, got %v", cfg.Analysis.RiskFreeRate)
	}
	if fb := cfg.Fallback(); fb.PreMultiplier != 1.4 || fb.PostMultiplier != 1.2 {
		t.Errorf("unexpected fallback: %+v", fb)
	}

	events, err := cfg.EarningsEvents()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].DaysToExpiry != 45 || events[1].DaysToExpiry != 7 {
		t.Errorf("expected days 45/7, got %d/%d", events[0].DaysToExpiry, events[1].DaysToExpiry)
	}
	if !events[1].EarningsDate.Equal(time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected earnings date: %s", events[1].EarningsDate)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"csv without dir", "data_source:\n  provider: csv\n"},
		{"rest without url", "data_source:\n  provider: rest\n"},
		{"unknown provider", "data_source:\n  provider: bloomberg\n"},
		{"negative days", "analysis:\n  days_to_expiry: -1\n"},
		{"bad event date", "events:\n  - symbol: AAPL\n    earnings_date: 30/01/2025\n"},
		{"event without symbol", "events:\n  - earnings_date: \"2025-01-30\"\n"},
	}
	for _, tt := range tests {
		cfg, err := Load(writeConfig(t, tt.body))
		if err != nil {
			t.Fatalf("%s: unexpected load error: %v", tt.name, err)
		}
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestLoad_RESTProviderFromEnv(t *testing.T) {
	t.Setenv("DATA_PROVIDER", "rest")
	t.Setenv("DATA_BASE_URL", "http://bars.local")
	t.Setenv("DATA_API_KEY", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if cfg.DataSource.BaseURL != "http://bars.local" || cfg.DataSource.APIKey != "secret" {
		t.Errorf("unexpected data source: %+v", cfg.DataSource)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "analysis: [unterminated")); err == nil {
		t.Error("expected parse error")
	}
}
