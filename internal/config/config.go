package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"IVCrush/internal/model"
	"IVCrush/internal/volatility"
)

// DateLayout is the layout used for earnings dates in config and commands.
const DateLayout = "2006-01-02"

// EventConfig is one configured earnings announcement.
type EventConfig struct {
	Symbol       string `yaml:"symbol"`
	EarningsDate string `yaml:"earnings_date"`
	DaysToExpiry int    `yaml:"days_to_expiry"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider    string `yaml:"provider"` // "yahoo", "csv" or "rest"
		CSVDir      string `yaml:"csv_dir"`
		BaseURL     string `yaml:"base_url"`
		APIKey      string `yaml:"api_key"`
		IndexSymbol string `yaml:"index_symbol"`
	} `yaml:"data_source"`
	Analysis struct {
		DaysToExpiry int     `yaml:"days_to_expiry"`
		RiskFreeRate float64 `yaml:"risk_free_rate"`
		WindowDays   int     `yaml:"window_days"`
		Fallback     struct {
			PreMultiplier     float64 `yaml:"pre_multiplier"`
			PostMultiplier    float64 `yaml:"post_multiplier"`
			DefaultIndexLevel float64 `yaml:"default_index_level"`
		} `yaml:"fallback"`
	} `yaml:"analysis"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Events   []EventConfig `yaml:"events"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("CSV_DIR"); v != "" {
		cfg.DataSource.CSVDir = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("RISK_FREE_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.RiskFreeRate = rate
		}
	}
	if v := os.Getenv("DAYS_TO_EXPIRY"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.DaysToExpiry = days
		}
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.IndexSymbol == "" {
		cfg.DataSource.IndexSymbol = "VIX"
	}
	if cfg.Analysis.DaysToExpiry == 0 {
		cfg.Analysis.DaysToExpiry = 30
	}
	if cfg.Analysis.RiskFreeRate == 0 {
		cfg.Analysis.RiskFreeRate = 0.05
	}
	if cfg.Analysis.WindowDays == 0 {
		cfg.Analysis.WindowDays = 10
	}
	def := volatility.DefaultFallback()
	if cfg.Analysis.Fallback.PreMultiplier == 0 {
		cfg.Analysis.Fallback.PreMultiplier = def.PreMultiplier
	}
	if cfg.Analysis.Fallback.PostMultiplier == 0 {
		cfg.Analysis.Fallback.PostMultiplier = def.PostMultiplier
	}
	if cfg.Analysis.Fallback.DefaultIndexLevel == 0 {
		cfg.Analysis.Fallback.DefaultIndexLevel = def.DefaultIndexLevel
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 30 22 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/ivcrush.db"
	}

	return cfg, nil
}

// Validate checks the analysis settings and configured events.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo":
	case "csv":
		if c.DataSource.CSVDir == "" {
			return fmt.Errorf("data_source.csv_dir is required for the csv provider")
		}
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.Analysis.DaysToExpiry <= 0 {
		return fmt.Errorf("analysis.days_to_expiry must be positive")
	}
	if c.Analysis.WindowDays <= 0 {
		return fmt.Errorf("analysis.window_days must be positive")
	}
	if c.Analysis.Fallback.PreMultiplier <= 0 || c.Analysis.Fallback.PostMultiplier <= 0 {
		return fmt.Errorf("analysis.fallback multipliers must be positive")
	}
	if c.Analysis.Fallback.DefaultIndexLevel <= 0 {
		return fmt.Errorf("analysis.fallback.default_index_level must be positive")
	}
	if _, err := c.EarningsEvents(); err != nil {
		return err
	}
	return nil
}

// ValidateTelegram checks the settings needed by the long-running bot.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}

// Fallback returns the configured volatility-index fallback.
func (c *Config) Fallback() volatility.Fallback {
	return volatility.Fallback{
		PreMultiplier:     c.Analysis.Fallback.PreMultiplier,
		PostMultiplier:    c.Analysis.Fallback.PostMultiplier,
		DefaultIndexLevel: c.Analysis.Fallback.DefaultIndexLevel,
	}
}

// EarningsEvents parses the configured events, filling in the default days to expiry.
func (c *Config) EarningsEvents() ([]model.EarningsEvent, error) {
	events := make([]model.EarningsEvent, 0, len(c.Events))
	for i, e := range c.Events {
		if e.Symbol == "" {
			return nil, fmt.Errorf("events[%d].symbol is required", i)
		}
		date, err := time.Parse(DateLayout, e.EarningsDate)
		if err != nil {
			return nil, fmt.Errorf("events[%d].earnings_date: %w", i, err)
		}
		days := e.DaysToExpiry
		if days <= 0 {
			days = c.Analysis.DaysToExpiry
		}
		events = append(events, model.EarningsEvent{Symbol: e.Symbol, EarningsDate: date, DaysToExpiry: days})
	}
	return events, nil
}
