package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"CycleSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Watch struct {
		Symbol      string `yaml:"symbol"`
		Timeframe   string `yaml:"timeframe"`
		PollCron    string `yaml:"poll_cron"`
		SummaryCron string `yaml:"summary_cron"`
	} `yaml:"watch"`
	Analysis struct {
		Window         int `yaml:"window"`
		ATRPeriod      int `yaml:"atr_period"`
		BufferCapacity int `yaml:"buffer_capacity"`
	} `yaml:"analysis"`
	DataSource struct {
		BaseURL       string        `yaml:"base_url"`
		APIKey        string        `yaml:"api_key"`
		RelayURL      string        `yaml:"relay_url"`
		Timeout       time.Duration `yaml:"timeout"`
		ReloadTimeout time.Duration `yaml:"reload_timeout"`
		Retries       int           `yaml:"retries"`
	} `yaml:"data_source"`
	Risk struct {
		StateFile  string  `yaml:"state_file"`
		Investment float64 `yaml:"investment"`
		Leverage   float64 `yaml:"leverage"`
	} `yaml:"risk"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Console bool   `yaml:"console"`
	Proxy   string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{Console: true}

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
	if v := os.Getenv("WATCH_SYMBOL"); v != "" {
		cfg.Watch.Symbol = v
	}
	if v := os.Getenv("WATCH_TIMEFRAME"); v != "" {
		cfg.Watch.Timeframe = v
	}
	if v := os.Getenv("CRON_POLL"); v != "" {
		cfg.Watch.PollCron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("RELAY_URL"); v != "" {
		cfg.DataSource.RelayURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("RISK_INVESTMENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.Investment = f
		}
	}
	if v := os.Getenv("RISK_LEVERAGE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.Leverage = f
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	// Defaults
	if cfg.Watch.Symbol == "" {
		cfg.Watch.Symbol = "GOLD"
	}
	if cfg.Watch.Timeframe == "" {
		cfg.Watch.Timeframe = "1h"
	}
	if cfg.Watch.PollCron == "" {
		cfg.Watch.PollCron = "@every 2s"
	}
	if cfg.Analysis.Window == 0 {
		cfg.Analysis.Window = 128
	}
	if cfg.Analysis.ATRPeriod == 0 {
		cfg.Analysis.ATRPeriod = 14
	}
	if cfg.Analysis.BufferCapacity == 0 {
		cfg.Analysis.BufferCapacity = 500
	}
	if cfg.DataSource.Timeout == 0 {
		cfg.DataSource.Timeout = 30 * time.Second
	}
	if cfg.DataSource.ReloadTimeout == 0 {
		cfg.DataSource.ReloadTimeout = 30 * time.Second
	}
	if cfg.DataSource.Retries == 0 {
		cfg.DataSource.Retries = 3
	}
	if cfg.Risk.StateFile == "" {
		cfg.Risk.StateFile = "data/risk_state.json"
	}
	if cfg.Risk.Investment == 0 {
		cfg.Risk.Investment = 1000
	}
	if cfg.Risk.Leverage == 0 {
		cfg.Risk.Leverage = 1
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/cycle_sentinel.db"
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if !model.KnownTimeframe(c.Watch.Timeframe) {
		return fmt.Errorf("watch.timeframe %q is not one of 1m, 5m, 15m, 30m, 1h, 4h, 1d, 1w", c.Watch.Timeframe)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Watch.PollCron); err != nil {
		return fmt.Errorf("watch.poll_cron: %w", err)
	}
	if c.Watch.SummaryCron != "" {
		if _, err := parser.Parse(c.Watch.SummaryCron); err != nil {
			return fmt.Errorf("watch.summary_cron: %w", err)
		}
	}
	if w := c.Analysis.Window; w < 4 || w&(w-1) != 0 {
		return fmt.Errorf("analysis.window must be a power of two >= 4, got %d", w)
	}
	if c.Analysis.ATRPeriod < 1 {
		return fmt.Errorf("analysis.atr_period must be positive")
	}
	if c.Analysis.BufferCapacity < c.Analysis.Window {
		return fmt.Errorf("analysis.buffer_capacity (%d) must hold at least one window (%d)",
			c.Analysis.BufferCapacity, c.Analysis.Window)
	}
	if c.DataSource.Retries < 1 {
		return fmt.Errorf("data_source.retries must be at least 1")
	}
	if c.Risk.Investment < 0 || c.Risk.Leverage <= 0 {
		return fmt.Errorf("risk.investment must be >= 0 and risk.leverage positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether Telegram alerts and commands are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
