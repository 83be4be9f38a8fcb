package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "GOLD", cfg.Watch.Symbol)
	assert.Equal(t, "1h", cfg.Watch.Timeframe)
	assert.Equal(t, "@every 2s", cfg.Watch.PollCron)
	assert.Equal(t, 128, cfg.Analysis.Window)
	assert.Equal(t, 14, cfg.Analysis.ATRPeriod)
	assert.Equal(t, 500, cfg.Analysis.BufferCapacity)
	assert.Equal(t, 30*time.Second, cfg.DataSource.ReloadTimeout)
	assert.Equal(t, 3, cfg.DataSource.Retries)
	assert.Equal(t, 1000.0, cfg.Risk.Investment)
	assert.Equal(t, 1.0, cfg.Risk.Leverage)
	assert.True(t, cfg.Console)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
watch:
  symbol: SILVER
  timeframe: 15m
  summary_cron: "0 0 * * * *"
analysis:
  window: 64
  buffer_capacity: 200
data_source:
  relay_url: https://relay.example/get?url=
  timeout: 5s
risk:
  investment: 2500
  leverage: 10
telegram:
  bot_token: token
  chat_id: "42"
console: false
`)
	t.Setenv("WATCH_SYMBOL", "BTC")
	t.Setenv("RISK_LEVERAGE", "20")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "BTC", cfg.Watch.Symbol)
	assert.Equal(t, "15m", cfg.Watch.Timeframe)
	assert.Equal(t, 64, cfg.Analysis.Window)
	assert.Equal(t, 200, cfg.Analysis.BufferCapacity)
	assert.Equal(t, 5*time.Second, cfg.DataSource.Timeout)
	assert.Equal(t, "https://relay.example/get?url=", cfg.DataSource.RelayURL)
	assert.Equal(t, 2500.0, cfg.Risk.Investment)
	assert.Equal(t, 20.0, cfg.Risk.Leverage)
	assert.False(t, cfg.Console)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "watch: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown timeframe", func(c *Config) { c.Watch.Timeframe = "2h" }},
		{"bad poll cron", func(c *Config) { c.Watch.PollCron = "every now and then" }},
		{"bad summary cron", func(c *Config) { c.Watch.SummaryCron = "61 * * * * *" }},
		{"window not power of two", func(c *Config) { c.Analysis.Window = 100 }},
		{"capacity below window", func(c *Config) { c.Analysis.BufferCapacity = 64 }},
		{"atr period", func(c *Config) { c.Analysis.ATRPeriod = -1 }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "token" }},
		{"leverage", func(c *Config) { c.Risk.Leverage = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
