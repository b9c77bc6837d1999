package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2*time.Second, cfg.Coingecko.MinCallInterval.Duration)
	assert.Equal(t, 3, cfg.Coingecko.MaxRetries)
	assert.Equal(t, 5, cfg.Coingecko.MaxTickerPages)
	assert.Equal(t, 0.8, cfg.Trading.ArbitrageThresholdPct)
	assert.Equal(t, 1000.0, cfg.Trading.SimCapitalUSD)
	assert.Equal(t, "file", cfg.Ledger.Backend)
	assert.Len(t, cfg.Trading.Coins, 5)
	assert.Len(t, cfg.Trading.Exchanges, 5)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[coingecko]
min_call_interval = "5s"

[trading]
coins = ["bitcoin"]
arbitrage_threshold_pct = 1.5
loop_interval = "30s"

[ledger]
backend = "file"
path = "/tmp/trades.json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Coingecko.MinCallInterval.Duration)
	assert.Equal(t, []string{"bitcoin"}, cfg.Trading.Coins)
	assert.Equal(t, 1.5, cfg.Trading.ArbitrageThresholdPct)
	assert.Equal(t, 30*time.Second, cfg.Trading.LoopInterval.Duration)
	assert.Equal(t, "/tmp/trades.json", cfg.Ledger.Path)

	// Untouched sections keep their defaults.
	assert.Equal(t, 3, cfg.Coingecko.MaxRetries)
	assert.Equal(t, 0.2, cfg.Trading.EstimatedFeePct)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `mode = "simulation"`)

	t.Setenv("HUNTER_TRADING_COINS", "bitcoin, solana")
	t.Setenv("HUNTER_TRADING_SIM_CAPITAL_USD", "2500")
	t.Setenv("HUNTER_TRADING_LOOP_INTERVAL", "45s")
	t.Setenv("HUNTER_REDIS_ENABLED", "true")
	t.Setenv("HUNTER_SERVER_API_KEY", "sekrit")
	t.Setenv("HUNTER_NOTIFY_MIN_SEVERITY", "warning")
	t.Setenv("HUNTER_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"bitcoin", "solana"}, cfg.Trading.Coins)
	assert.Equal(t, 2500.0, cfg.Trading.SimCapitalUSD)
	assert.Equal(t, 45*time.Second, cfg.Trading.LoopInterval.Duration)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "sekrit", cfg.Server.APIKey)
	assert.Equal(t, "warning", cfg.Notify.MinSeverity)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestEnvOverrideIgnoresGarbage(t *testing.T) {
	path := writeConfig(t, ``)

	t.Setenv("HUNTER_TRADING_SIM_CAPITAL_USD", "lots")
	t.Setenv("HUNTER_COINGECKO_MAX_RETRIES", "many")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, cfg.Trading.SimCapitalUSD)
	assert.Equal(t, 3, cfg.Coingecko.MaxRetries)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults pass",
			mutate: func(c *Config) {},
		},
		{
			name:    "no coins",
			mutate:  func(c *Config) { c.Trading.Coins = nil },
			wantErr: "trading.coins",
		},
		{
			name:    "single exchange",
			mutate:  func(c *Config) { c.Trading.Exchanges = []string{"binance"} },
			wantErr: "trading.exchanges",
		},
		{
			name:    "negative threshold",
			mutate:  func(c *Config) { c.Trading.ArbitrageThresholdPct = -1 },
			wantErr: "arbitrage_threshold_pct",
		},
		{
			name:    "zero capital",
			mutate:  func(c *Config) { c.Trading.SimCapitalUSD = 0 },
			wantErr: "sim_capital_usd",
		},
		{
			name: "inverted sentiment thresholds",
			mutate: func(c *Config) {
				c.Sentiment.BullishThreshold = -0.5
				c.Sentiment.BearishThreshold = 0.5
			},
			wantErr: "bullish_threshold",
		},
		{
			name:    "file backend without path",
			mutate:  func(c *Config) { c.Ledger.Path = "" },
			wantErr: "ledger.path",
		},
		{
			name: "postgres backend without connection",
			mutate: func(c *Config) {
				c.Ledger.Backend = "postgres"
			},
			wantErr: "ledger.postgres",
		},
		{
			name:    "unknown ledger backend",
			mutate:  func(c *Config) { c.Ledger.Backend = "cassandra" },
			wantErr: "ledger.backend",
		},
		{
			name: "s3 enabled without bucket",
			mutate: func(c *Config) {
				c.S3.Enabled = true
				c.S3.Region = "us-east-1"
			},
			wantErr: "s3.bucket",
		},
		{
			name:    "server port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Mode = "yolo" },
			wantErr: "mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
