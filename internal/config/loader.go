package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies HUNTER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known HUNTER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Coingecko ──
	setStr(&cfg.Coingecko.BaseURL, "HUNTER_COINGECKO_BASE_URL")
	setInt(&cfg.Coingecko.MaxRetries, "HUNTER_COINGECKO_MAX_RETRIES")
	setDuration(&cfg.Coingecko.MinCallInterval, "HUNTER_COINGECKO_MIN_CALL_INTERVAL")

	// ── Trading ──
	setStringSlice(&cfg.Trading.Coins, "HUNTER_TRADING_COINS")
	setStringSlice(&cfg.Trading.Exchanges, "HUNTER_TRADING_EXCHANGES")
	setFloat64(&cfg.Trading.ArbitrageThresholdPct, "HUNTER_TRADING_ARBITRAGE_THRESHOLD_PCT")
	setFloat64(&cfg.Trading.SimCapitalUSD, "HUNTER_TRADING_SIM_CAPITAL_USD")
	setFloat64(&cfg.Trading.EstimatedFeePct, "HUNTER_TRADING_ESTIMATED_FEE_PCT")
	setDuration(&cfg.Trading.LoopInterval, "HUNTER_TRADING_LOOP_INTERVAL")

	// ── Sentiment ──
	setFloat64(&cfg.Sentiment.BullishThreshold, "HUNTER_SENTIMENT_BULLISH_THRESHOLD")
	setFloat64(&cfg.Sentiment.BearishThreshold, "HUNTER_SENTIMENT_BEARISH_THRESHOLD")
	setStr(&cfg.Sentiment.FearGreedURL, "HUNTER_SENTIMENT_FEAR_GREED_URL")

	// ── Ledger ──
	setStr(&cfg.Ledger.Backend, "HUNTER_LEDGER_BACKEND")
	setStr(&cfg.Ledger.Path, "HUNTER_LEDGER_PATH")
	setStr(&cfg.Ledger.Postgres.DSN, "HUNTER_LEDGER_POSTGRES_DSN")
	setStr(&cfg.Ledger.Postgres.Host, "HUNTER_LEDGER_POSTGRES_HOST")
	setInt(&cfg.Ledger.Postgres.Port, "HUNTER_LEDGER_POSTGRES_PORT")
	setStr(&cfg.Ledger.Postgres.Database, "HUNTER_LEDGER_POSTGRES_DATABASE")
	setStr(&cfg.Ledger.Postgres.User, "HUNTER_LEDGER_POSTGRES_USER")
	setStr(&cfg.Ledger.Postgres.Password, "HUNTER_LEDGER_POSTGRES_PASSWORD")
	setStr(&cfg.Ledger.Postgres.SSLMode, "HUNTER_LEDGER_POSTGRES_SSLMODE")
	setBool(&cfg.Ledger.Postgres.RunMigrations, "HUNTER_LEDGER_POSTGRES_RUN_MIGRATIONS")

	// ── Predictor ──
	setBool(&cfg.Predictor.Enabled, "HUNTER_PREDICTOR_ENABLED")
	setStr(&cfg.Predictor.DataPath, "HUNTER_PREDICTOR_DATA_PATH")
	setInt(&cfg.Predictor.MinSamples, "HUNTER_PREDICTOR_MIN_SAMPLES")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "HUNTER_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "HUNTER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "HUNTER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "HUNTER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "HUNTER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "HUNTER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "HUNTER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "HUNTER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "HUNTER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "HUNTER_S3_REGION")
	setStr(&cfg.S3.Bucket, "HUNTER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "HUNTER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "HUNTER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "HUNTER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "HUNTER_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "HUNTER_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "HUNTER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "HUNTER_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "HUNTER_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "HUNTER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "HUNTER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "HUNTER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.MinSeverity, "HUNTER_NOTIFY_MIN_SEVERITY")

	// ── Top-level ──
	setStr(&cfg.Mode, "HUNTER_MODE")
	setStr(&cfg.LogLevel, "HUNTER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
