// Package config defines the top-level configuration for the crypto hunter
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by HUNTER_* environment variables.
type Config struct {
	Coingecko Coingecko `toml:"coingecko"`
	Trading   Trading   `toml:"trading"`
	Sentiment Sentiment `toml:"sentiment"`
	Ledger    Ledger    `toml:"ledger"`
	Predictor Predictor `toml:"predictor"`
	Redis     Redis     `toml:"redis"`
	S3        S3        `toml:"s3"`
	Server    Server    `toml:"server"`
	Notify    Notify    `toml:"notify"`
	Mode      string    `toml:"mode"`
	LogLevel  string    `toml:"log_level"`
}

// Coingecko holds upstream price-feed parameters.
type Coingecko struct {
	BaseURL         string   `toml:"base_url"`
	RequestTimeout  duration `toml:"request_timeout"`
	MinCallInterval duration `toml:"min_call_interval"`
	MaxRetries      int      `toml:"max_retries"`
	MaxTickerPages  int      `toml:"max_ticker_pages"`
}

// Trading holds the coins and exchanges to monitor plus the arbitrage
// arithmetic parameters.
type Trading struct {
	Coins                 []string `toml:"coins"`
	Exchanges             []string `toml:"exchanges"`
	ArbitrageThresholdPct float64  `toml:"arbitrage_threshold_pct"`
	SimCapitalUSD         float64  `toml:"sim_capital_usd"`
	EstimatedFeePct       float64  `toml:"estimated_fee_pct"`
	LoopInterval          duration `toml:"loop_interval"`
}

// Sentiment holds the sentiment collaborator thresholds.
type Sentiment struct {
	BullishThreshold float64  `toml:"bullish_threshold"`
	BearishThreshold float64  `toml:"bearish_threshold"`
	FearGreedURL     string   `toml:"fear_greed_url"`
	RequestTimeout   duration `toml:"request_timeout"`
}

// Ledger selects and configures the trade-history backend.
type Ledger struct {
	// Backend is "file" or "postgres".
	Backend string `toml:"backend"`
	// Path is the JSON history file used by the file backend.
	Path string `toml:"path"`

	Postgres Postgres `toml:"postgres"`
}

// Postgres holds PostgreSQL connection parameters for the ledger backend.
type Postgres struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// Predictor holds the trend classifier parameters.
type Predictor struct {
	Enabled             bool    `toml:"enabled"`
	DataPath            string  `toml:"data_path"`
	MinSamples          int     `toml:"min_samples"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	RetrainEveryCycles  int     `toml:"retrain_every_cycles"`
}

// Redis holds connection parameters for the optional price cache.
type Redis struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3 holds object storage parameters for optional ledger archival.
type S3 struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// Server holds HTTP control-surface parameters.
type Server struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey protects the mutating endpoints. Empty disables authentication.
	APIKey string `toml:"api_key"`
}

// Notify holds notification channel credentials.
type Notify struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
	// MinSeverity is the lowest alert level that gets delivered:
	// "info", "warning" or "critical".
	MinSeverity string `toml:"min_severity"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "2s", "120s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "2s" or "2m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the built-in configuration. The free CoinGecko tier
// allows roughly 30 calls per minute, which the default throttle interval
// and loop interval are sized for.
func Defaults() Config {
	return Config{
		Coingecko: Coingecko{
			BaseURL:         "https://api.coingecko.com/api/v3",
			RequestTimeout:  duration{15 * time.Second},
			MinCallInterval: duration{2 * time.Second},
			MaxRetries:      3,
			MaxTickerPages:  5,
		},
		Trading: Trading{
			Coins:                 []string{"bitcoin", "ethereum", "solana", "binancecoin", "ripple"},
			Exchanges:             []string{"binance", "coinbase", "kraken", "kucoin", "bybit"},
			ArbitrageThresholdPct: 0.8,
			SimCapitalUSD:         1000.0,
			EstimatedFeePct:       0.2,
			LoopInterval:          duration{120 * time.Second},
		},
		Sentiment: Sentiment{
			BullishThreshold: 0.2,
			BearishThreshold: -0.2,
			FearGreedURL:     "https://api.alternative.me/fng/",
			RequestTimeout:   duration{10 * time.Second},
		},
		Ledger: Ledger{
			Backend: "file",
			Path:    "simulated_trades.json",
		},
		Predictor: Predictor{
			Enabled:             true,
			DataPath:            "price_history.csv",
			MinSamples:          60,
			ConfidenceThreshold: 0.65,
			RetrainEveryCycles:  10,
		},
		Redis: Redis{
			Addr: "localhost:6379",
		},
		Server: Server{
			Enabled: true,
			Port:    8080,
		},
		Notify: Notify{
			MinSeverity: "info",
		},
		Mode:     "simulation",
		LogLevel: "info",
	}
}

// Validate checks the configuration for values the core cannot run with.
func (c *Config) Validate() error {
	if len(c.Trading.Coins) == 0 {
		return fmt.Errorf("config: trading.coins must not be empty")
	}
	if len(c.Trading.Exchanges) < 2 {
		return fmt.Errorf("config: trading.exchanges needs at least 2 entries, got %d", len(c.Trading.Exchanges))
	}
	if c.Trading.ArbitrageThresholdPct < 0 {
		return fmt.Errorf("config: trading.arbitrage_threshold_pct must be >= 0")
	}
	if c.Trading.SimCapitalUSD <= 0 {
		return fmt.Errorf("config: trading.sim_capital_usd must be > 0")
	}
	if c.Trading.EstimatedFeePct < 0 {
		return fmt.Errorf("config: trading.estimated_fee_pct must be >= 0")
	}
	if c.Coingecko.MaxRetries <= 0 {
		return fmt.Errorf("config: coingecko.max_retries must be > 0")
	}
	if c.Sentiment.BullishThreshold <= c.Sentiment.BearishThreshold {
		return fmt.Errorf("config: sentiment.bullish_threshold must be above bearish_threshold")
	}
	switch strings.ToLower(c.Ledger.Backend) {
	case "file":
		if c.Ledger.Path == "" {
			return fmt.Errorf("config: ledger.path is required for the file backend")
		}
	case "postgres":
		pg := c.Ledger.Postgres
		if pg.DSN == "" && (pg.Host == "" || pg.Database == "" || pg.User == "") {
			return fmt.Errorf("config: ledger.postgres needs a dsn or host/database/user")
		}
	default:
		return fmt.Errorf("config: unsupported ledger.backend %q", c.Ledger.Backend)
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" || c.S3.Region == "" {
			return fmt.Errorf("config: s3.bucket and s3.region are required when s3 is enabled")
		}
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch c.Mode {
	case "simulation", "paper", "live":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}
	return nil
}
