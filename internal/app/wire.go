package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/antigravity/cryptohunter/internal/blob/s3"
	"github.com/antigravity/cryptohunter/internal/cache/redis"
	"github.com/antigravity/cryptohunter/internal/config"
	"github.com/antigravity/cryptohunter/internal/domain"
	"github.com/antigravity/cryptohunter/internal/notify"
	"github.com/antigravity/cryptohunter/internal/store/jsonfile"
	"github.com/antigravity/cryptohunter/internal/store/postgres"
)

// Dependencies bundles the infrastructure the monitor and the simulator need
// to operate. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// TradeStore is the persistent ledger backend (JSON file or Postgres).
	TradeStore domain.TradeHistoryStore

	// PriceCache is nil unless Redis is enabled.
	PriceCache domain.PriceCache

	// Archiver is nil unless S3 is enabled.
	Archiver domain.LedgerArchiver

	// Alerter fans alerts out to the configured channels. Always non-nil;
	// with no channels configured it is a no-op.
	Alerter *notify.Alerter
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Trade ledger ---
	switch strings.ToLower(cfg.Ledger.Backend) {
	case "postgres":
		pg := cfg.Ledger.Postgres
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      pg.DSN,
			Host:     pg.Host,
			Port:     pg.Port,
			Database: pg.Database,
			User:     pg.User,
			Password: pg.Password,
			SSLMode:  pg.SSLMode,
			MaxConns: pg.PoolMaxConns,
			MinConns: pg.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if pg.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.TradeStore = postgres.NewTradeHistoryStore(pgClient.Pool())

	default:
		deps.TradeStore = jsonfile.New(cfg.Ledger.Path, logger)
	}

	// --- Redis price cache (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			// The cache is an accelerator, not a requirement. Run without it.
			logger.WarnContext(ctx, "redis unavailable, continuing without price cache",
				slog.String("addr", cfg.Redis.Addr),
				slog.String("error", err.Error()),
			)
		} else {
			closers = append(closers, func() { _ = redisClient.Close() })
			deps.PriceCache = redis.NewPriceCache(redisClient)
		}
	}

	// --- S3 ledger archival (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.Archiver = s3blob.NewLedgerArchiver(s3blob.NewWriter(s3Client))
	}

	// --- Alert channels ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Alerter = notify.NewAlerter(senders, notify.ParseSeverity(cfg.Notify.MinSeverity), logger)

	return deps, cleanup, nil
}
