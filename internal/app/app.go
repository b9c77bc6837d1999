// Package app provides the top-level application lifecycle. It wires
// together all dependencies (ledger store, cache, blob storage, alert
// channels), assembles the monitor loop and the HTTP control surface, and
// runs them until the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/antigravity/cryptohunter/internal/arbitrage"
	"github.com/antigravity/cryptohunter/internal/config"
	"github.com/antigravity/cryptohunter/internal/domain"
	"github.com/antigravity/cryptohunter/internal/monitor"
	"github.com/antigravity/cryptohunter/internal/platform/coingecko"
	"github.com/antigravity/cryptohunter/internal/predictor"
	"github.com/antigravity/cryptohunter/internal/sentiment"
	"github.com/antigravity/cryptohunter/internal/server"
	"github.com/antigravity/cryptohunter/internal/server/handler"
	"github.com/antigravity/cryptohunter/internal/server/ws"
	"github.com/antigravity/cryptohunter/internal/simulator"
)

// shutdownTimeout bounds the HTTP server's graceful drain on exit.
const shutdownTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the monitor
// loop and (if enabled) the HTTP server, and blocks until the context is
// cancelled. On return it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	// --- Domain collaborators ---
	fetcher := coingecko.New(coingecko.Config{
		BaseURL:         a.cfg.Coingecko.BaseURL,
		RequestTimeout:  a.cfg.Coingecko.RequestTimeout.Duration,
		MinCallInterval: a.cfg.Coingecko.MinCallInterval.Duration,
		MaxRetries:      a.cfg.Coingecko.MaxRetries,
		MaxTickerPages:  a.cfg.Coingecko.MaxTickerPages,
	}, deps.PriceCache, a.logger)

	analyzer := sentiment.New(sentiment.Config{
		BullishThreshold: a.cfg.Sentiment.BullishThreshold,
		BearishThreshold: a.cfg.Sentiment.BearishThreshold,
		FearGreedURL:     a.cfg.Sentiment.FearGreedURL,
		RequestTimeout:   a.cfg.Sentiment.RequestTimeout.Duration,
	}, a.logger)

	detector := arbitrage.New(arbitrage.Config{
		MinSpreadPct:  a.cfg.Trading.ArbitrageThresholdPct,
		FeePct:        a.cfg.Trading.EstimatedFeePct,
		SimCapitalUSD: a.cfg.Trading.SimCapitalUSD,
	}, a.logger)

	sim := simulator.New(simulator.Config{
		InitialCapitalUSD: a.cfg.Trading.SimCapitalUSD,
		FeePct:            a.cfg.Trading.EstimatedFeePct,
		Mode:              domain.BotMode(a.cfg.Mode),
	}, deps.TradeStore, a.logger)

	if err := sim.Rehydrate(ctx); err != nil {
		return fmt.Errorf("app: rehydrate ledger: %w", err)
	}

	var recorder *predictor.Recorder
	var classifier *predictor.Classifier
	if a.cfg.Predictor.Enabled {
		recorder = predictor.NewRecorder(a.cfg.Predictor.DataPath, a.logger)
		classifier = predictor.NewClassifier(
			a.cfg.Predictor.ConfidenceThreshold,
			a.cfg.Predictor.MinSamples,
			a.logger,
		)
	}

	hub := ws.NewHub(a.cfg.Mode, a.logger)

	mon := monitor.New(
		monitor.Config{
			Coins:        a.cfg.Trading.Coins,
			Exchanges:    a.cfg.Trading.Exchanges,
			LoopInterval: a.cfg.Trading.LoopInterval.Duration,
			SummaryEvery: a.cfg.Predictor.RetrainEveryCycles,
		},
		monitor.Deps{
			Fetcher:    fetcher,
			Sentiment:  analyzer,
			Detector:   detector,
			Simulator:  sim,
			Recorder:   recorder,
			Classifier: classifier,
			Alerter:    deps.Alerter,
			Cache:      deps.PriceCache,
			Archiver:   deps.Archiver,
			Hub:        hub,
		},
		a.logger,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("app: ws hub: %w", err)
		}
		return nil
	})

	if err := mon.Start(ctx); err != nil {
		return fmt.Errorf("app: start monitor: %w", err)
	}
	g.Go(func() error {
		mon.Wait()
		return nil
	})

	if a.cfg.Server.Enabled {
		srv := server.NewServer(
			server.Config{
				Port:        a.cfg.Server.Port,
				CORSOrigins: a.cfg.Server.CORSOrigins,
				APIKey:      a.cfg.Server.APIKey,
			},
			server.Handlers{
				Health: handler.NewHealthHandler(a.logger),
				Bot:    handler.NewBotHandler(mon, a.logger),
				Trades: handler.NewTradeHandler(sim, a.logger),
			},
			hub,
			a.logger,
		)

		g.Go(srv.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
