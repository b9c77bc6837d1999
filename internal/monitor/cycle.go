package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/antigravity/cryptohunter/internal/arbitrage"
	"github.com/antigravity/cryptohunter/internal/domain"
	"github.com/antigravity/cryptohunter/internal/predictor"
)

// runCycle processes every configured coin once. External failures inside a
// cycle degrade to "no data for this coin", never abort the loop.
func (m *Monitor) runCycle(ctx context.Context) {
	m.mu.Lock()
	m.cycle++
	cycle := m.cycle
	m.mu.Unlock()

	start := time.Now()
	m.logger.Info("cycle started", slog.Int("cycle", cycle))

	if fg, ok := m.sentiment.GetFearAndGreed(ctx); ok {
		m.mu.Lock()
		m.lastFG = fg
		m.mu.Unlock()
		if m.cache != nil {
			if err := m.cache.SetFearGreed(ctx, fg); err != nil {
				m.logger.Warn("cache fear greed", slog.String("error", err.Error()))
			}
		}
	}

	if cycle == 1 {
		m.logOverview(ctx)
	}

	simple := m.fetcher.SimplePrices(ctx, m.cfg.Coins)
	m.cacheSimplePrices(ctx, simple)

	snapshot := make(domain.PriceSnapshot, len(m.cfg.Coins))
	var opportunities []domain.Opportunity
	var trades []domain.SimulatedTrade

	for _, coin := range m.cfg.Coins {
		// Stop boundary: between coins, never mid-fetch.
		if ctx.Err() != nil {
			m.logger.Info("cycle interrupted", slog.Int("cycle", cycle), slog.String("coin", coin))
			return
		}

		quotes := m.fetcher.ExchangePrices(ctx, coin, m.cfg.Exchanges)
		if len(quotes) == 0 {
			continue
		}
		snapshot[coin] = quotes
		m.logger.Debug("prices", slog.String("summary", arbitrage.PriceSummary(coin, quotes)))

		sent := m.sentiment.Analyze(coin)

		opp, ok := m.detector.FindOpportunity(coin, quotes.Prices())
		if ok {
			opportunities = append(opportunities, opp)
		}
		if ok && opp.Viable {
			trade, err := m.sim.ExecuteSimulation(ctx, opp, sent)
			switch {
			case err == nil:
				trades = append(trades, trade)
				m.alerter.ArbitrageAlert(ctx, opp, sent, &trade)
			case errors.Is(err, domain.ErrNoCapital):
				m.logger.Warn("trade skipped", slog.String("coin", coin), slog.String("error", err.Error()))
				m.alerter.ArbitrageAlert(ctx, opp, sent, nil)
			default:
				m.logger.Warn("simulation failed", slog.String("coin", coin), slog.String("error", err.Error()))
			}
		}

		m.recordSample(coin, simple, quotes, sent)
		m.predict(coin, simple, sent)
	}

	live := 0
	for _, quotes := range snapshot {
		if !quotes.Synthetic() {
			live++
		}
	}
	if live == 0 {
		m.failAlert.Report(ctx, cycle, "no live exchange prices this cycle, running on fallback data")
	}

	m.mu.Lock()
	m.lastCycleAt = time.Now().UTC()
	m.mu.Unlock()

	if m.hub != nil {
		m.hub.BroadcastJSON("cycle", map[string]any{
			"cycle":         cycle,
			"prices":        snapshot,
			"opportunities": opportunities,
			"trades":        trades,
			"capital":       m.sim.CurrentCapital(),
		})
	}

	if cycle%m.cfg.SummaryEvery == 0 {
		m.summarize(ctx, cycle)
	}

	m.logger.Info("cycle finished",
		slog.Int("cycle", cycle),
		slog.Int("coins_priced", len(snapshot)),
		slog.Int("opportunities", len(opportunities)),
		slog.Int("trades", len(trades)),
		slog.Duration("took", time.Since(start)),
	)
}

func (m *Monitor) logOverview(ctx context.Context) {
	coins := m.fetcher.MarketOverview(ctx, m.cfg.OverviewLimit)
	for _, c := range coins {
		m.logger.Info("market overview",
			slog.Int("rank", c.Rank),
			slog.String("coin", c.ID),
			slog.Float64("price", c.PriceUSD),
			slog.Float64("change_24h_pct", c.Change24hPct),
		)
	}
}

func (m *Monitor) cacheSimplePrices(ctx context.Context, simple map[string]domain.SimplePrice) {
	if m.cache == nil {
		return
	}
	now := time.Now().UTC()
	for coin, sp := range simple {
		if sp.USD <= 0 {
			continue
		}
		if err := m.cache.SetPrice(ctx, coin, sp.USD, now); err != nil {
			m.logger.Warn("cache price", slog.String("coin", coin), slog.String("error", err.Error()))
		}
	}
}

// recordSample appends one classifier training sample for the coin and
// updates the recent-price window. Real global prices are preferred; when
// only exchange quotes exist their minimum stands in.
func (m *Monitor) recordSample(coin string, simple map[string]domain.SimplePrice, quotes domain.QuoteSet, sent domain.SentimentResult) {
	price := simple[coin].USD
	if price <= 0 {
		for _, q := range quotes {
			if price == 0 || q.PriceUSD < price {
				price = q.PriceUSD
			}
		}
	}
	if price <= 0 {
		return
	}

	m.mu.Lock()
	window := append(m.recentPrices[coin], price)
	if len(window) > recentPriceWindow {
		window = window[len(window)-recentPriceWindow:]
	}
	m.recentPrices[coin] = window
	fg := m.lastFG
	m.mu.Unlock()

	if m.recorder == nil {
		return
	}
	err := m.recorder.Record(predictor.Sample{
		Timestamp:      time.Now().UTC(),
		Coin:           coin,
		PriceUSD:       price,
		Change24hPct:   simple[coin].Change24h,
		SentimentScore: sent.Score,
		FearGreed:      fg.Value,
	})
	if err != nil {
		m.logger.Warn("record sample", slog.String("coin", coin), slog.String("error", err.Error()))
	}
}

func (m *Monitor) predict(coin string, simple map[string]domain.SimplePrice, sent domain.SentimentResult) {
	if m.classifier == nil || !m.classifier.Trained() {
		return
	}

	m.mu.Lock()
	recent := m.recentPrices[coin]
	fg := m.lastFG
	m.mu.Unlock()

	pred := m.classifier.Predict(coin, simple[coin].Change24h, sent.Score, fg.Value, recent)
	if pred.Signal != domain.TrendUncertain {
		m.logger.Info("trend signal",
			slog.String("coin", coin),
			slog.String("signal", string(pred.Signal)),
			slog.Float64("confidence", pred.Confidence),
		)
	}
	if m.hub != nil {
		m.hub.BroadcastJSON("prediction", pred)
	}
}

// summarize logs the performance summary, retrains the classifier, and
// archives the ledger when an archiver is configured.
func (m *Monitor) summarize(ctx context.Context, cycle int) {
	sum := m.sim.PerformanceSummary()
	m.logger.Info("performance summary",
		slog.Int("cycle", cycle),
		slog.Int("trades", sum.TotalTrades),
		slog.Float64("win_rate_pct", sum.WinRatePct),
		slog.Float64("total_profit_usd", sum.TotalProfitUSD),
		slog.Float64("current_capital", sum.CurrentCapital),
	)
	if m.hub != nil {
		m.hub.BroadcastJSON("performance", sum)
	}

	if m.recorder != nil && m.classifier != nil {
		samples, err := m.recorder.LoadAll()
		if err != nil {
			m.logger.Warn("load samples for retrain", slog.String("error", err.Error()))
		} else if m.classifier.Train(samples) {
			m.logger.Info("classifier retrained", slog.Int("samples", len(samples)))
		}
	}

	if m.archiver != nil {
		key, err := m.archiver.ArchiveTrades(ctx, m.sim.History())
		if err != nil {
			m.logger.Warn("ledger archive failed", slog.String("error", err.Error()))
		} else if key != "" {
			m.logger.Info("ledger archived", slog.String("key", key))
		}
	}
}
