// Package simulator is the capital ledger: it sizes paper trades from viable
// opportunities, settles their P&L against running capital, and keeps the
// ordered trade history durable. Viability is never decided here; sentiment
// only scales position size.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antigravity/cryptohunter/internal/domain"
)

const (
	// capitalReservePct caps a single trade at 80% of running capital.
	capitalReservePct = 0.8
	// baseSizingFactor is the conservatism factor applied before sentiment.
	baseSizingFactor = 0.5
	// minTradeUSD is the smallest position the ledger will open.
	minTradeUSD = 10.0
	// trendingBoost scales the risk multiplier when a coin is trending.
	trendingBoost = 1.1
)

// Config holds the simulator's economics.
type Config struct {
	// InitialCapitalUSD seeds the ledger when no history exists. After
	// rehydration the stored history is authoritative and this value only
	// anchors the reconciliation sum.
	InitialCapitalUSD float64
	// FeePct is the per-side trading fee in percent, charged on notional.
	FeePct float64
	// Mode is stamped on every settled trade.
	Mode domain.BotMode
}

// Simulator owns running capital and trade history. All state access is
// serialized behind one mutex; at most one settlement is in flight at a time.
type Simulator struct {
	cfg    Config
	store  domain.TradeHistoryStore
	logger *slog.Logger

	mu             sync.Mutex
	currentCapital float64
	history        []domain.SimulatedTrade

	now   func() time.Time
	newID func() string
}

// New creates a Simulator seeded with the configured initial capital. Call
// Rehydrate before the first settlement to load durable history.
func New(cfg Config, store domain.TradeHistoryStore, logger *slog.Logger) *Simulator {
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeSimulation
	}
	return &Simulator{
		cfg:            cfg,
		store:          store,
		logger:         logger.With(slog.String("component", "simulator")),
		currentCapital: cfg.InitialCapitalUSD,
		now:            time.Now,
		newID:          func() string { return uuid.NewString() },
	}
}

// SetNow replaces the clock.
func (s *Simulator) SetNow(f func() time.Time) { s.now = f }

// SetIDFunc replaces the trade id generator.
func (s *Simulator) SetIDFunc(f func() string) { s.newID = f }

// Rehydrate loads the persisted history and recomputes running capital as
// initial capital plus the sum of historical net profits. The stored history
// is authoritative: a changed configured capital between runs is absorbed by
// this rule. A corrupt or missing store loads as empty history.
func (s *Simulator) Rehydrate(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	trades, err := s.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("simulator: rehydrate: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = trades
	s.currentCapital = s.cfg.InitialCapitalUSD
	for _, t := range trades {
		s.currentCapital += t.NetProfitUSD
	}

	s.logger.InfoContext(ctx, "ledger rehydrated",
		slog.Int("trades", len(trades)),
		slog.Float64("initial_capital", s.cfg.InitialCapitalUSD),
		slog.Float64("current_capital", s.currentCapital),
	)
	return nil
}

// appendToStore persists a trade when a backing store is configured. A nil
// store means the ledger is in-memory only.
func (s *Simulator) appendToStore(ctx context.Context, trade domain.SimulatedTrade) error {
	if s.store == nil {
		return nil
	}
	return s.store.Append(ctx, trade)
}

// riskMultiplier maps a sentiment score in [-1, 1] to a sizing multiplier.
func riskMultiplier(score float64, trending bool) float64 {
	var m float64
	switch {
	case score >= 0.5:
		m = 1.5
	case score >= 0.2:
		m = 1.2
	case score >= -0.2:
		m = 1.0
	case score >= -0.5:
		m = 0.7
	default:
		m = 0.3
	}
	if trending {
		m *= trendingBoost
	}
	return m
}

// ExecuteSimulation settles one paper trade for a viable opportunity. It
// returns ErrNotViable for non-viable opportunities and ErrNoCapital when
// running capital cannot cover the minimum position; neither creates a
// record. A persistence failure is logged, not returned: the in-memory
// ledger stays authoritative for the rest of the process.
func (s *Simulator) ExecuteSimulation(ctx context.Context, opp domain.Opportunity, sent domain.SentimentResult) (domain.SimulatedTrade, error) {
	if !opp.Viable {
		return domain.SimulatedTrade{}, domain.ErrNotViable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentCapital <= 0 {
		return domain.SimulatedTrade{}, domain.ErrNoCapital
	}

	mult := riskMultiplier(sent.Score, sent.Trending)

	maxCapital := s.currentCapital * capitalReservePct
	if maxCapital < minTradeUSD {
		return domain.SimulatedTrade{}, fmt.Errorf("simulator: capital %.2f below minimum position: %w",
			s.currentCapital, domain.ErrNoCapital)
	}

	capitalUsed := s.currentCapital * mult * baseSizingFactor
	if capitalUsed < minTradeUSD {
		capitalUsed = minTradeUSD
	}
	if capitalUsed > maxCapital {
		capitalUsed = maxCapital
	}

	// Fees are charged on both notionals, so a viable spread can still
	// settle at a small loss.
	units := capitalUsed / opp.BuyPrice
	grossRevenue := units * opp.SellPrice
	grossProfit := grossRevenue - capitalUsed
	fees := capitalUsed*s.cfg.FeePct/100 + grossRevenue*s.cfg.FeePct/100
	netProfit := grossProfit - fees

	trade := domain.SimulatedTrade{
		ID:             s.newID(),
		Timestamp:      s.now().UTC(),
		Coin:           opp.Coin,
		BuyExchange:    opp.BuyExchange,
		SellExchange:   opp.SellExchange,
		BuyPrice:       opp.BuyPrice,
		SellPrice:      opp.SellPrice,
		CapitalUsed:    capitalUsed,
		GrossProfitUSD: grossProfit,
		FeesPaidUSD:    fees,
		NetProfitUSD:   netProfit,
		NetProfitPct:   netProfit / capitalUsed * 100,
		SentimentScore: sent.Score,
		SentimentLabel: string(sent.Label),
		RiskMultiplier: mult,
		Mode:           s.cfg.Mode,
	}

	s.currentCapital += netProfit
	s.history = append(s.history, trade)

	if err := s.appendToStore(ctx, trade); err != nil {
		s.logger.ErrorContext(ctx, "trade persistence failed, in-memory ledger remains authoritative",
			slog.String("trade_id", trade.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "trade settled",
		slog.String("coin", trade.Coin),
		slog.Float64("capital_used", capitalUsed),
		slog.Float64("net_profit", netProfit),
		slog.Float64("capital", s.currentCapital),
	)
	return trade, nil
}

// CurrentCapital returns the running capital.
func (s *Simulator) CurrentCapital() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentCapital
}

// History returns a copy of the settled trade history, oldest first.
func (s *Simulator) History() []domain.SimulatedTrade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SimulatedTrade, len(s.history))
	copy(out, s.history)
	return out
}

// RecentTrades returns up to n most recent trades, newest first.
func (s *Simulator) RecentTrades(n int) []domain.SimulatedTrade {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.history) {
		n = len(s.history)
	}
	out := make([]domain.SimulatedTrade, 0, n)
	for i := len(s.history) - 1; i >= len(s.history)-n; i-- {
		out = append(out, s.history[i])
	}
	return out
}

// PerformanceSummary aggregates the trade history. Pure read.
func (s *Simulator) PerformanceSummary() domain.PerformanceSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := domain.PerformanceSummary{
		TotalTrades:    len(s.history),
		InitialCapital: s.cfg.InitialCapitalUSD,
		CurrentCapital: s.currentCapital,
	}
	if len(s.history) == 0 {
		return sum
	}

	best, worst := s.history[0].NetProfitUSD, s.history[0].NetProfitUSD
	for _, t := range s.history {
		sum.TotalProfitUSD += t.NetProfitUSD
		if t.NetProfitUSD > 0 {
			sum.WinningTrades++
		} else {
			sum.LosingTrades++
		}
		if t.NetProfitUSD > best {
			best = t.NetProfitUSD
		}
		if t.NetProfitUSD < worst {
			worst = t.NetProfitUSD
		}
	}
	sum.BestTradeUSD = best
	sum.WorstTradeUSD = worst
	sum.WinRatePct = float64(sum.WinningTrades) / float64(sum.TotalTrades) * 100
	sum.AvgProfitPerTrade = sum.TotalProfitUSD / float64(sum.TotalTrades)
	if sum.InitialCapital > 0 {
		sum.TotalReturnPct = sum.TotalProfitUSD / sum.InitialCapital * 100
	}
	return sum
}
