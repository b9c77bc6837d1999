// Package arbitrage computes cross-exchange spreads from per-exchange quote
// sets and decides which spreads survive round-trip fees. It is pure
// computation: no I/O, no clock, no randomness.
package arbitrage

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/antigravity/cryptohunter/internal/domain"
)

// Config holds the detector's economics.
type Config struct {
	// MinSpreadPct is the minimum net spread, in percent, for an
	// opportunity to be viable. Inclusive: a net spread exactly at the
	// threshold passes.
	MinSpreadPct float64
	// FeePct is the per-side trading fee in percent; a round trip costs
	// twice this.
	FeePct float64
	// SimCapitalUSD is the notional used for the estimated-profit figure.
	SimCapitalUSD float64
}

// Detector finds buy-low/sell-high pairs across exchanges.
type Detector struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Detector.
func New(cfg Config, logger *slog.Logger) *Detector {
	return &Detector{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "detector")),
	}
}

// FindOpportunity picks the cheapest exchange to buy on and the dearest to
// sell on, then nets out the round-trip fee. Exchanges are scanned in sorted
// name order so ties always resolve the same way. Returns false when fewer
// than two exchanges have prices.
func (d *Detector) FindOpportunity(coin string, prices map[string]float64) (domain.Opportunity, bool) {
	if len(prices) < 2 {
		return domain.Opportunity{}, false
	}

	exchanges := sortedKeys(prices)

	buyEx, sellEx := exchanges[0], exchanges[0]
	for _, ex := range exchanges[1:] {
		if prices[ex] < prices[buyEx] {
			buyEx = ex
		}
		if prices[ex] > prices[sellEx] {
			sellEx = ex
		}
	}

	// All prices equal collapses buy and sell onto one exchange; there is
	// nothing to trade.
	if buyEx == sellEx {
		return domain.Opportunity{}, false
	}

	buy, sell := prices[buyEx], prices[sellEx]
	if buy <= 0 {
		return domain.Opportunity{}, false
	}

	grossPct := (sell - buy) / buy * 100
	netPct := grossPct - 2*d.cfg.FeePct

	opp := domain.Opportunity{
		Coin:           coin,
		BuyExchange:    buyEx,
		SellExchange:   sellEx,
		BuyPrice:       buy,
		SellPrice:      sell,
		GrossSpreadPct: grossPct,
		NetSpreadPct:   netPct,
		EstProfitUSD:   netPct / 100 * d.cfg.SimCapitalUSD,
		Viable:         netPct >= d.cfg.MinSpreadPct,
	}

	if opp.Viable {
		d.logger.Info("viable opportunity",
			slog.String("coin", coin),
			slog.String("buy", buyEx),
			slog.String("sell", sellEx),
			slog.Float64("net_pct", netPct),
		)
	}
	return opp, true
}

// ScanAllCoins evaluates every coin in the snapshot and returns the viable
// opportunities sorted by net spread, best first.
func (d *Detector) ScanAllCoins(snapshot domain.PriceSnapshot) []domain.Opportunity {
	viable := make([]domain.Opportunity, 0, len(snapshot))
	for _, coin := range sortedKeys(snapshot) {
		opp, ok := d.FindOpportunity(coin, snapshot[coin].Prices())
		if ok && opp.Viable {
			viable = append(viable, opp)
		}
	}
	sort.SliceStable(viable, func(i, j int) bool {
		return viable[i].NetSpreadPct > viable[j].NetSpreadPct
	})
	return viable
}

// PriceMatrix computes the gross spread percentage for every unordered
// exchange pair, keyed with the exchanges in sorted name order. One entry
// per pair; the sign says which side is dearer.
func (d *Detector) PriceMatrix(prices map[string]float64) domain.SpreadMatrix {
	matrix := make(domain.SpreadMatrix)
	exchanges := sortedKeys(prices)
	for i, exA := range exchanges {
		a := prices[exA]
		if a <= 0 {
			continue
		}
		for _, exB := range exchanges[i+1:] {
			matrix[domain.ExchangePair{Buy: exA, Sell: exB}] = (prices[exB] - a) / a * 100
		}
	}
	return matrix
}

// PriceSummary renders a one-line human-readable summary of a quote set,
// exchanges in sorted order. Used by log output and the status endpoint.
func PriceSummary(coin string, quotes domain.QuoteSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", coin)
	for _, ex := range sortedKeys(quotes) {
		q := quotes[ex]
		fmt.Fprintf(&b, " %s=$%.2f", ex, q.PriceUSD)
		if q.Source != domain.QuoteSourceReal {
			fmt.Fprintf(&b, "(%s)", q.Source)
		}
	}
	return b.String()
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
