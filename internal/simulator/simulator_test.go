package simulator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/cryptohunter/internal/domain"
)

// fakeStore is an in-memory TradeHistoryStore.
type fakeStore struct {
	trades    []domain.SimulatedTrade
	loadErr   error
	appendErr error
}

func (f *fakeStore) LoadAll(context.Context) ([]domain.SimulatedTrade, error) {
	return f.trades, f.loadErr
}

func (f *fakeStore) Append(_ context.Context, t domain.SimulatedTrade) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.trades = append(f.trades, t)
	return nil
}

func newTestSimulator(capital float64, store domain.TradeHistoryStore) *Simulator {
	s := New(Config{
		InitialCapitalUSD: capital,
		FeePct:            0.2,
		Mode:              domain.ModeSimulation,
	}, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.SetNow(func() time.Time { return time.Unix(1_700_000_000, 0) })
	s.SetIDFunc(func() string { return "trade-1" })
	return s
}

func viableOpp() domain.Opportunity {
	return domain.Opportunity{
		Coin:         "bitcoin",
		BuyExchange:  "binance",
		SellExchange: "coinbase",
		BuyPrice:     67000,
		SellPrice:    69000,
		NetSpreadPct: 2.585,
		Viable:       true,
	}
}

func neutral() domain.SentimentResult {
	return domain.SentimentResult{Coin: "bitcoin", Score: 0, Label: domain.SentimentNeutral}
}

func TestRiskMultiplier(t *testing.T) {
	tests := []struct {
		score    float64
		trending bool
		want     float64
	}{
		{0.9, false, 1.5},
		{0.5, false, 1.5},
		{0.3, false, 1.2},
		{0.2, false, 1.2},
		{0.0, false, 1.0},
		{-0.2, false, 1.0}, // boundary stays in the neutral band
		{-0.3, false, 0.7},
		{-0.5, false, 0.7}, // boundary stays in the bearish band
		{-0.6, false, 0.3},
		{-0.9, false, 0.3},
		{0.6, true, 1.65},
		{0.0, true, 1.1},
	}
	for _, tc := range tests {
		assert.InDelta(t, tc.want, riskMultiplier(tc.score, tc.trending), 1e-9,
			"score=%v trending=%v", tc.score, tc.trending)
	}
}

func TestExecuteSimulationSizing(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		trending bool
		wantUsed float64
	}{
		{"neutral sentiment uses half of capital", 0.0, false, 500},
		{"strongly bearish shrinks the position", -0.9, false, 150},
		{"bullish and trending hits the reserve cap", 0.6, true, 800},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSimulator(1000, &fakeStore{})
			sent := neutral()
			sent.Score = tc.score
			sent.Trending = tc.trending

			trade, err := s.ExecuteSimulation(context.Background(), viableOpp(), sent)
			require.NoError(t, err)
			assert.InDelta(t, tc.wantUsed, trade.CapitalUsed, 1e-9)

			// Reserve policy bounds always hold for settled trades.
			assert.GreaterOrEqual(t, trade.CapitalUsed, 10.0)
			assert.LessOrEqual(t, trade.CapitalUsed, 0.8*1000)
		})
	}
}

func TestExecuteSimulationSettlement(t *testing.T) {
	store := &fakeStore{}
	s := newTestSimulator(1000, store)

	trade, err := s.ExecuteSimulation(context.Background(), viableOpp(), neutral())
	require.NoError(t, err)

	// capital_used=500, units=500/67000, gross_revenue=units*69000.
	units := 500.0 / 67000.0
	grossRevenue := units * 69000.0
	grossProfit := grossRevenue - 500.0
	fees := 500.0*0.002 + grossRevenue*0.002
	netProfit := grossProfit - fees

	assert.InDelta(t, grossProfit, trade.GrossProfitUSD, 1e-9)
	assert.InDelta(t, fees, trade.FeesPaidUSD, 1e-9)
	assert.InDelta(t, netProfit, trade.NetProfitUSD, 1e-9)
	assert.InDelta(t, netProfit/500.0*100, trade.NetProfitPct, 1e-9)
	assert.Equal(t, domain.ModeSimulation, trade.Mode)
	assert.Equal(t, "trade-1", trade.ID)

	assert.InDelta(t, 1000+netProfit, s.CurrentCapital(), 1e-9)
	require.Len(t, store.trades, 1, "settled trade is persisted")
}

func TestExecuteSimulationViableTradeCanLose(t *testing.T) {
	s := newTestSimulator(1000, &fakeStore{})

	// Spread barely above zero: fees on both notionals push it negative.
	opp := viableOpp()
	opp.BuyPrice = 100.0
	opp.SellPrice = 100.1

	trade, err := s.ExecuteSimulation(context.Background(), opp, neutral())
	require.NoError(t, err)
	assert.Negative(t, trade.NetProfitUSD)
	assert.Less(t, s.CurrentCapital(), 1000.0)
}

func TestExecuteSimulationRejections(t *testing.T) {
	t.Run("non viable opportunity", func(t *testing.T) {
		s := newTestSimulator(1000, &fakeStore{})
		opp := viableOpp()
		opp.Viable = false
		_, err := s.ExecuteSimulation(context.Background(), opp, neutral())
		assert.ErrorIs(t, err, domain.ErrNotViable)
		assert.Empty(t, s.History())
	})

	t.Run("no capital", func(t *testing.T) {
		s := newTestSimulator(0, &fakeStore{})
		_, err := s.ExecuteSimulation(context.Background(), viableOpp(), neutral())
		assert.ErrorIs(t, err, domain.ErrNoCapital)
	})

	t.Run("capital below minimum position", func(t *testing.T) {
		s := newTestSimulator(5, &fakeStore{})
		_, err := s.ExecuteSimulation(context.Background(), viableOpp(), neutral())
		assert.ErrorIs(t, err, domain.ErrNoCapital)
		assert.Empty(t, s.History())
	})
}

func TestExecuteSimulationPersistenceFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{appendErr: errors.New("disk full")}
	s := newTestSimulator(1000, store)

	trade, err := s.ExecuteSimulation(context.Background(), viableOpp(), neutral())
	require.NoError(t, err, "persistence failures never fail the settlement")

	// In-memory ledger stays authoritative.
	assert.InDelta(t, 1000+trade.NetProfitUSD, s.CurrentCapital(), 1e-9)
	require.Len(t, s.History(), 1)
}

func TestRehydrateReconcilesCapital(t *testing.T) {
	store := &fakeStore{trades: []domain.SimulatedTrade{
		{ID: "a", NetProfitUSD: 25.5},
		{ID: "b", NetProfitUSD: -10.0},
		{ID: "c", NetProfitUSD: 4.5},
	}}
	s := newTestSimulator(1000, store)

	require.NoError(t, s.Rehydrate(context.Background()))
	assert.InDelta(t, 1020.0, s.CurrentCapital(), 1e-9)
	assert.Len(t, s.History(), 3)
}

func TestRehydrateEmptyStore(t *testing.T) {
	s := newTestSimulator(1000, &fakeStore{})
	require.NoError(t, s.Rehydrate(context.Background()))
	assert.InDelta(t, 1000.0, s.CurrentCapital(), 1e-9)
	assert.Empty(t, s.History())
}

func TestPerformanceSummary(t *testing.T) {
	store := &fakeStore{trades: []domain.SimulatedTrade{
		{NetProfitUSD: 30.0},
		{NetProfitUSD: -12.0},
		{NetProfitUSD: 6.0},
		{NetProfitUSD: 0.0}, // zero profit counts as a loss
	}}
	s := newTestSimulator(1000, store)
	require.NoError(t, s.Rehydrate(context.Background()))

	sum := s.PerformanceSummary()
	assert.Equal(t, 4, sum.TotalTrades)
	assert.Equal(t, 2, sum.WinningTrades)
	assert.Equal(t, 2, sum.LosingTrades)
	assert.InDelta(t, 50.0, sum.WinRatePct, 1e-9)
	assert.InDelta(t, 24.0, sum.TotalProfitUSD, 1e-9)
	assert.InDelta(t, 2.4, sum.TotalReturnPct, 1e-9)
	assert.InDelta(t, 6.0, sum.AvgProfitPerTrade, 1e-9)
	assert.InDelta(t, 30.0, sum.BestTradeUSD, 1e-9)
	assert.InDelta(t, -12.0, sum.WorstTradeUSD, 1e-9)
	assert.InDelta(t, 1024.0, sum.CurrentCapital, 1e-9)
}

func TestPerformanceSummaryEmpty(t *testing.T) {
	s := newTestSimulator(1000, &fakeStore{})
	sum := s.PerformanceSummary()
	assert.Equal(t, 0, sum.TotalTrades)
	assert.Zero(t, sum.WinRatePct)
	assert.InDelta(t, 1000.0, sum.CurrentCapital, 1e-9)
}

func TestRecentTrades(t *testing.T) {
	store := &fakeStore{trades: []domain.SimulatedTrade{
		{ID: "a"}, {ID: "b"}, {ID: "c"},
	}}
	s := newTestSimulator(1000, store)
	require.NoError(t, s.Rehydrate(context.Background()))

	recent := s.RecentTrades(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].ID)
	assert.Equal(t, "b", recent[1].ID)

	assert.Len(t, s.RecentTrades(10), 3)
}
