package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/cryptohunter/internal/domain"
	"github.com/antigravity/cryptohunter/internal/monitor"
	"github.com/antigravity/cryptohunter/internal/simulator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func viableOpp(coin string, netPct float64) domain.Opportunity {
	return domain.Opportunity{
		Coin:         coin,
		BuyExchange:  "binance",
		SellExchange: "kraken",
		BuyPrice:     100,
		SellPrice:    100 * (1 + netPct/100),
		NetSpreadPct: netPct,
		Viable:       true,
	}
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(discardLogger())

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestListRecentTrades(t *testing.T) {
	sim := simulator.New(simulator.Config{InitialCapitalUSD: 1000, FeePct: 0.1}, nil, discardLogger())
	for _, coin := range []string{"bitcoin", "ethereum", "solana"} {
		_, err := sim.ExecuteSimulation(context.Background(), viableOpp(coin, 1.5), domain.SentimentResult{Score: 0})
		require.NoError(t, err)
	}

	h := NewTradeHandler(sim, discardLogger())

	rec := httptest.NewRecorder()
	h.ListRecent(rec, httptest.NewRequest(http.MethodGet, "/api/trades/recent?limit=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Trades []domain.SimulatedTrade `json:"trades"`
		Count  int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	// Newest first.
	assert.Equal(t, "solana", body.Trades[0].Coin)
	assert.Equal(t, "ethereum", body.Trades[1].Coin)
}

func TestListRecentTradesEmptyLedger(t *testing.T) {
	sim := simulator.New(simulator.Config{InitialCapitalUSD: 1000}, nil, discardLogger())
	h := NewTradeHandler(sim, discardLogger())

	rec := httptest.NewRecorder()
	h.ListRecent(rec, httptest.NewRequest(http.MethodGet, "/api/trades/recent", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"trades":[],"count":0}`, rec.Body.String())
}

func TestPerformance(t *testing.T) {
	sim := simulator.New(simulator.Config{InitialCapitalUSD: 1000, FeePct: 0.1}, nil, discardLogger())
	_, err := sim.ExecuteSimulation(context.Background(), viableOpp("bitcoin", 2.0), domain.SentimentResult{Score: 0})
	require.NoError(t, err)

	h := NewTradeHandler(sim, discardLogger())

	rec := httptest.NewRecorder()
	h.Performance(rec, httptest.NewRequest(http.MethodGet, "/api/performance", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var summary domain.PerformanceSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalTrades)
	assert.Greater(t, summary.CurrentCapital, 1000.0)
}

func idleMonitor(t *testing.T) *monitor.Monitor {
	t.Helper()
	sim := simulator.New(simulator.Config{InitialCapitalUSD: 1000}, nil, discardLogger())
	return monitor.New(
		monitor.Config{Coins: []string{"bitcoin"}},
		monitor.Deps{Simulator: sim},
		discardLogger(),
	)
}

func TestBotStatusNotRunning(t *testing.T) {
	m := idleMonitor(t)
	h := NewBotHandler(m, discardLogger())

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var st monitor.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.False(t, st.Running)
	assert.Zero(t, st.Cycle)
}

func TestBotStopWithoutStartConflicts(t *testing.T) {
	h := NewBotHandler(idleMonitor(t), discardLogger())

	rec := httptest.NewRecorder()
	h.Stop(rec, httptest.NewRequest(http.MethodPost, "/api/bot/stop", nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"bot is not running"}`, rec.Body.String())
}

func TestLimitParam(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "default", query: "", want: 20},
		{name: "explicit", query: "?limit=7", want: 7},
		{name: "capped", query: "?limit=9999", want: 500},
		{name: "garbage ignored", query: "?limit=abc", want: 20},
		{name: "negative ignored", query: "?limit=-5", want: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/trades/recent"+tt.query, nil)
			assert.Equal(t, tt.want, limitParam(r, 20))
		})
	}
}
