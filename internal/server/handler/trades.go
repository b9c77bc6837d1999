package handler

import (
	"log/slog"
	"net/http"

	"github.com/antigravity/cryptohunter/internal/domain"
	"github.com/antigravity/cryptohunter/internal/simulator"
)

// TradeHandler serves the simulated trade ledger.
type TradeHandler struct {
	sim    *simulator.Simulator
	logger *slog.Logger
}

// NewTradeHandler creates a TradeHandler backed by the given simulator.
func NewTradeHandler(sim *simulator.Simulator, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{sim: sim, logger: logger}
}

// ListRecent returns the most recent simulated trades, newest first.
// GET /api/trades/recent?limit=N
func (h *TradeHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, 20)
	trades := h.sim.RecentTrades(limit)
	if trades == nil {
		trades = []domain.SimulatedTrade{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trades": trades,
		"count":  len(trades),
	})
}

// Performance returns aggregate P&L statistics for the session.
// GET /api/performance
func (h *TradeHandler) Performance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sim.PerformanceSummary())
}
