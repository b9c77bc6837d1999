package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/antigravity/cryptohunter/internal/domain"
	"github.com/antigravity/cryptohunter/internal/monitor"
)

// BotHandler exposes the monitor loop's lifecycle and status.
type BotHandler struct {
	monitor *monitor.Monitor
	logger  *slog.Logger
}

// NewBotHandler creates a BotHandler driving the given monitor.
func NewBotHandler(m *monitor.Monitor, logger *slog.Logger) *BotHandler {
	return &BotHandler{monitor: m, logger: logger}
}

// Status reports the monitor loop's current state.
// GET /api/status
func (h *BotHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Status())
}

// Start launches the monitor loop.
// POST /api/bot/start
func (h *BotHandler) Start(w http.ResponseWriter, r *http.Request) {
	// The loop must outlive this request, so it runs on the background
	// context rather than the request's.
	if err := h.monitor.Start(context.Background()); err != nil {
		if errors.Is(err, domain.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, "bot is already running")
			return
		}
		h.logger.Error("failed to start monitor", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to start bot")
		return
	}

	h.logger.Info("monitor started via api")
	writeJSON(w, http.StatusOK, h.monitor.Status())
}

// Stop halts the monitor loop after the current coin completes.
// POST /api/bot/stop
func (h *BotHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.Stop(); err != nil {
		if errors.Is(err, domain.ErrNotRunning) {
			writeError(w, http.StatusConflict, "bot is not running")
			return
		}
		h.logger.Error("failed to stop monitor", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to stop bot")
		return
	}

	h.logger.Info("monitor stopped via api")
	writeJSON(w, http.StatusOK, h.monitor.Status())
}
