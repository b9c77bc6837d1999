package notify

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

type recordingSender struct {
	name    string
	titles  []string
	bodies  []string
	sendErr error
}

func (r *recordingSender) Send(_ context.Context, title, message string) error {
	if r.sendErr != nil {
		return r.sendErr
	}
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, message)
	return nil
}

func (r *recordingSender) Name() string { return r.name }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendAlertFansOut(t *testing.T) {
	tg := &recordingSender{name: "telegram"}
	dc := &recordingSender{name: "discord"}
	a := NewAlerter([]Sender{tg, dc}, SeverityInfo, discard())

	a.SendAlert(context.Background(), "spread found", "details", SeverityInfo)

	require.Len(t, tg.titles, 1)
	require.Len(t, dc.titles, 1)
	assert.Equal(t, "[INFO] spread found", tg.titles[0])
	assert.Equal(t, "details", tg.bodies[0])
}

func TestSendAlertSeverityFilter(t *testing.T) {
	s := &recordingSender{name: "telegram"}
	a := NewAlerter([]Sender{s}, SeverityWarning, discard())

	a.SendAlert(context.Background(), "low", "x", SeverityInfo)
	assert.Empty(t, s.titles)

	a.SendAlert(context.Background(), "high", "x", SeverityCritical)
	require.Len(t, s.titles, 1)
	assert.Equal(t, "[CRITICAL] high", s.titles[0])
}

func TestSendAlertSenderFailureIsSwallowed(t *testing.T) {
	broken := &recordingSender{name: "telegram", sendErr: errors.New("webhook gone")}
	working := &recordingSender{name: "discord"}
	a := NewAlerter([]Sender{broken, working}, SeverityInfo, discard())

	// Must not panic or error, and must still reach the healthy sender.
	a.SendAlert(context.Background(), "subject", "body", SeverityInfo)
	require.Len(t, working.titles, 1)
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityInfo, ParseSeverity("info"))
	assert.Equal(t, SeverityWarning, ParseSeverity(" WARNING "))
	assert.Equal(t, SeverityCritical, ParseSeverity("critical"))
	assert.Equal(t, SeverityInfo, ParseSeverity("bogus"))
}

func TestArbitrageAlertFormatting(t *testing.T) {
	s := &recordingSender{name: "telegram"}
	a := NewAlerter([]Sender{s}, SeverityInfo, discard())

	opp := domain.Opportunity{
		Coin:           "bitcoin",
		BuyExchange:    "binance",
		SellExchange:   "coinbase",
		BuyPrice:       67000,
		SellPrice:      69000,
		GrossSpreadPct: 2.985,
		NetSpreadPct:   2.585,
		Viable:         true,
	}
	sent := domain.SentimentResult{
		Score:    0.6,
		Label:    domain.SentimentBullish,
		Trending: true,
	}
	trade := &domain.SimulatedTrade{
		CapitalUsed:  800,
		NetProfitUSD: 20.5,
		NetProfitPct: 2.56,
	}

	a.ArbitrageAlert(context.Background(), opp, sent, trade)

	require.Len(t, s.bodies, 1)
	body := s.bodies[0]
	assert.Contains(t, body, "Buy binance @ $67000.00, sell coinbase @ $69000.00")
	assert.Contains(t, body, "Net spread: 2.585%")
	assert.Contains(t, body, "BULLISH")
	assert.Contains(t, body, "[trending]")
	assert.Contains(t, body, "$800.00 deployed")
	assert.Contains(t, s.titles[0], "bitcoin 2.58% net")
}

func TestArbitrageAlertWithoutTrade(t *testing.T) {
	s := &recordingSender{name: "telegram"}
	a := NewAlerter([]Sender{s}, SeverityInfo, discard())

	a.ArbitrageAlert(context.Background(), domain.Opportunity{Coin: "solana"}, domain.SentimentResult{Label: domain.SentimentNeutral}, nil)
	require.Len(t, s.bodies, 1)
	assert.Contains(t, s.bodies[0], "Simulated: no trade")
}

func TestCycleFailureAlertCooldown(t *testing.T) {
	s := &recordingSender{name: "telegram"}
	a := NewAlerter([]Sender{s}, SeverityInfo, discard())
	fail := NewCycleFailureAlert(a, time.Hour)

	fail.Report(context.Background(), 3, "api unreachable")
	require.Len(t, s.titles, 1)
	assert.Equal(t, "[WARNING] Price feed degraded", s.titles[0])
	assert.Contains(t, s.bodies[0], "Cycle 3")

	// Inside the cooldown window the second report is suppressed.
	fail.Report(context.Background(), 4, "api unreachable")
	assert.Len(t, s.titles, 1)

	// Once the window has passed, reports flow again.
	fail.lastSent = time.Now().Add(-2 * time.Hour)
	fail.Report(context.Background(), 5, "api unreachable")
	assert.Len(t, s.titles, 2)
}
