// Package notify fans alerts out to the configured channels (Telegram,
// Discord). Delivery is strictly fire-and-forget: a dead webhook must never
// slow down or fail a scan cycle.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/antigravity/cryptohunter/internal/domain"
)

// Severity orders alerts by urgency.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// String returns the severity's wire form.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "INFO"
	}
}

// ParseSeverity reads a severity from config text. Unknown text means INFO.
func ParseSeverity(s string) Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WARNING":
		return SeverityWarning
	case "CRITICAL":
		return SeverityCritical
	default:
		return SeverityInfo
	}
}

// Sender is one delivery channel.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender.
	Name() string
}

// Alerter delivers alerts at or above a minimum severity to every sender.
type Alerter struct {
	senders     []Sender
	minSeverity Severity
	logger      *slog.Logger
}

// NewAlerter creates an Alerter. With no senders every alert is a no-op,
// which is the default deployment.
func NewAlerter(senders []Sender, minSeverity Severity, logger *slog.Logger) *Alerter {
	return &Alerter{
		senders:     senders,
		minSeverity: minSeverity,
		logger:      logger.With(slog.String("component", "alerter")),
	}
}

// SendAlert delivers to all senders. Individual failures are logged and
// swallowed; the caller never sees an error.
func (a *Alerter) SendAlert(ctx context.Context, subject, body string, severity Severity) {
	if severity < a.minSeverity || len(a.senders) == 0 {
		return
	}

	title := fmt.Sprintf("[%s] %s", severity, subject)
	for _, s := range a.senders {
		if err := s.Send(ctx, title, body); err != nil {
			a.logger.WarnContext(ctx, "alert delivery failed",
				slog.String("sender", s.Name()),
				slog.String("subject", subject),
				slog.String("error", err.Error()),
			)
			continue
		}
		a.logger.DebugContext(ctx, "alert delivered",
			slog.String("sender", s.Name()),
			slog.String("subject", subject),
		)
	}
}

// ArbitrageAlert formats and sends the standard opportunity alert. The trade
// may be nil when sizing was rejected (e.g. no capital).
func (a *Alerter) ArbitrageAlert(ctx context.Context, opp domain.Opportunity, sent domain.SentimentResult, trade *domain.SimulatedTrade) {
	var b strings.Builder
	fmt.Fprintf(&b, "Coin: %s\n", opp.Coin)
	fmt.Fprintf(&b, "Buy %s @ $%.2f, sell %s @ $%.2f\n",
		opp.BuyExchange, opp.BuyPrice, opp.SellExchange, opp.SellPrice)
	fmt.Fprintf(&b, "Net spread: %.3f%% (gross %.3f%%)\n", opp.NetSpreadPct, opp.GrossSpreadPct)
	fmt.Fprintf(&b, "Sentiment: %s (%.2f)", sent.Label, sent.Score)
	if sent.Trending {
		b.WriteString(" [trending]")
	}
	b.WriteString("\n")
	if trade != nil {
		fmt.Fprintf(&b, "Simulated: $%.2f deployed, net P&L $%.2f (%.3f%%)",
			trade.CapitalUsed, trade.NetProfitUSD, trade.NetProfitPct)
	} else {
		b.WriteString("Simulated: no trade")
	}

	subject := fmt.Sprintf("Arbitrage: %s %.2f%% net", opp.Coin, opp.NetSpreadPct)
	a.SendAlert(ctx, subject, b.String(), SeverityInfo)
}

// CycleFailureAlert reports a cycle that produced no data at all. Rate
// limited to one alert per cooldown window so an extended outage does not
// spam the channels.
type CycleFailureAlert struct {
	alerter  *Alerter
	cooldown time.Duration
	lastSent time.Time
}

// NewCycleFailureAlert wraps an Alerter with a cooldown.
func NewCycleFailureAlert(a *Alerter, cooldown time.Duration) *CycleFailureAlert {
	if cooldown <= 0 {
		cooldown = 30 * time.Minute
	}
	return &CycleFailureAlert{alerter: a, cooldown: cooldown}
}

// Report sends a WARNING if the cooldown has elapsed.
func (c *CycleFailureAlert) Report(ctx context.Context, cycle int, detail string) {
	if time.Since(c.lastSent) < c.cooldown {
		return
	}
	c.lastSent = time.Now()
	c.alerter.SendAlert(ctx,
		"Price feed degraded",
		fmt.Sprintf("Cycle %d produced no real market data.\n%s", cycle, detail),
		SeverityWarning,
	)
}
