// Package monitor drives the per-cycle pipeline: fetch prices, score
// sentiment, detect spreads, settle paper trades, record samples, alert.
// One cycle fully processes every configured coin before the next begins;
// a stop request takes effect at the next per-coin boundary, never mid-fetch.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/antigravity/cryptohunter/internal/arbitrage"
	"github.com/antigravity/cryptohunter/internal/domain"
	"github.com/antigravity/cryptohunter/internal/notify"
	"github.com/antigravity/cryptohunter/internal/predictor"
	"github.com/antigravity/cryptohunter/internal/simulator"
)

// recentPriceWindow is how many per-coin prices are kept for the
// classifier's moving-average feature.
const recentPriceWindow = 30

// Fetcher is the price retrieval surface the monitor consumes.
type Fetcher interface {
	SimplePrices(ctx context.Context, coinIDs []string) map[string]domain.SimplePrice
	ExchangePrices(ctx context.Context, coinID string, exchanges []string) domain.QuoteSet
	MarketOverview(ctx context.Context, limit int) []domain.MarketCoin
}

// SentimentSource supplies per-coin sentiment and the global index.
type SentimentSource interface {
	Analyze(coin string) domain.SentimentResult
	GetFearAndGreed(ctx context.Context) (domain.FearGreed, bool)
}

// Broadcaster pushes cycle events to connected dashboard clients. May be nil.
type Broadcaster interface {
	BroadcastJSON(event string, payload any)
}

// Config holds the monitor's loop parameters.
type Config struct {
	Coins         []string
	Exchanges     []string
	LoopInterval  time.Duration
	SummaryEvery  int
	OverviewLimit int
}

// Status is the monitor's public state snapshot for the control surface.
type Status struct {
	Running        bool             `json:"running"`
	Cycle          int              `json:"cycle"`
	StartedAt      *time.Time       `json:"started_at,omitempty"`
	LastCycleAt    *time.Time       `json:"last_cycle_at,omitempty"`
	CurrentCapital float64          `json:"current_capital"`
	FearGreed      domain.FearGreed `json:"fear_greed"`
	Coins          []string         `json:"coins"`
	Exchanges      []string         `json:"exchanges"`
}

// Monitor owns the scan loop. Start and Stop are safe for concurrent use
// with a running loop; everything inside a cycle runs on one goroutine.
type Monitor struct {
	cfg        Config
	fetcher    Fetcher
	sentiment  SentimentSource
	detector   *arbitrage.Detector
	sim        *simulator.Simulator
	recorder   *predictor.Recorder
	classifier *predictor.Classifier
	alerter    *notify.Alerter
	failAlert  *notify.CycleFailureAlert
	cache      domain.PriceCache     // optional
	archiver   domain.LedgerArchiver // optional
	hub        Broadcaster           // optional
	logger     *slog.Logger

	mu           sync.Mutex
	running      bool
	cancel       context.CancelFunc
	done         chan struct{}
	cycle        int
	startedAt    time.Time
	lastCycleAt  time.Time
	lastFG       domain.FearGreed
	recentPrices map[string][]float64
}

// Deps bundles the monitor's collaborators. Cache, Archiver and Hub may be
// nil; those paths are skipped.
type Deps struct {
	Fetcher    Fetcher
	Sentiment  SentimentSource
	Detector   *arbitrage.Detector
	Simulator  *simulator.Simulator
	Recorder   *predictor.Recorder
	Classifier *predictor.Classifier
	Alerter    *notify.Alerter
	Cache      domain.PriceCache
	Archiver   domain.LedgerArchiver
	Hub        Broadcaster
}

// New creates a Monitor.
func New(cfg Config, deps Deps, logger *slog.Logger) *Monitor {
	if cfg.LoopInterval <= 0 {
		cfg.LoopInterval = 2 * time.Minute
	}
	if cfg.SummaryEvery <= 0 {
		cfg.SummaryEvery = 10
	}
	if cfg.OverviewLimit <= 0 {
		cfg.OverviewLimit = 10
	}
	return &Monitor{
		cfg:          cfg,
		fetcher:      deps.Fetcher,
		sentiment:    deps.Sentiment,
		detector:     deps.Detector,
		sim:          deps.Simulator,
		recorder:     deps.Recorder,
		classifier:   deps.Classifier,
		alerter:      deps.Alerter,
		failAlert:    notify.NewCycleFailureAlert(deps.Alerter, 0),
		cache:        deps.Cache,
		archiver:     deps.Archiver,
		hub:          deps.Hub,
		logger:       logger.With(slog.String("component", "monitor")),
		recentPrices: make(map[string][]float64),
	}
}

// Start launches the scan loop in its own goroutine. It returns
// domain.ErrAlreadyRunning if the loop is already live.
func (m *Monitor) Start(parent context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return domain.ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(parent)
	m.running = true
	m.cancel = cancel
	m.done = make(chan struct{})
	m.startedAt = time.Now().UTC()

	go m.loop(ctx)

	m.logger.Info("monitor started",
		slog.Int("coins", len(m.cfg.Coins)),
		slog.Duration("interval", m.cfg.LoopInterval),
	)
	return nil
}

// Stop requests the loop to halt. The running cycle finishes its current
// coin, then exits. Returns domain.ErrNotRunning when no loop is live.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return domain.ErrNotRunning
	}
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done
	m.logger.Info("monitor stopped")
	return nil
}

// Wait blocks until the loop has exited. Used on shutdown after the parent
// context is cancelled.
func (m *Monitor) Wait() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Status returns a snapshot of the loop state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		Running:        m.running,
		Cycle:          m.cycle,
		CurrentCapital: m.sim.CurrentCapital(),
		FearGreed:      m.lastFG,
		Coins:          m.cfg.Coins,
		Exchanges:      m.cfg.Exchanges,
	}
	if !m.startedAt.IsZero() {
		t := m.startedAt
		st.StartedAt = &t
	}
	if !m.lastCycleAt.IsZero() {
		t := m.lastCycleAt
		st.LastCycleAt = &t
	}
	return st
}

func (m *Monitor) loop(ctx context.Context) {
	defer func() {
		m.mu.Lock()
		m.running = false
		close(m.done)
		m.mu.Unlock()
	}()

	ticker := time.NewTicker(m.cfg.LoopInterval)
	defer ticker.Stop()

	for {
		m.runCycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
