// Package sentiment supplies the per-coin sentiment signal and the global
// fear & greed index. Scores are simulated: the generator produces plausible
// normally-distributed sentiment so the sizing path always has an input.
// Real NLP scoring would slot in behind the same Analyze contract.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/antigravity/cryptohunter/internal/domain"
)

// Trending heuristics: hype needs both strong subjectivity and volume.
const (
	trendingSubjectivityMin = 0.55
	trendingTweetCountMin   = 80
)

// Config holds the analyzer thresholds.
type Config struct {
	// BullishThreshold labels scores at or above it BULLISH.
	BullishThreshold float64
	// BearishThreshold labels scores at or below it BEARISH.
	BearishThreshold float64
	// FearGreedURL is the index endpoint, e.g. "https://api.alternative.me/fng/".
	FearGreedURL string
	// RequestTimeout bounds the fear & greed fetch.
	RequestTimeout time.Duration
}

// Analyzer produces sentiment results. Safe for sequential per-cycle use;
// the monitor is its only caller.
type Analyzer struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	rng        *rand.Rand
}

// New creates an Analyzer seeded from the wall clock.
func New(cfg Config, logger *slog.Logger) *Analyzer {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &Analyzer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger.With(slog.String("component", "sentiment")),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetSeed reseeds the generator. Tests use this for reproducible output.
func (a *Analyzer) SetSeed(seed int64) {
	a.rng = rand.New(rand.NewSource(seed))
}

// Analyze returns a simulated sentiment reading for the coin. The score is
// drawn from a clipped normal distribution centered slightly bullish, which
// matches the long-run skew of crypto chatter.
func (a *Analyzer) Analyze(coin string) domain.SentimentResult {
	score := clamp(a.rng.NormFloat64()*0.35+0.05, -1, 1)
	subjectivity := clamp(a.rng.NormFloat64()*0.2+0.5, 0, 1)
	tweetCount := 20 + a.rng.Intn(181)

	res := domain.SentimentResult{
		Coin:         coin,
		Score:        score,
		Subjectivity: subjectivity,
		TweetCount:   tweetCount,
		Label:        a.label(score),
		Trending:     subjectivity > trendingSubjectivityMin && tweetCount > trendingTweetCountMin,
	}

	a.logger.Debug("sentiment analyzed",
		slog.String("coin", coin),
		slog.Float64("score", res.Score),
		slog.String("label", string(res.Label)),
		slog.Bool("trending", res.Trending),
	)
	return res
}

func (a *Analyzer) label(score float64) domain.SentimentLabel {
	switch {
	case score >= a.cfg.BullishThreshold:
		return domain.SentimentBullish
	case score <= a.cfg.BearishThreshold:
		return domain.SentimentBearish
	default:
		return domain.SentimentNeutral
	}
}

// fngResponse is the alternative.me index payload.
type fngResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
	} `json:"data"`
}

// GetFearAndGreed fetches the global fear & greed index. Best-effort: ok is
// false on any failure and the cycle proceeds without the signal.
func (a *Analyzer) GetFearAndGreed(ctx context.Context) (domain.FearGreed, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.FearGreedURL, nil)
	if err != nil {
		a.logger.Warn("fear greed request", slog.String("error", err.Error()))
		return domain.FearGreed{}, false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Warn("fear greed unavailable", slog.String("error", err.Error()))
		return domain.FearGreed{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Warn("fear greed http error", slog.Int("status", resp.StatusCode))
		return domain.FearGreed{}, false
	}

	var payload fngResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		a.logger.Warn("decode fear greed", slog.String("error", err.Error()))
		return domain.FearGreed{}, false
	}
	if len(payload.Data) == 0 {
		return domain.FearGreed{}, false
	}

	value, err := strconv.Atoi(payload.Data[0].Value)
	if err != nil {
		a.logger.Warn("fear greed value", slog.String("error", fmt.Sprintf("parse %q: %v", payload.Data[0].Value, err)))
		return domain.FearGreed{}, false
	}

	return domain.FearGreed{
		Value: value,
		Label: payload.Data[0].ValueClassification,
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
