package predictor

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/cryptohunter/internal/domain"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	r := NewRecorder(path, discard())

	ts := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, r.Record(Sample{
		Timestamp:      ts,
		Coin:           "bitcoin",
		PriceUSD:       67123.45,
		Change24hPct:   2.3,
		SentimentScore: 0.4,
		FearGreed:      72,
	}))
	require.NoError(t, r.Record(Sample{
		Timestamp:      ts.Add(2 * time.Minute),
		Coin:           "ethereum",
		PriceUSD:       1987.12,
		Change24hPct:   -0.8,
		SentimentScore: -0.1,
		FearGreed:      72,
	}))

	samples, err := r.LoadAll()
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "bitcoin", samples[0].Coin)
	assert.Equal(t, 67123.45, samples[0].PriceUSD)
	assert.Equal(t, 72, samples[0].FearGreed)
	assert.True(t, samples[0].Timestamp.Equal(ts))
	assert.Equal(t, "ethereum", samples[1].Coin)
}

func TestRecorderLoadAllMissingFile(t *testing.T) {
	r := NewRecorder(filepath.Join(t.TempDir(), "none.csv"), discard())
	samples, err := r.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestRecorderSkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	content := "timestamp,coin,price_usd,change_24h_pct,sentiment_score,fear_greed\n" +
		"2026-08-15T10:00:00Z,bitcoin,67000,1.0,0.2,70\n" +
		"not-a-time,bitcoin,67000,1.0,0.2,70\n" +
		"2026-08-15T10:02:00Z,bitcoin,abc,1.0,0.2,70\n" +
		"2026-08-15T10:04:00Z,bitcoin,67100,1.1,0.3,71\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewRecorder(path, discard())
	samples, err := r.LoadAll()
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 67000.0, samples[0].PriceUSD)
	assert.Equal(t, 67100.0, samples[1].PriceUSD)
}

func TestClassifierUntrainedIsUncertain(t *testing.T) {
	c := NewClassifier(0.65, 10, discard())
	pred := c.Predict("bitcoin", 1.0, 0.2, 70, nil)
	assert.Equal(t, domain.TrendUncertain, pred.Signal)
	assert.Zero(t, pred.Confidence)
	assert.False(t, c.Trained())
}

func TestClassifierTrainNeedsMinimumSamples(t *testing.T) {
	c := NewClassifier(0.65, 50, discard())
	samples := trendingSeries("bitcoin", 10, true)
	assert.False(t, c.Train(samples))
	assert.False(t, c.Trained())
}

// trendingSeries builds n samples whose price moves monotonically, with
// sentiment and 24h change agreeing with the direction.
func trendingSeries(coin string, n int, up bool) []Sample {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Sample, 0, n)
	price := 100.0
	for i := 0; i < n; i++ {
		step := 1.0
		change := 2.0
		sentiment := 0.5
		if !up {
			step, change, sentiment = -1.0, -2.0, -0.5
		}
		out = append(out, Sample{
			Timestamp:      base.Add(time.Duration(i) * 2 * time.Minute),
			Coin:           coin,
			PriceUSD:       price,
			Change24hPct:   change,
			SentimentScore: sentiment,
			FearGreed:      50,
		})
		price += step
	}
	return out
}

func TestClassifierLearnsSeparableTrend(t *testing.T) {
	c := NewClassifier(0.65, 50, discard())

	samples := append(
		trendingSeries("bitcoin", 60, true),
		trendingSeries("ethereum", 60, false)...,
	)
	require.True(t, c.Train(samples))
	require.True(t, c.Trained())

	up := c.Predict("bitcoin", 2.0, 0.5, 50, []float64{100, 101, 102, 103})
	down := c.Predict("ethereum", -2.0, -0.5, 50, []float64{103, 102, 101, 100})

	assert.Equal(t, domain.TrendBuy, up.Signal)
	assert.GreaterOrEqual(t, up.Confidence, 0.65)
	assert.Equal(t, domain.TrendSell, down.Signal)
	assert.GreaterOrEqual(t, down.Confidence, 0.65)
}

func TestClassifierGateProducesUncertain(t *testing.T) {
	// An impossibly high gate forces every prediction to UNCERTAIN.
	c := NewClassifier(0.999999, 50, discard())
	samples := append(
		trendingSeries("bitcoin", 60, true),
		trendingSeries("ethereum", 60, false)...,
	)
	require.True(t, c.Train(samples))

	pred := c.Predict("bitcoin", 0.1, 0.05, 50, nil)
	assert.Equal(t, domain.TrendUncertain, pred.Signal)
	assert.GreaterOrEqual(t, pred.Confidence, 0.5)
}
