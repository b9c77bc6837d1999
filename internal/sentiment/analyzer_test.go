package sentiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/cryptohunter/internal/domain"
)

func newTestAnalyzer(fngURL string) *Analyzer {
	a := New(Config{
		BullishThreshold: 0.2,
		BearishThreshold: -0.2,
		FearGreedURL:     fngURL,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.SetSeed(42)
	return a
}

func TestAnalyzeProducesBoundedResults(t *testing.T) {
	a := newTestAnalyzer("")

	for i := 0; i < 500; i++ {
		res := a.Analyze("bitcoin")
		assert.GreaterOrEqual(t, res.Score, -1.0)
		assert.LessOrEqual(t, res.Score, 1.0)
		assert.GreaterOrEqual(t, res.Subjectivity, 0.0)
		assert.LessOrEqual(t, res.Subjectivity, 1.0)
		assert.GreaterOrEqual(t, res.TweetCount, 20)
		assert.LessOrEqual(t, res.TweetCount, 200)
		assert.Equal(t, "bitcoin", res.Coin)
	}
}

func TestAnalyzeIsReproducibleForSeed(t *testing.T) {
	a1 := newTestAnalyzer("")
	a2 := newTestAnalyzer("")
	for i := 0; i < 20; i++ {
		assert.Equal(t, a1.Analyze("solana"), a2.Analyze("solana"))
	}
}

func TestLabelThresholds(t *testing.T) {
	a := newTestAnalyzer("")

	tests := []struct {
		score float64
		want  domain.SentimentLabel
	}{
		{0.5, domain.SentimentBullish},
		{0.2, domain.SentimentBullish},
		{0.19, domain.SentimentNeutral},
		{0.0, domain.SentimentNeutral},
		{-0.19, domain.SentimentNeutral},
		{-0.2, domain.SentimentBearish},
		{-0.8, domain.SentimentBearish},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, a.label(tc.score), "score=%v", tc.score)
	}
}

func TestTrendingRequiresSubjectivityAndVolume(t *testing.T) {
	a := newTestAnalyzer("")

	// Over many draws both trending and non-trending must occur, and the
	// flag must always agree with its inputs.
	var seenTrending, seenQuiet bool
	for i := 0; i < 1000; i++ {
		res := a.Analyze("bitcoin")
		want := res.Subjectivity > trendingSubjectivityMin && res.TweetCount > trendingTweetCountMin
		require.Equal(t, want, res.Trending)
		if res.Trending {
			seenTrending = true
		} else {
			seenQuiet = true
		}
	}
	assert.True(t, seenTrending)
	assert.True(t, seenQuiet)
}

func TestGetFearAndGreed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"value":"72","value_classification":"Greed"}]}`)
	}))
	defer srv.Close()

	a := newTestAnalyzer(srv.URL)
	fg, ok := a.GetFearAndGreed(context.Background())
	require.True(t, ok)
	assert.Equal(t, 72, fg.Value)
	assert.Equal(t, "Greed", fg.Label)
}

func TestGetFearAndGreedFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data": "nope"`)
		}},
		{"empty data", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":[]}`)
		}},
		{"non numeric value", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":[{"value":"high","value_classification":"Greed"}]}`)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			a := newTestAnalyzer(srv.URL)
			_, ok := a.GetFearAndGreed(context.Background())
			assert.False(t, ok)
		})
	}
}
