package domain

// SentimentLabel classifies a sentiment score against the configured
// bullish/bearish thresholds.
type SentimentLabel string

const (
	SentimentBullish SentimentLabel = "BULLISH"
	SentimentBearish SentimentLabel = "BEARISH"
	SentimentNeutral SentimentLabel = "NEUTRAL"
)

// SentimentResult is the sentiment collaborator's per-coin output. Score is
// in [-1, 1], subjectivity in [0, 1]. Trending marks sustained hype; it only
// ever scales position size, never viability.
type SentimentResult struct {
	Coin         string         `json:"coin"`
	Score        float64        `json:"score"`
	Subjectivity float64        `json:"subjectivity"`
	TweetCount   int            `json:"tweet_count"`
	Label        SentimentLabel `json:"label"`
	Trending     bool           `json:"trending"`
}

// FearGreed is the global market fear & greed index, fetched once per cycle.
// Value is in [0, 100]: 0 extreme fear, 100 extreme greed.
type FearGreed struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// TrendSignal is the advisory output of the trend classifier.
type TrendSignal string

const (
	TrendBuy       TrendSignal = "BUY"
	TrendSell      TrendSignal = "SELL"
	TrendUncertain TrendSignal = "UNCERTAIN"
)
