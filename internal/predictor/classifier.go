package predictor

import (
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/antigravity/cryptohunter/internal/domain"
)

// maPeriod is the moving-average window, in samples per coin, used for the
// distance-from-MA feature.
const maPeriod = 10

// featureCount: change_24h, sentiment, fear_greed, dist_from_ma.
const featureCount = 4

// Prediction is the classifier's advisory output.
type Prediction struct {
	Coin       string             `json:"coin"`
	Signal     domain.TrendSignal `json:"signal"`
	Confidence float64            `json:"confidence"`
}

// Classifier is a single logistic unit over four features, retrained from
// recorded samples. Below the confidence gate it answers UNCERTAIN.
type Classifier struct {
	logger *slog.Logger

	// ConfidenceGate is the minimum probability mass, measured from 0.5,
	// required to emit a directional signal.
	confidenceGate float64
	minSamples     int

	mu      sync.RWMutex
	weights [featureCount]float64
	bias    float64
	trained bool
}

// NewClassifier creates an untrained classifier.
func NewClassifier(confidenceGate float64, minSamples int, logger *slog.Logger) *Classifier {
	if confidenceGate <= 0.5 {
		confidenceGate = 0.65
	}
	if minSamples <= 0 {
		minSamples = 60
	}
	return &Classifier{
		logger:         logger.With(slog.String("component", "classifier")),
		confidenceGate: confidenceGate,
		minSamples:     minSamples,
	}
}

// Trained reports whether the classifier has a usable model.
func (c *Classifier) Trained() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.trained
}

// features builds the input vector. Fear & greed is centered and scaled from
// [0,100] to roughly [-1,1]; 24h change is scaled from percent.
func features(change24h, sentiment float64, fearGreed int, distFromMA float64) [featureCount]float64 {
	return [featureCount]float64{
		change24h / 10.0,
		sentiment,
		(float64(fearGreed) - 50.0) / 50.0,
		distFromMA,
	}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// Train fits the model on recorded samples with plain gradient descent. A
// sample's label is whether the same coin's next recorded price went up.
// Training is skipped (returning false) until enough labeled pairs exist.
func (c *Classifier) Train(samples []Sample) bool {
	xs, ys := buildTrainingSet(samples)
	if len(xs) < c.minSamples {
		c.logger.Debug("not enough samples to train",
			slog.Int("have", len(xs)),
			slog.Int("need", c.minSamples),
		)
		return false
	}

	var w [featureCount]float64
	var b float64
	const (
		learningRate = 0.1
		epochs       = 200
	)

	n := float64(len(xs))
	for epoch := 0; epoch < epochs; epoch++ {
		var gradW [featureCount]float64
		var gradB float64
		for i, x := range xs {
			z := b
			for j := 0; j < featureCount; j++ {
				z += w[j] * x[j]
			}
			err := sigmoid(z) - ys[i]
			for j := 0; j < featureCount; j++ {
				gradW[j] += err * x[j]
			}
			gradB += err
		}
		for j := 0; j < featureCount; j++ {
			w[j] -= learningRate * gradW[j] / n
		}
		b -= learningRate * gradB / n
	}

	c.mu.Lock()
	c.weights = w
	c.bias = b
	c.trained = true
	c.mu.Unlock()

	c.logger.Info("classifier retrained", slog.Int("samples", len(xs)))
	return true
}

// buildTrainingSet pairs each sample with the same coin's next price to form
// an up/down label and computes the distance-from-MA feature over a trailing
// window, per coin in timestamp order.
func buildTrainingSet(samples []Sample) ([][featureCount]float64, []float64) {
	byCoin := make(map[string][]Sample)
	for _, s := range samples {
		byCoin[s.Coin] = append(byCoin[s.Coin], s)
	}

	coins := make([]string, 0, len(byCoin))
	for coin := range byCoin {
		coins = append(coins, coin)
	}
	sort.Strings(coins)

	var xs [][featureCount]float64
	var ys []float64
	for _, coin := range coins {
		series := byCoin[coin]
		sort.Slice(series, func(i, j int) bool {
			return series[i].Timestamp.Before(series[j].Timestamp)
		})
		for i := 0; i+1 < len(series); i++ {
			s := series[i]
			xs = append(xs, features(s.Change24hPct, s.SentimentScore, s.FearGreed,
				distFromMA(series, i)))
			if series[i+1].PriceUSD > s.PriceUSD {
				ys = append(ys, 1)
			} else {
				ys = append(ys, 0)
			}
		}
	}
	return xs, ys
}

// distFromMA returns the relative distance of sample i's price from the
// trailing moving average ending at i.
func distFromMA(series []Sample, i int) float64 {
	start := i - maPeriod + 1
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, s := range series[start : i+1] {
		sum += s.PriceUSD
	}
	ma := sum / float64(i+1-start)
	if ma == 0 {
		return 0
	}
	return (series[i].PriceUSD - ma) / ma
}

// Predict scores the current observation. Recent is the coin's recent price
// series, newest last, used for the MA feature; it may be short or empty.
func (c *Classifier) Predict(coin string, change24h, sentimentScore float64, fearGreed int, recent []float64) Prediction {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.trained {
		return Prediction{Coin: coin, Signal: domain.TrendUncertain, Confidence: 0}
	}

	dist := 0.0
	if len(recent) > 0 {
		start := len(recent) - maPeriod
		if start < 0 {
			start = 0
		}
		var sum float64
		for _, p := range recent[start:] {
			sum += p
		}
		ma := sum / float64(len(recent)-start)
		if ma != 0 {
			dist = (recent[len(recent)-1] - ma) / ma
		}
	}

	x := features(change24h, sentimentScore, fearGreed, dist)
	z := c.bias
	for j := 0; j < featureCount; j++ {
		z += c.weights[j] * x[j]
	}
	p := sigmoid(z)

	switch {
	case p >= c.confidenceGate:
		return Prediction{Coin: coin, Signal: domain.TrendBuy, Confidence: p}
	case p <= 1-c.confidenceGate:
		return Prediction{Coin: coin, Signal: domain.TrendSell, Confidence: 1 - p}
	default:
		conf := p
		if conf < 0.5 {
			conf = 1 - conf
		}
		return Prediction{Coin: coin, Signal: domain.TrendUncertain, Confidence: conf}
	}
}
