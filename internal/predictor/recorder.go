// Package predictor records per-cycle price samples to CSV and trains a
// small logistic trend classifier on them. Its output is advisory: the
// monitor logs and broadcasts predictions but never lets them veto or
// trigger a trade.
package predictor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Sample is one recorded observation for one coin.
type Sample struct {
	Timestamp      time.Time
	Coin           string
	PriceUSD       float64
	Change24hPct   float64
	SentimentScore float64
	FearGreed      int
}

var csvHeader = []string{"timestamp", "coin", "price_usd", "change_24h_pct", "sentiment_score", "fear_greed"}

// Recorder appends samples to a CSV file, one row per observation.
type Recorder struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewRecorder creates a Recorder writing to path.
func NewRecorder(path string, logger *slog.Logger) *Recorder {
	return &Recorder{
		path:   path,
		logger: logger.With(slog.String("component", "recorder")),
	}
}

// Record appends one sample, writing the header first when the file is new.
func (r *Recorder) Record(s Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("predictor: create dir: %w", err)
		}
	}

	writeHeader := false
	if _, err := os.Stat(r.path); errors.Is(err, fs.ErrNotExist) {
		writeHeader = true
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("predictor: open samples file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("predictor: write header: %w", err)
		}
	}

	row := []string{
		s.Timestamp.UTC().Format(time.RFC3339),
		s.Coin,
		strconv.FormatFloat(s.PriceUSD, 'f', -1, 64),
		strconv.FormatFloat(s.Change24hPct, 'f', -1, 64),
		strconv.FormatFloat(s.SentimentScore, 'f', -1, 64),
		strconv.Itoa(s.FearGreed),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("predictor: write sample: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("predictor: flush samples: %w", err)
	}
	return nil
}

// LoadAll reads every recorded sample in file order. Malformed rows are
// skipped with a warning; a missing file yields no samples.
func (r *Recorder) LoadAll() ([]Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("predictor: open samples file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(csvHeader)

	var samples []Sample
	first := true
	for {
		row, err := reader.Read()
		if err != nil {
			break
		}
		if first {
			first = false
			if row[0] == csvHeader[0] {
				continue
			}
		}

		s, err := parseSample(row)
		if err != nil {
			r.logger.Warn("skipping malformed sample row", slog.String("error", err.Error()))
			continue
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseSample(row []string) (Sample, error) {
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return Sample{}, fmt.Errorf("timestamp: %w", err)
	}
	price, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return Sample{}, fmt.Errorf("price: %w", err)
	}
	change, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return Sample{}, fmt.Errorf("change: %w", err)
	}
	sentiment, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return Sample{}, fmt.Errorf("sentiment: %w", err)
	}
	fearGreed, err := strconv.Atoi(row[5])
	if err != nil {
		return Sample{}, fmt.Errorf("fear greed: %w", err)
	}
	return Sample{
		Timestamp:      ts,
		Coin:           row[1],
		PriceUSD:       price,
		Change24hPct:   change,
		SentimentScore: sentiment,
		FearGreed:      fearGreed,
	}, nil
}
