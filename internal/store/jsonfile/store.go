// Package jsonfile is the default trade history store: the whole history
// lives in one JSON array on disk, rewritten on every append. Fine for the
// trade volumes a two-minute scan loop produces; the postgres store covers
// anything heavier.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/antigravity/cryptohunter/internal/domain"
)

// Store persists trade history as a single JSON file.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	trades []domain.SimulatedTrade
	loaded bool
}

// New creates a Store writing to path. The file is created on first append.
func New(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With(slog.String("component", "trade_store")),
	}
}

// LoadAll reads the whole history from disk. A missing or corrupt file loads
// as empty history; losing an unreadable ledger file must never prevent the
// process from starting.
func (s *Store) LoadAll(ctx context.Context) ([]domain.SimulatedTrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked(ctx)

	out := make([]domain.SimulatedTrade, len(s.trades))
	copy(out, s.trades)
	return out, nil
}

// loadLocked reads the file into memory. Caller holds s.mu.
func (s *Store) loadLocked(ctx context.Context) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.WarnContext(ctx, "trade history unreadable, starting fresh",
				slog.String("path", s.path),
				slog.String("error", err.Error()),
			)
		}
		s.trades = nil
		s.loaded = true
		return
	}

	var trades []domain.SimulatedTrade
	if err := json.Unmarshal(data, &trades); err != nil {
		s.logger.WarnContext(ctx, "trade history corrupt, starting fresh",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		s.trades = nil
		s.loaded = true
		return
	}

	s.trades = trades
	s.loaded = true
}

// Append adds one trade and rewrites the file. The write goes through a temp
// file and rename so a crash mid-write leaves the previous history intact.
func (s *Store) Append(ctx context.Context, trade domain.SimulatedTrade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.loadLocked(ctx)
	}

	s.trades = append(s.trades, trade)

	data, err := json.MarshalIndent(s.trades, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: marshal history: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("jsonfile: create dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("jsonfile: write history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("jsonfile: replace history: %w", err)
	}
	return nil
}
