package domain

import (
	"context"
	"time"
)

// TradeHistoryStore persists the ledger's ordered trade history. The minimum
// contract is "load all, append one": implementations may rewrite the whole
// backing file or insert rows, but a corrupt or missing backing store must
// load as empty history, never fail.
type TradeHistoryStore interface {
	LoadAll(ctx context.Context) ([]SimulatedTrade, error)
	Append(ctx context.Context, trade SimulatedTrade) error
}

// PriceCache provides fast access to the latest observed global prices.
// Used by the dashboard and as a base-price source for synthetic fallback.
type PriceCache interface {
	SetPrice(ctx context.Context, coinID string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, coinID string) (float64, time.Time, error)
	SetFearGreed(ctx context.Context, fg FearGreed) error
	GetFearGreed(ctx context.Context) (FearGreed, error)
}

// LedgerArchiver uploads a serialized copy of the trade history to cold
// storage. Best-effort; failures never affect the in-memory ledger.
type LedgerArchiver interface {
	ArchiveTrades(ctx context.Context, trades []SimulatedTrade) (string, error)
}
