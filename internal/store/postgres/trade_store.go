package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antigravity/cryptohunter/internal/domain"
)

// TradeHistoryStore implements domain.TradeHistoryStore on PostgreSQL.
type TradeHistoryStore struct {
	pool *pgxpool.Pool
}

// NewTradeHistoryStore creates a store backed by the given connection pool.
func NewTradeHistoryStore(pool *pgxpool.Pool) *TradeHistoryStore {
	return &TradeHistoryStore{pool: pool}
}

const tradeCols = `id, timestamp, coin, buy_exchange, sell_exchange,
	buy_price, sell_price, capital_used, gross_profit_usd, fees_paid_usd,
	net_profit_usd, net_profit_pct, sentiment_score, sentiment_label,
	risk_multiplier, mode`

func scanTradeRows(rows pgx.Rows) ([]domain.SimulatedTrade, error) {
	var trades []domain.SimulatedTrade
	for rows.Next() {
		var t domain.SimulatedTrade
		if err := rows.Scan(
			&t.ID, &t.Timestamp, &t.Coin, &t.BuyExchange, &t.SellExchange,
			&t.BuyPrice, &t.SellPrice, &t.CapitalUsed, &t.GrossProfitUSD,
			&t.FeesPaidUSD, &t.NetProfitUSD, &t.NetProfitPct,
			&t.SentimentScore, &t.SentimentLabel, &t.RiskMultiplier, &t.Mode,
		); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// LoadAll returns the full trade history in settlement order.
func (s *TradeHistoryStore) LoadAll(ctx context.Context) ([]domain.SimulatedTrade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeCols+` FROM simulated_trades ORDER BY timestamp ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load trades: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades: %w", err)
	}
	return trades, nil
}

// Append inserts one settled trade. Re-inserting an existing trade id is a
// no-op, so a retried append cannot duplicate history.
func (s *TradeHistoryStore) Append(ctx context.Context, t domain.SimulatedTrade) error {
	const query = `
		INSERT INTO simulated_trades (
			id, timestamp, coin, buy_exchange, sell_exchange,
			buy_price, sell_price, capital_used, gross_profit_usd, fees_paid_usd,
			net_profit_usd, net_profit_pct, sentiment_score, sentiment_label,
			risk_multiplier, mode
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16
		) ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		t.ID, t.Timestamp, t.Coin, t.BuyExchange, t.SellExchange,
		t.BuyPrice, t.SellPrice, t.CapitalUsed, t.GrossProfitUSD, t.FeesPaidUSD,
		t.NetProfitUSD, t.NetProfitPct, t.SentimentScore, t.SentimentLabel,
		t.RiskMultiplier, t.Mode,
	)
	if err != nil {
		return fmt.Errorf("postgres: append trade: %w", err)
	}
	return nil
}
