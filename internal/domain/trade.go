package domain

import "time"

// BotMode describes how trades are executed. Only simulation is implemented;
// the other values are reserved for a future live path.
type BotMode string

const (
	ModeSimulation BotMode = "simulation"
	ModePaper      BotMode = "paper"
	ModeLive       BotMode = "live"
)

// SimulatedTrade is one settled paper trade. It is immutable once created
// and appended to the ledger's ordered history; the persisted schema matches
// this struct field for field.
type SimulatedTrade struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Coin           string    `json:"coin"`
	BuyExchange    string    `json:"buy_exchange"`
	SellExchange   string    `json:"sell_exchange"`
	BuyPrice       float64   `json:"buy_price"`
	SellPrice      float64   `json:"sell_price"`
	CapitalUsed    float64   `json:"capital_used"`
	GrossProfitUSD float64   `json:"gross_profit_usd"`
	FeesPaidUSD    float64   `json:"fees_paid_usd"`
	NetProfitUSD   float64   `json:"net_profit_usd"`
	NetProfitPct   float64   `json:"net_profit_pct"`
	SentimentScore float64   `json:"sentiment_score"`
	SentimentLabel string    `json:"sentiment_label"`
	RiskMultiplier float64   `json:"risk_multiplier"`
	Mode           BotMode   `json:"mode"`
}

// PerformanceSummary aggregates the ledger's trade history. Pure read.
type PerformanceSummary struct {
	TotalTrades       int     `json:"total_trades"`
	WinningTrades     int     `json:"winning_trades"`
	LosingTrades      int     `json:"losing_trades"`
	WinRatePct        float64 `json:"win_rate_pct"`
	InitialCapital    float64 `json:"initial_capital"`
	CurrentCapital    float64 `json:"current_capital"`
	TotalProfitUSD    float64 `json:"total_profit_usd"`
	TotalReturnPct    float64 `json:"total_return_pct"`
	AvgProfitPerTrade float64 `json:"avg_profit_per_trade"`
	BestTradeUSD      float64 `json:"best_trade_usd"`
	WorstTradeUSD     float64 `json:"worst_trade_usd"`
}
