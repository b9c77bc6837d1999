package domain

// Opportunity is a detected cross-exchange price spread for one coin. It is
// a derived value object: immutable once built, consumed within the cycle
// that produced it.
type Opportunity struct {
	Coin           string  `json:"coin"`
	BuyExchange    string  `json:"buy_exchange"`
	SellExchange   string  `json:"sell_exchange"`
	BuyPrice       float64 `json:"buy_price"`
	SellPrice      float64 `json:"sell_price"`
	GrossSpreadPct float64 `json:"gross_spread_pct"`
	NetSpreadPct   float64 `json:"net_spread_pct"`
	// EstProfitUSD is a reference figure computed against the configured
	// simulation capital. It is independent of the simulator's actual
	// position sizing and the two can diverge; both are kept on purpose.
	EstProfitUSD float64 `json:"estimated_profit_usd"`
	Viable       bool    `json:"is_viable"`
}

// ExchangePair keys a spread matrix entry. Buy names the exchange the
// spread is quoted relative to; entries are stored with Buy preceding
// Sell in sorted name order.
type ExchangePair struct {
	Buy  string `json:"buy"`
	Sell string `json:"sell"`
}

// SpreadMatrix holds the pairwise spread percentage for every exchange pair
// in a quote set. Purely analytical; exposed for diagnostics and feature
// extraction, consumed by no core component.
type SpreadMatrix map[ExchangePair]float64
