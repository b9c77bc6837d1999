// Package domain defines the core types shared across the crypto hunter:
// exchange quotes, arbitrage opportunities, simulated trades, sentiment
// results, and the store interfaces their persistence goes through.
package domain

// QuoteSource tags where an exchange price came from, so downstream consumers
// can distinguish real market data from fabricated liveness fallbacks.
type QuoteSource string

const (
	// QuoteSourceReal is a price observed on the exchange's ticker feed.
	QuoteSourceReal QuoteSource = "real"
	// QuoteSourceSynthetic is a price derived from a single base price plus
	// random jitter, emitted when fewer than two exchanges had real quotes.
	QuoteSourceSynthetic QuoteSource = "synthetic"
	// QuoteSourceReference is a hardcoded last-resort price used only when
	// the upstream API is completely unreachable.
	QuoteSourceReference QuoteSource = "reference"
)

// ExchangeQuote is a single exchange's USD price for one coin.
type ExchangeQuote struct {
	Exchange string      `json:"exchange"`
	PriceUSD float64     `json:"price_usd"`
	Source   QuoteSource `json:"source"`
}

// QuoteSet maps exchange id to its quote for one coin. Exchange ids are
// unique within a set; insertion order carries no meaning.
type QuoteSet map[string]ExchangeQuote

// Prices flattens the set into an exchange→price map.
func (qs QuoteSet) Prices() map[string]float64 {
	out := make(map[string]float64, len(qs))
	for ex, q := range qs {
		out[ex] = q.PriceUSD
	}
	return out
}

// Synthetic reports whether the set contains any non-real quote. Synthetic
// and reference quotes are always generated as a whole set, so a single
// tagged quote marks the entire set as fabricated.
func (qs QuoteSet) Synthetic() bool {
	for _, q := range qs {
		if q.Source != QuoteSourceReal {
			return true
		}
	}
	return false
}

// PriceSnapshot is one cycle's coin→exchange→quote view. It is built fresh
// each cycle and discarded after detection; no state is carried across cycles.
type PriceSnapshot map[string]QuoteSet

// SimplePrice is the batched global price for one coin.
type SimplePrice struct {
	USD       float64 `json:"usd"`
	Change24h float64 `json:"usd_24h_change"`
}

// MarketCoin is one row of the market overview, ranked by market cap.
type MarketCoin struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	PriceUSD     float64 `json:"current_price"`
	Change24hPct float64 `json:"price_change_percentage_24h"`
	MarketCapUSD float64 `json:"market_cap"`
	Rank         int     `json:"market_cap_rank"`
}
