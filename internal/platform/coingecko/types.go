package coingecko

// exchangeIDMap maps configured exchange names to the identifiers CoinGecko
// uses in ticker responses. Names missing from the map are used as-is.
var exchangeIDMap = map[string]string{
	"binance":           "binance",
	"coinbase":          "gdax", // CoinGecko keeps Coinbase Exchange under its old id
	"coinbase-exchange": "gdax",
	"kraken":            "kraken",
	"huobi":             "huobi",
	"htx":               "huobi",
	"kucoin":            "kucoin",
	"bybit":             "bybit_spot",
	"okx":               "okex",
	"bitfinex":          "bitfinex",
	"gate":              "gate",
	"bitget":            "bitget",
	"mexc":              "mxc",
}

// referencePrices are last-resort prices for the known coins, used only when
// the upstream API is fully unreachable. Quotes built from them are tagged
// QuoteSourceReference.
var referencePrices = map[string]float64{
	"bitcoin":     68000.0,
	"ethereum":    2000.0,
	"solana":      85.0,
	"binancecoin": 620.0,
	"ripple":      1.40,
}

// unknownCoinReferencePrice is used for coins absent from referencePrices.
const unknownCoinReferencePrice = 100.0

// tickersResponse is the paginated /coins/{id}/tickers payload.
type tickersResponse struct {
	Tickers []ticker `json:"tickers"`
	HasMore bool     `json:"has_more"`
}

// ticker is one trading pair on one exchange.
type ticker struct {
	Base   string `json:"base"`
	Target string `json:"target"`
	Market struct {
		Identifier string `json:"identifier"`
	} `json:"market"`
	ConvertedLast struct {
		USD float64 `json:"usd"`
	} `json:"converted_last"`
}

// isUSDQuote reports whether the ticker settles in USD or a USD stablecoin.
// Non-USD pairs are skipped so prices stay comparable across exchanges.
func (t ticker) isUSDQuote() bool {
	return t.Target == "USD" || t.Target == "USDT"
}
