package coingecko

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/antigravity/cryptohunter/internal/domain"
)

// tickersPageSize is the nominal page size of the tickers feed; a short page
// together with has_more=false marks the last page.
const tickersPageSize = 100

// SimplePrices fetches the global USD price and 24h change for several coins
// in one batched request. On total failure it returns an empty map; callers
// must treat missing keys as "no data this cycle".
func (c *Client) SimplePrices(ctx context.Context, coinIDs []string) map[string]domain.SimplePrice {
	if len(coinIDs) == 0 {
		return map[string]domain.SimplePrice{}
	}

	params := url.Values{}
	params.Set("ids", strings.Join(coinIDs, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")
	params.Set("include_market_cap", "true")

	body, err := c.doGet(ctx, "/simple/price", params)
	if err != nil {
		c.logger.WarnContext(ctx, "simple prices unavailable", slog.String("error", err.Error()))
		return map[string]domain.SimplePrice{}
	}

	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		c.logger.WarnContext(ctx, "decode simple prices", slog.String("error", err.Error()))
		return map[string]domain.SimplePrice{}
	}

	out := make(map[string]domain.SimplePrice, len(raw))
	for id, fields := range raw {
		out[id] = domain.SimplePrice{
			USD:       fields["usd"],
			Change24h: fields["usd_24h_change"],
		}
	}
	return out
}

// ExchangePrices retrieves per-exchange USD quotes for one coin from the
// paginated tickers feed, filtered to the target exchanges. One call per
// coin covers every exchange; paging stops once all targets have a quote,
// the feed runs out, or the page cap is hit. If fewer than two exchanges
// produced real quotes the result is synthesized from a single base price
// so the pipeline stays live, with provenance tagged on every quote.
func (c *Client) ExchangePrices(ctx context.Context, coinID string, exchanges []string) domain.QuoteSet {
	targetIDs := make(map[string]bool, len(exchanges))
	for _, ex := range exchanges {
		targetIDs[resolveExchangeID(ex)] = true
	}

	prices := make(map[string]float64)

	for page := 1; page <= c.maxPages; page++ {
		params := url.Values{}
		params.Set("include_exchange_logo", "false")
		params.Set("order", "volume_desc") // most liquid first
		params.Set("depth", "false")
		params.Set("page", strconv.Itoa(page))

		body, err := c.doGet(ctx, "/coins/"+url.PathEscape(coinID)+"/tickers", params)
		if err != nil {
			c.logger.WarnContext(ctx, "tickers unavailable",
				slog.String("coin", coinID),
				slog.Int("page", page),
				slog.String("error", err.Error()),
			)
			break
		}

		var resp tickersResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			c.logger.WarnContext(ctx, "decode tickers",
				slog.String("coin", coinID),
				slog.String("error", err.Error()),
			)
			break
		}
		if len(resp.Tickers) == 0 {
			break
		}

		for _, t := range resp.Tickers {
			id := t.Market.Identifier
			if !targetIDs[id] || !t.isUSDQuote() {
				continue
			}
			price := t.ConvertedLast.USD
			if price <= 0 {
				continue
			}
			// Several pairs per exchange can match; volume_desc ordering
			// means the first one seen is the most liquid. Keep it.
			if _, seen := prices[id]; !seen {
				prices[id] = price
			}
		}

		if allTargetsCovered(targetIDs, prices) {
			break
		}
		if !resp.HasMore && len(resp.Tickers) < tickersPageSize {
			break
		}
	}

	quotes := make(domain.QuoteSet, len(prices))
	for cgID, price := range prices {
		friendly := resolveFriendlyName(cgID, exchanges)
		quotes[friendly] = domain.ExchangeQuote{
			Exchange: friendly,
			PriceUSD: price,
			Source:   domain.QuoteSourceReal,
		}
	}

	if len(quotes) < 2 {
		c.logger.WarnContext(ctx, "insufficient real quotes, synthesizing",
			slog.String("coin", coinID),
			slog.Int("real_quotes", len(quotes)),
		)
		return c.syntheticQuotes(ctx, coinID, exchanges)
	}

	c.logger.InfoContext(ctx, "exchange prices fetched",
		slog.String("coin", coinID),
		slog.Int("exchanges", len(quotes)),
	)
	return quotes
}

// syntheticQuotes fabricates one quote per target exchange from a single
// base price plus independent uniform jitter in [-1.5%, +1.5%]. The base
// price is taken from the simple-price endpoint, then the price cache, then
// the hardcoded reference table; the source tag records which.
func (c *Client) syntheticQuotes(ctx context.Context, coinID string, exchanges []string) domain.QuoteSet {
	source := domain.QuoteSourceSynthetic

	var base float64
	if sp, ok := c.SimplePrices(ctx, []string{coinID})[coinID]; ok && sp.USD > 0 {
		base = sp.USD
	}
	if base <= 0 && c.cache != nil {
		if cached, _, err := c.cache.GetPrice(ctx, coinID); err == nil && cached > 0 {
			base = cached
		}
	}
	if base <= 0 {
		// Total outage. Liveness-only path; clearly tagged so nothing
		// downstream mistakes it for market data.
		source = domain.QuoteSourceReference
		base = referencePrices[coinID]
		if base <= 0 {
			base = unknownCoinReferencePrice
		}
		c.logger.WarnContext(ctx, "no base price obtainable, using reference price",
			slog.String("coin", coinID),
			slog.Float64("base", base),
		)
	}

	quotes := make(domain.QuoteSet, len(exchanges))
	for _, ex := range exchanges {
		price := math.Round(base*(1+c.jitter())*100) / 100
		quotes[ex] = domain.ExchangeQuote{
			Exchange: ex,
			PriceUSD: price,
			Source:   source,
		}
	}

	c.logger.InfoContext(ctx, "synthetic quotes generated",
		slog.String("coin", coinID),
		slog.String("source", string(source)),
		slog.Int("exchanges", len(quotes)),
	)
	return quotes
}

// MarketOverview returns the top-N coins by market capitalization with price
// and 24h change. Best-effort: empty slice on failure.
func (c *Client) MarketOverview(ctx context.Context, limit int) []domain.MarketCoin {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("page", "1")
	params.Set("sparkline", "false")
	params.Set("price_change_percentage", "24h,7d")

	body, err := c.doGet(ctx, "/coins/markets", params)
	if err != nil {
		c.logger.WarnContext(ctx, "market overview unavailable", slog.String("error", err.Error()))
		return nil
	}

	var coins []domain.MarketCoin
	if err := json.Unmarshal(body, &coins); err != nil {
		c.logger.WarnContext(ctx, "decode market overview", slog.String("error", err.Error()))
		return nil
	}

	sort.SliceStable(coins, func(i, j int) bool { return coins[i].Rank < coins[j].Rank })
	return coins
}

// resolveExchangeID maps a configured exchange name to its CoinGecko id.
func resolveExchangeID(name string) string {
	if id, ok := exchangeIDMap[name]; ok {
		return id
	}
	return name
}

// resolveFriendlyName maps a CoinGecko exchange id back to the configured
// name (e.g. "gdax" back to "coinbase").
func resolveFriendlyName(cgID string, exchanges []string) string {
	for _, ex := range exchanges {
		if resolveExchangeID(ex) == cgID {
			return ex
		}
	}
	return cgID
}

func allTargetsCovered(targets map[string]bool, prices map[string]float64) bool {
	for id := range targets {
		if _, ok := prices[id]; !ok {
			return false
		}
	}
	return true
}
