// Package coingecko is the REST client for the CoinGecko API. It is the only
// component that talks to the upstream price feed, and it owns the global
// outbound throttle: the free tier allows roughly 30 calls per minute, so
// every request goes through a shared minimum-interval gate plus exponential
// backoff on failure. External failures never escape as errors; callers get
// an empty result and skip the coin for the cycle.
package coingecko

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/antigravity/cryptohunter/internal/domain"
)

const (
	// rateLimitBackoffBase is the backoff base for HTTP 429 responses.
	rateLimitBackoffBase = 15 * time.Second
	// transientBackoffBase is the backoff base for other transient errors.
	transientBackoffBase = 5 * time.Second
)

// Config holds the client construction parameters.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.coingecko.com/api/v3".
	BaseURL string
	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration
	// MinCallInterval is the minimum wall-clock gap between outbound calls.
	MinCallInterval time.Duration
	// MaxRetries is the attempt budget per logical request.
	MaxRetries int
	// MaxTickerPages caps ticker pagination per coin.
	MaxTickerPages int
}

// Client fetches prices from CoinGecko. A single Client instance owns the
// process-wide throttle state; calls from concurrent goroutines are
// serialized behind its mutex so the throttle limits the process, not the
// caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries  int
	maxPages    int
	minInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time

	// Injection points for deterministic tests.
	now    func() time.Time
	sleep  func(context.Context, time.Duration)
	jitter func() float64

	// cache optionally supplies a base price for synthetic fallback when
	// the API is completely unreachable. May be nil.
	cache domain.PriceCache
}

// New creates a Client. cache may be nil.
func New(cfg Config, cache domain.PriceCache, logger *slog.Logger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.MinCallInterval <= 0 {
		cfg.MinCallInterval = 2 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.MaxTickerPages <= 0 {
		cfg.MaxTickerPages = 5
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger:      logger.With(slog.String("component", "coingecko")),
		maxRetries:  cfg.MaxRetries,
		maxPages:    cfg.MaxTickerPages,
		minInterval: cfg.MinCallInterval,
		now:         time.Now,
		sleep:       sleepCtx,
		jitter: func() float64 {
			// Real cross-exchange spreads are typically 0.1%-2%.
			return rng.Float64()*0.03 - 0.015
		},
		cache: cache,
	}
}

// SetJitter replaces the synthetic-quote jitter source. Tests use this to
// pin the random spread to known values.
func (c *Client) SetJitter(f func() float64) { c.jitter = f }

// SetSleep replaces the backoff/throttle sleep function.
func (c *Client) SetSleep(f func(context.Context, time.Duration)) { c.sleep = f }

// SetNow replaces the clock.
func (c *Client) SetNow(f func() time.Time) { c.now = f }

// sleepCtx sleeps for d, returning early when ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// backoff returns base * 2^attempt.
func backoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<uint(attempt))
}

// doGet performs a throttled GET with retries. The mutex is held for the
// whole call including backoff sleeps: the throttle's purpose is global
// outbound rate limiting, so a backed-off call must also hold back every
// other caller. The attempt counter is local to the call.
func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Never call faster than the minimum interval.
		if elapsed := c.now().Sub(c.lastCall); elapsed < c.minInterval {
			c.sleep(ctx, c.minInterval-elapsed)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("coingecko: create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "cryptohunter/2.0")

		resp, err := c.httpClient.Do(req)
		c.lastCall = c.now()
		if err != nil {
			lastErr = err
			c.logger.WarnContext(ctx, "request failed",
				slog.String("url", path),
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", c.maxRetries),
				slog.String("error", err.Error()),
			)
			if attempt < c.maxRetries-1 {
				c.sleep(ctx, backoff(transientBackoffBase, attempt))
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = domain.ErrRateLimited
			wait := backoff(rateLimitBackoffBase, attempt)
			c.logger.WarnContext(ctx, "rate limited",
				slog.String("url", path),
				slog.Int("attempt", attempt+1),
				slog.Duration("wait", wait),
			)
			c.sleep(ctx, wait)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			c.logger.WarnContext(ctx, "http error",
				slog.String("url", path),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt+1),
			)
			if attempt < c.maxRetries-1 {
				c.sleep(ctx, backoff(transientBackoffBase, attempt))
			}
			continue
		}

		if readErr != nil {
			lastErr = readErr
			if attempt < c.maxRetries-1 {
				c.sleep(ctx, backoff(transientBackoffBase, attempt))
			}
			continue
		}

		return body, nil
	}

	return nil, fmt.Errorf("coingecko: %w after %d attempts (%s): %v",
		domain.ErrRetriesExhausted, c.maxRetries, path, lastErr)
}
