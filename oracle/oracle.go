// Package oracle fetches the settlement token's fiat exchange rate from a
// public ticker endpoint.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultEndpoint is the public ticker the storefront prices against.
	DefaultEndpoint = "https://api.binance.com/api/v3/ticker/price"
	// DefaultPair is the settlement token / fiat stablecoin trading pair.
	DefaultPair = "APTUSDC"
)

// tickerResponse is the ticker endpoint body. The price arrives as a string.
type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Client issues a single unauthenticated GET per Price call. There is no
// retry and no cache; the checkout session fetches the rate once and holds it.
type Client struct {
	endpoint   string
	pair       string
	httpClient *http.Client
}

// Config configures the oracle client. Zero values fall back to defaults,
// except Timeout: zero means no timeout, matching the original client which
// waits on the remote endpoint indefinitely.
type Config struct {
	Endpoint string
	Pair     string
	Timeout  time.Duration

	// HTTPClient overrides the transport entirely when set.
	HTTPClient *http.Client
}

// New creates a ticker client.
func New(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	pair := cfg.Pair
	if pair == "" {
		pair = DefaultPair
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		endpoint:   endpoint,
		pair:       pair,
		httpClient: httpClient,
	}
}

// Price returns the current exchange rate of the settlement token against the
// fiat currency. Any transport or parse failure is returned as an error; the
// caller treats the rate as absent and keeps purchase affordances disabled.
func (c *Client) Price(ctx context.Context) (decimal.Decimal, error) {
	u := fmt.Sprintf("%s?symbol=%s", c.endpoint, url.QueryEscape(c.pair))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build ticker request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch ticker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("ticker returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read ticker response: %w", err)
	}

	var ticker tickerResponse
	if err := json.Unmarshal(body, &ticker); err != nil {
		return decimal.Zero, fmt.Errorf("decode ticker response: %w", err)
	}

	price, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse ticker price %q: %w", ticker.Price, err)
	}

	return price, nil
}

// Pair returns the configured trading pair.
func (c *Client) Pair() string { return c.pair }
