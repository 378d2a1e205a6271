// Package quote sources and stores external price quotes for the fund's
// registered assets. The price feed consumed by the valuation engine reads
// from the quote store, never from the wire, so an unreachable quote API
// degrades to stale-quote errors instead of blocking valuations.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client fetches base-currency prices from the external quote API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	baseDelay  time.Duration
	maxRetries int
}

// NewClient creates a quote API client with exponential-backoff retry.
func NewClient(baseURL string, baseDelay time.Duration, maxRetries int) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseDelay:  baseDelay,
		maxRetries: maxRetries,
	}
}

// FetchPrices fetches base-currency prices for the given feed symbols.
// Returns a map of symbol -> price.
func (c *Client) FetchPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	u := fmt.Sprintf("%s/v1/prices?symbols=%s", c.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	body, err := c.fetchWithRetry(ctx, u)
	if err != nil {
		return nil, err
	}

	// Parse: {"gold":{"price":"61.25"},"bitcoin":{"price":"56210.4"}}
	var raw map[string]struct {
		Price decimal.Decimal `json:"price"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing quote API response: %w", err)
	}

	result := make(map[string]decimal.Decimal, len(raw))
	for _, symbol := range symbols {
		if entry, ok := raw[symbol]; ok {
			result[symbol] = entry.Price
		}
	}
	return result, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.baseDelay
			if baseDelay == 0 {
				baseDelay = 2 * time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating quote API request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("quote API request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading quote API response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("quote API HTTP %d (attempt %d/%d)", resp.StatusCode, attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("quote API HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil, lastErr
}
