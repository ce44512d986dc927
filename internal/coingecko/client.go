package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mtlprog/coinconv/internal/domain"
)

// MaxPerPage is the largest page size the markets endpoint accepts.
const MaxPerPage = 250

// Client fetches market data from the CoinGecko API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
}

// NewClient creates a new CoinGecko API client. apiKey may be empty for the public tier.
func NewClient(baseURL, apiKey string, delay time.Duration, maxRetries int) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
	}
}

// marketCoin is one element of the /coins/markets response.
type marketCoin struct {
	ID           string   `json:"id"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Image        string   `json:"image"`
	CurrentPrice *float64 `json:"current_price"`
}

// FetchTopAssets returns up to limit assets ordered by market cap, priced in USD.
// Coins the API reports without a price are skipped.
func (c *Client) FetchTopAssets(ctx context.Context, limit int) ([]domain.Asset, error) {
	limit = max(1, min(limit, MaxPerPage))

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("page", "1")
	q.Set("sparkline", "false")

	body, err := c.fetchWithRetry(ctx, c.baseURL+"/coins/markets?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var coins []marketCoin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("parsing CoinGecko response: %w", err)
	}

	assets := make([]domain.Asset, 0, len(coins))
	for _, coin := range coins {
		if coin.CurrentPrice == nil {
			slog.Debug("CoinGecko: skipping coin without price", "id", coin.ID)
			continue
		}
		assets = append(assets, domain.Asset{
			ID:       coin.ID,
			Symbol:   coin.Symbol,
			Name:     coin.Name,
			Image:    coin.Image,
			PriceUSD: *coin.CurrentPrice,
		})
	}
	if len(assets) > limit {
		assets = assets[:limit]
	}

	return assets, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.delay
			if baseDelay == 0 {
				baseDelay = 10 * time.Second
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
			return nil, fmt.Errorf("creating CoinGecko request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("x-cg-demo-api-key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("CoinGecko request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading CoinGecko response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("CoinGecko rate limited (attempt %d/%d)", attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("CoinGecko HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil, lastErr
}
