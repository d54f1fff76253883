// Package dexscreener is a REST client for the DexScreener pair search API.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

const DefaultBaseURL = "https://api.dexscreener.com/latest"

// Client is the REST client for DexScreener.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a DexScreener client. A non-positive timeout falls back
// to 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type searchResponse struct {
	SchemaVersion string           `json:"schemaVersion"`
	Pairs         []domain.DexPair `json:"pairs"`
}

// Search returns the pairs matching q in the aggregator's relevance order.
func (c *Client) Search(ctx context.Context, q string) ([]domain.DexPair, error) {
	params := url.Values{}
	params.Set("q", q)

	body, err := c.doGet(ctx, "/dex/search", params)
	if err != nil {
		return nil, fmt.Errorf("dexscreener: search %s: %w", q, err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener: decode search %s: %w: %v", q, domain.ErrBadPayload, err)
	}
	if resp.Pairs == nil {
		return []domain.DexPair{}, nil
	}
	return resp.Pairs, nil
}

// FirstPair returns the top search match for q.
func (c *Client) FirstPair(ctx context.Context, q string) (domain.DexPair, error) {
	pairs, err := c.Search(ctx, q)
	if err != nil {
		return domain.DexPair{}, err
	}
	if len(pairs) == 0 {
		return domain.DexPair{}, fmt.Errorf("dexscreener: search %s: %w", q, domain.ErrNotFound)
	}
	return pairs[0], nil
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, string(body))
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, string(body))
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
}
