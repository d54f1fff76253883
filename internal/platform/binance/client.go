// Package binance is a REST client for the public Binance spot market-data
// API (ticker price and 24-hour rolling statistics).
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/tradeassist/internal/domain"
)

// DefaultBaseURL is the public market-data mirror that needs no API key.
const DefaultBaseURL = "https://data-api.binance.vision/api/v3"

// codeInvalidSymbol is Binance's error code for an unknown trading pair.
const codeInvalidSymbol = -1121

// Client is the REST client for Binance spot market data.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Binance client. A non-positive timeout falls back to
// 10 seconds.
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

type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// TickerPrice returns the latest spot price for a pair such as "ETHUSDT".
func (c *Client) TickerPrice(ctx context.Context, pair string) (float64, error) {
	body, err := c.doGet(ctx, "/ticker/price", pair)
	if err != nil {
		return 0, fmt.Errorf("binance: ticker price %s: %w", pair, err)
	}

	var tp tickerPrice
	if err := json.Unmarshal(body, &tp); err != nil {
		return 0, fmt.Errorf("binance: decode ticker price %s: %w: %v", pair, domain.ErrBadPayload, err)
	}
	price, err := strconv.ParseFloat(tp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("binance: parse ticker price %s %q: %w", pair, tp.Price, domain.ErrBadPayload)
	}
	return price, nil
}

// Ticker24h returns the rolling 24-hour statistics for a pair.
func (c *Client) Ticker24h(ctx context.Context, pair string) (domain.Ticker24h, error) {
	body, err := c.doGet(ctx, "/ticker/24hr", pair)
	if err != nil {
		return domain.Ticker24h{}, fmt.Errorf("binance: 24h ticker %s: %w", pair, err)
	}

	var t domain.Ticker24h
	if err := json.Unmarshal(body, &t); err != nil {
		return domain.Ticker24h{}, fmt.Errorf("binance: decode 24h ticker %s: %w: %v", pair, domain.ErrBadPayload, err)
	}
	if t.Symbol == "" {
		return domain.Ticker24h{}, fmt.Errorf("binance: 24h ticker %s: %w: missing symbol", pair, domain.ErrBadPayload)
	}
	return t, nil
}

// doGet sends an unauthenticated GET for a single-symbol endpoint.
func (c *Client) doGet(ctx context.Context, path, symbol string) ([]byte, error) {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
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

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// checkHTTPStatus maps non-2xx status codes to domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var ae apiError
	_ = json.Unmarshal(body, &ae)
	msg := ae.Msg
	if msg == "" {
		msg = string(body)
	}

	switch {
	case statusCode == http.StatusNotFound,
		statusCode == http.StatusBadRequest && ae.Code == codeInvalidSymbol:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
	case statusCode == http.StatusTooManyRequests, statusCode == http.StatusTeapot:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, msg)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, msg)
	}
}
