// Package marketdata is a thin HTTP client for the Tideline market data
// API. It owns request building, authentication headers, and pagination
// decoding; it never retries, caches, or reinterprets the data it
// fetches.
package marketdata

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
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.tideline.io/v1"

	defaultHTTPTimeout = 30 * time.Second
	maxResponseBytes   = 16 << 20
)

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

type Option func(*Client)

func WithBaseURL(rawURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(rawURL, "/") }
}

func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Instruments lists every instrument tracked for an exchange.
func (c *Client) Instruments(ctx context.Context, exchange string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.get(ctx, "/exchanges/"+exchange+"/instruments", nil, &out)
	return out, err
}

// Orderbook fetches the current book snapshot. A nil depth leaves the
// depth choice to the server.
func (c *Client) Orderbook(ctx context.Context, exchange, symbol string, depth *int) (json.RawMessage, error) {
	v := url.Values{}
	v.Set("symbol", symbol)
	if depth != nil {
		v.Set("depth", strconv.Itoa(*depth))
	}
	var out json.RawMessage
	err := c.get(ctx, "/exchanges/"+exchange+"/orderbook", v, &out)
	return out, err
}

func (c *Client) Trades(ctx context.Context, exchange, symbol string, q HistoryQuery) (*Page, error) {
	return c.page(ctx, "/exchanges/"+exchange+"/trades", q.values(symbol))
}

func (c *Client) Candles(ctx context.Context, exchange, symbol string, q HistoryQuery) (*Page, error) {
	return c.page(ctx, "/exchanges/"+exchange+"/candles", q.values(symbol))
}

func (c *Client) FundingHistory(ctx context.Context, exchange, symbol string, q HistoryQuery) (*Page, error) {
	return c.page(ctx, "/exchanges/"+exchange+"/funding/history", q.values(symbol))
}

// OpenInterest returns the current open interest for one symbol.
func (c *Client) OpenInterest(ctx context.Context, exchange, symbol string) (json.RawMessage, error) {
	v := url.Values{}
	v.Set("symbol", symbol)
	var out json.RawMessage
	err := c.get(ctx, "/exchanges/"+exchange+"/open-interest", v, &out)
	return out, err
}

func (c *Client) Liquidations(ctx context.Context, exchange, symbol string, q HistoryQuery) (*Page, error) {
	return c.page(ctx, "/exchanges/"+exchange+"/liquidations", q.values(symbol))
}

// QualityStatus reports collection status and feed health. An empty
// exchange covers all integrations.
func (c *Client) QualityStatus(ctx context.Context, exchange string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.get(ctx, "/quality/status", exchangeValues(exchange), &out)
	return out, err
}

func (c *Client) QualityCoverage(ctx context.Context, exchange string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.get(ctx, "/quality/coverage", exchangeValues(exchange), &out)
	return out, err
}

func (c *Client) QualitySymbolCoverage(ctx context.Context, symbol, exchange string) (json.RawMessage, error) {
	v := exchangeValues(exchange)
	if v == nil {
		v = url.Values{}
	}
	v.Set("symbol", symbol)
	var out json.RawMessage
	err := c.get(ctx, "/quality/symbol-coverage", v, &out)
	return out, err
}

func (c *Client) QualityIncidents(ctx context.Context, q IncidentQuery) (*Page, error) {
	return c.page(ctx, "/quality/incidents", q.values())
}

func (c *Client) QualityLatency(ctx context.Context, exchange string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.get(ctx, "/quality/latency", exchangeValues(exchange), &out)
	return out, err
}

// QualitySLA reports SLA attainment. Zero year/month mean the current
// reporting period.
func (c *Client) QualitySLA(ctx context.Context, exchange string, year, month int) (json.RawMessage, error) {
	v := exchangeValues(exchange)
	if v == nil {
		v = url.Values{}
	}
	if year > 0 {
		v.Set("year", strconv.Itoa(year))
	}
	if month > 0 {
		v.Set("month", strconv.Itoa(month))
	}
	var out json.RawMessage
	err := c.get(ctx, "/quality/sla", v, &out)
	return out, err
}

func exchangeValues(exchange string) url.Values {
	if exchange == "" {
		return nil
	}
	v := url.Values{}
	v.Set("exchange", exchange)
	return v
}

func (c *Client) page(ctx context.Context, path string, query url.Values) (*Page, error) {
	var out Page
	if err := c.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
