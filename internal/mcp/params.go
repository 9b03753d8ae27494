package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHistoryLimit = 100
	defaultWindow       = 24 * time.Hour
)

var errSymbolRequired = errors.New("symbol is required")

// timeNow is stubbed in tests.
var timeNow = time.Now

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// toMillis accepts either a numeric millisecond timestamp or a calendar
// date string and returns absolute milliseconds since the Unix epoch.
// Date strings without a zone are read as UTC.
func toMillis(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q", t.String())
		}
		return n, nil
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UnixMilli(), nil
			}
		}
		return 0, fmt.Errorf("invalid timestamp %q: use unix milliseconds or a date like 2024-01-31", t)
	default:
		return 0, fmt.Errorf("invalid timestamp %v", v)
	}
}

// resolveTimeRange substitutes now-24h and now for omitted bounds. The
// bounds resolve independently: supplying only start still defaults end
// to now. start <= end is left to the upstream service.
func resolveTimeRange(start, end any) (int64, int64, error) {
	now := timeNow()
	startMs := now.Add(-defaultWindow).UnixMilli()
	endMs := now.UnixMilli()

	if start != nil {
		ms, err := toMillis(start)
		if err != nil {
			return 0, 0, err
		}
		startMs = ms
	}
	if end != nil {
		ms, err := toMillis(end)
		if err != nil {
			return 0, 0, err
		}
		endMs = ms
	}
	return startMs, endMs, nil
}

// resolveLimit returns the caller's limit, or 100 when omitted. Supplied
// values pass through uncapped; the formatter bounds rendered output.
func resolveLimit(limit *int) int {
	if limit == nil || *limit <= 0 {
		return defaultHistoryLimit
	}
	return *limit
}

type symbolNorm func(string) string

// Binance and Bybit symbols are case-insensitive. Hyperliquid market ids
// (e.g. km:us500) are case-sensitive and pass through verbatim. Both
// rules are idempotent.
func uppercaseSymbol(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func verbatimSymbol(s string) string { return strings.TrimSpace(s) }

func requireSymbol(raw string, norm symbolNorm) (string, error) {
	s := norm(raw)
	if s == "" {
		return "", errSymbolRequired
	}
	return s, nil
}

var supportedIntervals = []string{"1s", "1m", "5m", "15m", "30m", "1h", "4h", "12h", "1d", "1w"}

// normalizeInterval validates a caller-supplied candle interval. An
// empty value passes through so the upstream default (hourly) applies.
func normalizeInterval(interval string) (string, error) {
	interval = strings.TrimSpace(interval)
	if interval == "" {
		return "", nil
	}
	for _, supported := range supportedIntervals {
		if interval == supported {
			return interval, nil
		}
	}
	return "", fmt.Errorf("unsupported interval: %s (supported: %s)", interval, strings.Join(supportedIntervals, ", "))
}

var liquidationSides = []string{"buy", "sell"}

func normalizeSide(side string) (string, error) {
	side = strings.ToLower(strings.TrimSpace(side))
	if side == "" {
		return "", nil
	}
	for _, supported := range liquidationSides {
		if side == supported {
			return side, nil
		}
	}
	return "", fmt.Errorf("unsupported side: %s (use buy or sell)", side)
}

var incidentStatuses = []string{"open", "monitoring", "resolved"}

func normalizeIncidentStatus(status string) (string, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return "", nil
	}
	for _, supported := range incidentStatuses {
		if status == supported {
			return status, nil
		}
	}
	return "", fmt.Errorf("unsupported status: %s (use %s)", status, strings.Join(incidentStatuses, ", "))
}

// normalizeExchange validates the optional exchange filter on the
// data-quality tools.
func normalizeExchange(exchange string) (string, error) {
	exchange = strings.ToLower(strings.TrimSpace(exchange))
	if exchange == "" {
		return "", nil
	}
	for _, ex := range exchanges {
		if exchange == ex.name {
			return exchange, nil
		}
	}
	return "", fmt.Errorf("unsupported exchange: %s (use %s)", exchange, strings.Join(exchangeNames(), ", "))
}
