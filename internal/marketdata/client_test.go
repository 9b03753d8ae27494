package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New("key-123", WithBaseURL(ts.URL))
}

func TestClientSendsAPIKey(t *testing.T) {
	var gotKey, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotPath = r.URL.Path
		w.Write([]byte(`[{"symbol":"BTCUSDT"}]`))
	})

	raw, err := c.Instruments(context.Background(), "binance")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "key-123" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotPath != "/exchanges/binance/instruments" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if !strings.Contains(string(raw), "BTCUSDT") {
		t.Fatalf("unexpected body: %s", raw)
	}
}

func TestClientDecodesPage(t *testing.T) {
	var gotQuery url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"data":[{"price":"100.5"},{"price":"100.6"}],"nextCursor":"cur-2"}`))
	})

	page, err := c.Trades(context.Background(), "bybit", "BTCUSDT", HistoryQuery{
		Start:  1000,
		End:    2000,
		Limit:  50,
		Cursor: "cur-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Data) != 2 || page.NextCursor != "cur-2" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if gotQuery.Get("symbol") != "BTCUSDT" || gotQuery.Get("start") != "1000" ||
		gotQuery.Get("end") != "2000" || gotQuery.Get("limit") != "50" ||
		gotQuery.Get("cursor") != "cur-1" {
		t.Fatalf("unexpected query: %v", gotQuery)
	}
}

func TestClientDecodesStructuredError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"rate limit exceeded","requestId":"req-9"}}`))
	})

	_, err := c.OpenInterest(context.Background(), "binance", "BTCUSDT")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != 429 || apiErr.Message != "rate limit exceeded" || apiErr.RequestID != "req-9" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
}

func TestClientFallsBackToStatusOnOpaqueBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("Bad Gateway"))
	})

	_, err := c.Instruments(context.Background(), "binance")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != 502 || apiErr.Message != "Bad Gateway" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
}

func TestHistoryQueryValues(t *testing.T) {
	v := HistoryQuery{}.values("ETHUSDT")
	if v.Get("symbol") != "ETHUSDT" {
		t.Fatalf("expected symbol, got %v", v)
	}
	for _, key := range []string{"start", "end", "limit", "cursor"} {
		if _, present := v[key]; present {
			t.Fatalf("zero-valued %s must be omitted: %v", key, v)
		}
	}

	v = HistoryQuery{Extra: map[string]string{"interval": "4h", "side": ""}}.values("ETHUSDT")
	if v.Get("interval") != "4h" {
		t.Fatalf("expected extra interval, got %v", v)
	}
	if _, present := v["side"]; present {
		t.Fatalf("empty extras must be omitted: %v", v)
	}
}

func TestQualitySLAQuery(t *testing.T) {
	var gotQuery url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"uptime":0.999}`))
	})

	if _, err := c.QualitySLA(context.Background(), "binance", 2026, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery.Get("exchange") != "binance" || gotQuery.Get("year") != "2026" || gotQuery.Get("month") != "8" {
		t.Fatalf("unexpected query: %v", gotQuery)
	}

	if _, err := c.QualitySLA(context.Background(), "", 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotQuery) != 0 {
		t.Fatalf("zero period must send no parameters: %v", gotQuery)
	}
}
