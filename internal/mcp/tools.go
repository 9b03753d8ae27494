package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"tideline-mcp/internal/marketdata"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools binds every tool name to one of the call patterns. The
// registry is fixed at startup and never mutated afterwards. A nil
// client is allowed: every tool then returns setup instructions.

type exchangeSpec struct {
	name         string // tool-name prefix and upstream path segment
	display      string
	norm         symbolNorm
	symbolDesc   string
	liquidations bool
}

var exchanges = []exchangeSpec{
	{
		name:         "binance",
		display:      "Binance",
		norm:         uppercaseSymbol,
		symbolDesc:   "perpetual symbol, case-insensitive (e.g. BTCUSDT)",
		liquidations: true,
	},
	{
		name:         "bybit",
		display:      "Bybit",
		norm:         uppercaseSymbol,
		symbolDesc:   "perpetual symbol, case-insensitive (e.g. BTCUSDT)",
		liquidations: true,
	},
	{
		name:       "hyperliquid",
		display:    "Hyperliquid",
		norm:       verbatimSymbol,
		symbolDesc: "market id, case-sensitive (e.g. BTC or km:us500)",
		// Hyperliquid has no upstream liquidation feed.
	},
}

func exchangeNames() []string {
	names := make([]string, len(exchanges))
	for i, ex := range exchanges {
		names[i] = ex.name
	}
	return names
}

func registerTools(server *sdkmcp.Server, client *marketdata.Client) {
	ts := &toolset{server: server, client: client}
	for _, ex := range exchanges {
		registerExchangeTools(ts, ex)
	}
	registerQualityTools(ts)
}

func registerExchangeTools(ts *toolset, ex exchangeSpec) {
	exchange := ex.name

	ts.addInstrumentList(exchange+"_list_instruments",
		"List all instruments tracked on "+ex.display,
		func(ctx context.Context, c *marketdata.Client) (json.RawMessage, error) {
			return c.Instruments(ctx, exchange)
		})

	ts.addOrderbook(exchange+"_get_orderbook",
		"Get the current "+ex.display+" orderbook snapshot for a symbol",
		ex.norm, ex.symbolDesc,
		func(ctx context.Context, c *marketdata.Client, symbol string, depth *int) (json.RawMessage, error) {
			return c.Orderbook(ctx, exchange, symbol, depth)
		})

	ts.addHistory(exchange+"_get_trades",
		"Get "+ex.display+" trade history for a symbol (cursor-paginated)",
		ex.norm, ex.symbolDesc,
		func(ctx context.Context, c *marketdata.Client, symbol string, q marketdata.HistoryQuery) (*marketdata.Page, error) {
			return c.Trades(ctx, exchange, symbol, q)
		})

	ts.addCandleHistory(exchange+"_get_candles",
		"Get "+ex.display+" OHLCV candles for a symbol (cursor-paginated)",
		ex.norm, ex.symbolDesc,
		func(ctx context.Context, c *marketdata.Client, symbol string, q marketdata.HistoryQuery) (*marketdata.Page, error) {
			return c.Candles(ctx, exchange, symbol, q)
		})

	ts.addHistory(exchange+"_get_funding_history",
		"Get "+ex.display+" funding rate history for a symbol (cursor-paginated)",
		ex.norm, ex.symbolDesc,
		func(ctx context.Context, c *marketdata.Client, symbol string, q marketdata.HistoryQuery) (*marketdata.Page, error) {
			return c.FundingHistory(ctx, exchange, symbol, q)
		})

	ts.addSnapshot(exchange+"_get_open_interest",
		"Get current "+ex.display+" open interest for a symbol",
		ex.norm, ex.symbolDesc,
		func(ctx context.Context, c *marketdata.Client, symbol string) (json.RawMessage, error) {
			return c.OpenInterest(ctx, exchange, symbol)
		})

	if ex.liquidations {
		ts.addSidedHistory(exchange+"_get_liquidations",
			"Get "+ex.display+" liquidation history for a symbol (cursor-paginated)",
			ex.norm, ex.symbolDesc,
			func(ctx context.Context, c *marketdata.Client, symbol string, q marketdata.HistoryQuery) (*marketdata.Page, error) {
				return c.Liquidations(ctx, exchange, symbol, q)
			})
	}
}

type qualityArgs struct {
	Exchange string `json:"exchange"`
	Symbol   string `json:"symbol"`
	Status   string `json:"status"`
	Since    any    `json:"since"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Limit    *int   `json:"limit"`
	Cursor   string `json:"cursor"`
}

// The data-quality tools sit outside the five exchange patterns: they
// share one argument shape and differ only in which upstream quality
// endpoint they hit.
func registerQualityTools(ts *toolset) {
	exchangeProp := func() *jsonschema.Schema {
		return enumSchema("restrict to one exchange (default: all)", exchangeNames())
	}

	ts.add(&sdkmcp.Tool{
		Name:        "quality_get_status",
		Description: "Get current data collection status and feed health per exchange",
		InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{"exchange": exchangeProp()}),
	}, func(ctx context.Context, args any) (string, error) {
		in, err := decodeQualityArgs(args)
		if err != nil {
			return "", err
		}
		raw, err := ts.client.QualityStatus(ctx, in.Exchange)
		if err != nil {
			return "", err
		}
		return formatValue(raw), nil
	})

	ts.add(&sdkmcp.Tool{
		Name:        "quality_get_coverage",
		Description: "Get historical data coverage per exchange and data type",
		InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{"exchange": exchangeProp()}),
	}, func(ctx context.Context, args any) (string, error) {
		in, err := decodeQualityArgs(args)
		if err != nil {
			return "", err
		}
		raw, err := ts.client.QualityCoverage(ctx, in.Exchange)
		if err != nil {
			return "", err
		}
		return formatValue(raw), nil
	})

	ts.add(&sdkmcp.Tool{
		Name:        "quality_get_symbol_coverage",
		Description: "Get data coverage for one symbol across exchanges",
		InputSchema: objectSchema([]string{"symbol"}, map[string]*jsonschema.Schema{
			"symbol":   stringSchema("symbol or market id, passed through verbatim"),
			"exchange": exchangeProp(),
		}),
	}, func(ctx context.Context, args any) (string, error) {
		in, err := decodeQualityArgs(args)
		if err != nil {
			return "", err
		}
		symbol, err := requireSymbol(in.Symbol, verbatimSymbol)
		if err != nil {
			return "", err
		}
		raw, err := ts.client.QualitySymbolCoverage(ctx, symbol, in.Exchange)
		if err != nil {
			return "", err
		}
		return formatValue(raw), nil
	})

	ts.add(&sdkmcp.Tool{
		Name:        "quality_list_incidents",
		Description: "List data collection incidents (cursor-paginated)",
		InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{
			"exchange": exchangeProp(),
			"status":   enumSchema("filter by incident status", incidentStatuses),
			"since":    timestampSchema("only incidents after this time: unix ms or a date string"),
			"limit":    integerSchema("max records per page (default 100)"),
			"cursor":   stringSchema("opaque cursor from a previous response; fetches the next page"),
		}),
	}, func(ctx context.Context, args any) (string, error) {
		in, err := decodeQualityArgs(args)
		if err != nil {
			return "", err
		}
		status, err := normalizeIncidentStatus(in.Status)
		if err != nil {
			return "", err
		}
		q := marketdata.IncidentQuery{
			Exchange: in.Exchange,
			Status:   status,
			Limit:    resolveLimit(in.Limit),
			Cursor:   strings.TrimSpace(in.Cursor),
		}
		if in.Since != nil {
			since, err := toMillis(in.Since)
			if err != nil {
				return "", err
			}
			q.Since = since
		}
		page, err := ts.client.QualityIncidents(ctx, q)
		if err != nil {
			return "", err
		}
		return formatPage(page, true), nil
	})

	ts.add(&sdkmcp.Tool{
		Name:        "quality_get_latency",
		Description: "Get end-to-end collection latency statistics per exchange",
		InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{"exchange": exchangeProp()}),
	}, func(ctx context.Context, args any) (string, error) {
		in, err := decodeQualityArgs(args)
		if err != nil {
			return "", err
		}
		raw, err := ts.client.QualityLatency(ctx, in.Exchange)
		if err != nil {
			return "", err
		}
		return formatValue(raw), nil
	})

	ts.add(&sdkmcp.Tool{
		Name:        "quality_get_sla",
		Description: "Get SLA attainment for a reporting period (default: current month)",
		InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{
			"exchange": exchangeProp(),
			"year":     integerSchema("reporting year, e.g. 2026"),
			"month":    integerSchema("reporting month, 1-12"),
		}),
	}, func(ctx context.Context, args any) (string, error) {
		in, err := decodeQualityArgs(args)
		if err != nil {
			return "", err
		}
		raw, err := ts.client.QualitySLA(ctx, in.Exchange, in.Year, in.Month)
		if err != nil {
			return "", err
		}
		return formatValue(raw), nil
	})
}

func decodeQualityArgs(args any) (qualityArgs, error) {
	var in qualityArgs
	if err := decodeArgs(args, &in); err != nil {
		return qualityArgs{}, err
	}
	exchange, err := normalizeExchange(in.Exchange)
	if err != nil {
		return qualityArgs{}, err
	}
	in.Exchange = exchange
	return in, nil
}
