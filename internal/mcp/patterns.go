package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"tideline-mcp/internal/marketdata"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// The tool surface reduces to five call shapes. Each builder wires
// parameter decoding, defaulting, and symbol normalization around a
// single upstream call, then hands the response to the formatter.
// toolset.add is the one dispatch boundary: it applies the nil-client
// guard and translates failures, so a caller always gets a well-formed
// result envelope.

type toolset struct {
	server *sdkmcp.Server
	client *marketdata.Client
}

type toolHandler func(ctx context.Context, args any) (string, error)

func (t *toolset) add(tool *sdkmcp.Tool, handler toolHandler) {
	if tool.Annotations == nil {
		tool.Annotations = readOnlyAnnotations(tool.Name)
	}
	client := t.client
	t.server.AddTool(tool, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		if client == nil {
			return errorResult(setupInstructions), nil
		}
		text, err := handler(ctx, req.Params.Arguments)
		if err != nil {
			return errorResult(translateError(err)), nil
		}
		return textResult(text), nil
	})
}

type listCall func(ctx context.Context, c *marketdata.Client) (json.RawMessage, error)

type snapshotCall func(ctx context.Context, c *marketdata.Client, symbol string) (json.RawMessage, error)

type orderbookCall func(ctx context.Context, c *marketdata.Client, symbol string, depth *int) (json.RawMessage, error)

type historyCall func(ctx context.Context, c *marketdata.Client, symbol string, q marketdata.HistoryQuery) (*marketdata.Page, error)

// Pattern 1: parameterless instrument listing. Never truncated.
func (t *toolset) addInstrumentList(name, desc string, call listCall) {
	tool := &sdkmcp.Tool{
		Name:        name,
		Description: desc,
		InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{}),
	}
	t.add(tool, func(ctx context.Context, _ any) (string, error) {
		raw, err := call(ctx, t.client)
		if err != nil {
			return "", err
		}
		return formatValue(raw), nil
	})
}

type snapshotArgs struct {
	Symbol string `json:"symbol"`
}

// Pattern 2: current snapshot for one symbol.
func (t *toolset) addSnapshot(name, desc string, norm symbolNorm, symbolDesc string, call snapshotCall) {
	tool := &sdkmcp.Tool{
		Name:        name,
		Description: desc,
		InputSchema: objectSchema([]string{"symbol"}, map[string]*jsonschema.Schema{
			"symbol": stringSchema(symbolDesc),
		}),
	}
	t.add(tool, func(ctx context.Context, args any) (string, error) {
		var in snapshotArgs
		if err := decodeArgs(args, &in); err != nil {
			return "", err
		}
		symbol, err := requireSymbol(in.Symbol, norm)
		if err != nil {
			return "", err
		}
		raw, err := call(ctx, t.client, symbol)
		if err != nil {
			return "", err
		}
		return formatValue(raw), nil
	})
}

type orderbookArgs struct {
	Symbol string `json:"symbol"`
	Depth  *int   `json:"depth"`
}

// Pattern 3: orderbook snapshot. Depth is forwarded only when the caller
// supplied it; omission never injects a default into the upstream call.
func (t *toolset) addOrderbook(name, desc string, norm symbolNorm, symbolDesc string, call orderbookCall) {
	tool := &sdkmcp.Tool{
		Name:        name,
		Description: desc,
		InputSchema: objectSchema([]string{"symbol"}, map[string]*jsonschema.Schema{
			"symbol": stringSchema(symbolDesc),
			"depth":  integerSchema("number of levels per side (server default when omitted)"),
		}),
	}
	t.add(tool, func(ctx context.Context, args any) (string, error) {
		var in orderbookArgs
		if err := decodeArgs(args, &in); err != nil {
			return "", err
		}
		symbol, err := requireSymbol(in.Symbol, norm)
		if err != nil {
			return "", err
		}
		raw, err := call(ctx, t.client, symbol, in.Depth)
		if err != nil {
			return "", err
		}
		return formatValue(raw), nil
	})
}

type historyArgs struct {
	Symbol string `json:"symbol"`
	Start  any    `json:"start"`
	End    any    `json:"end"`
	Limit  *int   `json:"limit"`
	Cursor string `json:"cursor"`

	// Only advertised by the tools whose schema includes them.
	Interval string `json:"interval"`
	Side     string `json:"side"`
}

// Pattern 4: cursor-paginated history over a time window.
func (t *toolset) addHistory(name, desc string, norm symbolNorm, symbolDesc string, call historyCall) {
	t.addHistoryTool(name, desc, norm, historyProperties(symbolDesc), nil, call)
}

// Pattern 4 with a side filter (liquidations).
func (t *toolset) addSidedHistory(name, desc string, norm symbolNorm, symbolDesc string, call historyCall) {
	props := historyProperties(symbolDesc)
	props["side"] = enumSchema("filter by liquidated side", liquidationSides)
	t.addHistoryTool(name, desc, norm, props, sideFilter, call)
}

// Pattern 5: candle history with an enumerated interval. The interval is
// forwarded only when supplied; the upstream service defaults to 1h.
func (t *toolset) addCandleHistory(name, desc string, norm symbolNorm, symbolDesc string, call historyCall) {
	props := historyProperties(symbolDesc)
	props["interval"] = enumSchema("candle interval (server defaults to 1h)", supportedIntervals)
	t.addHistoryTool(name, desc, norm, props, intervalFilter, call)
}

func (t *toolset) addHistoryTool(
	name, desc string,
	norm symbolNorm,
	props map[string]*jsonschema.Schema,
	extra func(historyArgs) (map[string]string, error),
	call historyCall,
) {
	tool := &sdkmcp.Tool{
		Name:        name,
		Description: desc,
		InputSchema: objectSchema([]string{"symbol"}, props),
	}
	t.add(tool, func(ctx context.Context, args any) (string, error) {
		var in historyArgs
		if err := decodeArgs(args, &in); err != nil {
			return "", err
		}
		symbol, err := requireSymbol(in.Symbol, norm)
		if err != nil {
			return "", err
		}
		start, end, err := resolveTimeRange(in.Start, in.End)
		if err != nil {
			return "", err
		}
		q := marketdata.HistoryQuery{
			Start:  start,
			End:    end,
			Limit:  resolveLimit(in.Limit),
			Cursor: strings.TrimSpace(in.Cursor),
		}
		if extra != nil {
			m, err := extra(in)
			if err != nil {
				return "", err
			}
			q.Extra = m
		}
		page, err := call(ctx, t.client, symbol, q)
		if err != nil {
			return "", err
		}
		return formatPage(page, true), nil
	})
}

func sideFilter(in historyArgs) (map[string]string, error) {
	side, err := normalizeSide(in.Side)
	if err != nil {
		return nil, err
	}
	if side == "" {
		return nil, nil
	}
	return map[string]string{"side": side}, nil
}

func intervalFilter(in historyArgs) (map[string]string, error) {
	interval, err := normalizeInterval(in.Interval)
	if err != nil {
		return nil, err
	}
	if interval == "" {
		return nil, nil
	}
	return map[string]string{"interval": interval}, nil
}

func decodeArgs(args any, out any) error {
	switch raw := args.(type) {
	case nil:
		return nil
	case json.RawMessage:
		if len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, out)
	case []byte:
		if len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, out)
	default:
		data, err := json.Marshal(args)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, out)
	}
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *sdkmcp.CallToolResult {
	res := textResult(text)
	res.IsError = true
	return res
}

// Every tool queries an external read-only system; none mutates state,
// and repeating a call is always safe.
func readOnlyAnnotations(title string) *sdkmcp.ToolAnnotations {
	notDestructive := false
	openWorld := true
	return &sdkmcp.ToolAnnotations{
		Title:           title,
		ReadOnlyHint:    true,
		DestructiveHint: &notDestructive,
		IdempotentHint:  true,
		OpenWorldHint:   &openWorld,
	}
}

func objectSchema(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Required:   required,
		Properties: props,
	}
}

func stringSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func integerSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: desc}
}

// timestampSchema admits either unix milliseconds or a date string.
func timestampSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{"integer", "string"}, Description: desc}
}

func enumSchema(desc string, values []string) *jsonschema.Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &jsonschema.Schema{Type: "string", Description: desc, Enum: enum}
}

func historyProperties(symbolDesc string) map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"symbol": stringSchema(symbolDesc),
		"start":  timestampSchema("range start: unix ms or a date like 2024-01-31 (default: 24h ago)"),
		"end":    timestampSchema("range end: unix ms or a date string (default: now)"),
		"limit":  integerSchema("max records per page (default 100)"),
		"cursor": stringSchema("opaque cursor from a previous response; fetches the next page"),
	}
}
