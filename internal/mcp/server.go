package mcp

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"tideline-mcp/internal/instrumentation"
	"tideline-mcp/internal/marketdata"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultRequestTimeout = 15 * time.Second

type ServerConfig struct {
	RequestTimeout time.Duration
}

// NewServer builds the MCP server and registers the full tool surface.
// A nil client means the upstream credential was missing at startup;
// every tool then answers with setup instructions instead of calling
// out. Tracer and metrics are optional.
func NewServer(tracer trace.Tracer, metrics *instrumentation.Metrics, client *marketdata.Client, cfg ServerConfig) *sdkmcp.Server {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "tideline-mcp",
		Version: "1.0.0",
	}, &sdkmcp.ServerOptions{
		Instructions: "Query Tideline market data: orderbooks, trades, candles, funding, open interest, liquidations, and data quality across Binance, Bybit, and Hyperliquid.",
		Logger:       slog.Default(),
	})

	srv.AddReceivingMiddleware(timeoutMiddleware(requestTimeout))
	if tracer != nil {
		srv.AddReceivingMiddleware(tracingMiddleware(tracer))
	}
	if metrics != nil {
		srv.AddReceivingMiddleware(metricsMiddleware(metrics))
	}

	registerTools(srv, client)
	return srv
}

func timeoutMiddleware(timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if timeout <= 0 {
				return next(ctx, method, req)
			}
			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(timeoutCtx, method, req)
		}
	}
}

func tracingMiddleware(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx, span := tracer.Start(ctx, mcpSpanName(method, req))
			span.SetAttributes(attribute.String("mcp.method", method))
			defer span.End()

			if callReq, ok := req.(*sdkmcp.CallToolRequest); ok {
				span.SetAttributes(attribute.String("mcp.tool", strings.TrimSpace(callReq.Params.Name)))
			}

			result, err := next(ctx, method, req)
			if err != nil {
				span.RecordError(err)
			}
			return result, err
		}
	}
}

func metricsMiddleware(metrics *instrumentation.Metrics) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}
			tool := "unknown"
			if callReq, ok := req.(*sdkmcp.CallToolRequest); ok {
				if name := strings.TrimSpace(callReq.Params.Name); name != "" {
					tool = name
				}
			}

			started := time.Now()
			result, err := next(ctx, method, req)

			outcome := "ok"
			switch {
			case err != nil:
				outcome = "protocol_error"
			default:
				if callRes, ok := result.(*sdkmcp.CallToolResult); ok && callRes.IsError {
					outcome = "tool_error"
				}
			}
			metrics.RecordToolCall(tool, outcome, time.Since(started))
			return result, err
		}
	}
}

func mcpSpanName(method string, req sdkmcp.Request) string {
	if method == "tools/call" {
		if callReq, ok := req.(*sdkmcp.CallToolRequest); ok {
			if name := strings.TrimSpace(callReq.Params.Name); name != "" {
				return "mcp.tool." + name
			}
		}
		return "mcp.tool.call"
	}
	return "mcp." + strings.ReplaceAll(method, "/", ".")
}
