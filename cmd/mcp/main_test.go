package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"

	"tideline-mcp/internal/config"
	"tideline-mcp/internal/instrumentation"
	"tideline-mcp/internal/marketdata"
	mcpserver "tideline-mcp/internal/mcp"
	"tideline-mcp/pkg/tracing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func restoreStubs(t *testing.T) {
	t.Helper()
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitTracer := initTracerFunc
	origNewClient := newClientFunc
	origNewMetrics := newMetricsFunc
	origRunStdio := runStdioFunc
	origNewHandler := newMCPHandlerFunc
	origStart := startHTTPServerFunc
	origShutdown := shutdownHTTPServerFn
	origNotify := setupSignalNotify
	origWait := waitForSignalFunc
	t.Cleanup(func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initTracerFunc = origInitTracer
		newClientFunc = origNewClient
		newMetricsFunc = origNewMetrics
		runStdioFunc = origRunStdio
		newMCPHandlerFunc = origNewHandler
		startHTTPServerFunc = origStart
		shutdownHTTPServerFn = origShutdown
		setupSignalNotify = origNotify
		waitForSignalFunc = origWait
	})
}

func TestMainStdio(t *testing.T) {
	restoreStubs(t)

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			APIKey:                "test-key",
			APIBaseURL:            marketdata.DefaultBaseURL,
			MCPTransport:          "stdio",
			MCPRequestTimeoutSecs: 5,
		}
	}

	ranStdio := false
	runStdioFunc = func(ctx context.Context, server *sdkmcp.Server) error {
		if server == nil {
			t.Error("expected a configured server")
		}
		ranStdio = true
		return nil
	}

	main()

	if !ranStdio {
		t.Fatal("expected stdio transport to run")
	}
}

func TestMainHTTP(t *testing.T) {
	restoreStubs(t)

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			APIKey:                "test-key",
			APIBaseURL:            marketdata.DefaultBaseURL,
			MCPTransport:          "http",
			MCPHTTPEnabled:        true,
			MCPHTTPBind:           "127.0.0.1",
			MCPHTTPPort:           0,
			MCPAuthToken:          "tok",
			MCPRequestTimeoutSecs: 5,
			MCPRateLimitPerMin:    60,
			MetricsEnabled:        true,
		}
	}
	newMetricsFunc = func() *instrumentation.Metrics { return nil }

	started := make(chan string, 1)
	startHTTPServerFunc = func(srv *http.Server) error {
		started <- srv.Addr
		return http.ErrServerClosed
	}
	shutdownCalled := false
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error {
		shutdownCalled = true
		return nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(quit <-chan os.Signal) { <-started }

	main()

	if !shutdownCalled {
		t.Fatal("expected graceful shutdown")
	}
}

func TestRunHTTPModeRequiresEnableFlagAndToken(t *testing.T) {
	restoreStubs(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := tracing.InitTracer(ctx)
	if err != nil {
		t.Fatalf("tracer init: %v", err)
	}
	defer tp.Shutdown(ctx)

	srv := newMCPServerFunc(tracer, nil, nil, mcpserver.ServerConfig{})

	err = runHTTPMode(ctx, cancel, &config.Config{MCPTransport: "http"}, srv)
	if err == nil || !strings.Contains(err.Error(), "MCP_HTTP_ENABLED") {
		t.Fatalf("expected enable-flag error, got %v", err)
	}

	err = runHTTPMode(ctx, cancel, &config.Config{MCPTransport: "http", MCPHTTPEnabled: true}, srv)
	if err == nil || !strings.Contains(err.Error(), "MCP_AUTH_TOKEN") {
		t.Fatalf("expected auth-token error, got %v", err)
	}
}
