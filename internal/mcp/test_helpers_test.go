package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tideline-mcp/internal/marketdata"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// newStubUpstream spins up a fake Tideline API and returns a client
// pointed at it.
func newStubUpstream(t *testing.T, handler http.HandlerFunc) *marketdata.Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return marketdata.New("test-key", marketdata.WithBaseURL(ts.URL))
}

func testServer(client *marketdata.Client) *sdkmcp.Server {
	return NewServer(nil, nil, client, ServerConfig{RequestTimeout: 3 * time.Second})
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

func resultText(res *sdkmcp.CallToolResult) string {
	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}
