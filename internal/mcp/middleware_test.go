package mcp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoggingMiddlewareAttachesToolName(t *testing.T) {
	buf := captureLogs(t)

	handler := LoggingMiddleware()(func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		return nil, nil
	})

	req := &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{Name: "chain_get_balance"}}
	_, err := handler(context.Background(), "tools/call", req)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "method call completed")
	assert.Contains(t, out, "method=tools/call")
	assert.Contains(t, out, "tool=chain_get_balance")
}

func TestLoggingMiddlewareLogsFailures(t *testing.T) {
	buf := captureLogs(t)

	handler := LoggingMiddleware()(func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
		return nil, errors.New("node unreachable")
	})

	_, err := handler(context.Background(), "tools/list", nil)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "method call failed")
	assert.Contains(t, out, "node unreachable")
	assert.NotContains(t, out, "tool=", "non-tool methods carry no tool attribute")
}
