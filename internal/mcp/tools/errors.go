package tools

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/ledgerlens/ledgerlens-mcp/pkg/indexer"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/rpc"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/types"
)

// ErrInvalidInput builds the validation-failure envelope.
func ErrInvalidInput(message string) error {
	return types.NewToolError(types.ErrValidation, message,
		"fix the named parameter and call the tool again")
}

// WrapToolError converts client errors into the structured envelope the tool
// boundary returns. Every terminal failure carries a recovery hint.
func WrapToolError(err error) error {
	if err == nil {
		return nil
	}

	var toolErr *types.ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}

	coded := classify(err)

	slog.Warn("tool call failed",
		slog.String("code", string(coded.Code)),
		slog.String("message", coded.Message),
	)
	return coded
}

func classify(err error) *types.ToolError {
	var rpcErr *rpc.RPCError
	if errors.As(err, &rpcErr) {
		e := types.NewToolError(types.ErrRPC, err.Error(),
			"the node rejected the call; check the method name and parameter encoding")
		e.Details = map[string]any{"code": rpcErr.Code, "data": rpcErr.Data}
		return e
	}

	var authErr *indexer.AuthError
	if errors.As(err, &authErr) {
		return types.NewToolError(types.ErrNetwork, err.Error(),
			"credentials were rejected even after re-provisioning; set LEDGERLENS_API_KEY or LEDGERLENS_LOGIN/LEDGERLENS_PASSWORD")
	}

	var apiErr *indexer.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 400 {
			return types.NewToolError(types.ErrValidation, err.Error(),
				"the indexer rejected the request shape; check the parameter values")
		}
		return types.NewToolError(types.ErrRPC, err.Error(),
			"the indexer rejected the request; check the parameters")
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewToolError(types.ErrTimeout, "request timed out",
			"the endpoint is slow or unreachable; retry, or raise HTTP_CLIENT_TIMEOUT_MS")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.NewToolError(types.ErrTimeout, "request timed out",
			"the endpoint is slow or unreachable; retry, or raise HTTP_CLIENT_TIMEOUT_MS")
	}

	return types.NewToolError(types.ErrNetwork, err.Error(),
		"verify LEDGERLENS_RPC_URL and LEDGERLENS_INDEXER_URL point at reachable endpoints, then retry")
}
