package tools

import (
	"context"
	"encoding/json"
	"net/url"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ledgerlens/ledgerlens-mcp/internal/credentials"
)

// RPCCallInput is the input for chain_rpc_call.
type RPCCallInput struct {
	Method     string `json:"method" jsonschema:"required,JSON-RPC method name (e.g. eth_getBalance)"`
	Params     []any  `json:"params,omitempty" jsonschema:"Positional parameters, encoded per the method's wire format"`
	Extract    string `json:"extract,omitempty" jsonschema:"Optional jq expression applied to the result"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Max extracted values to return (default: 1000)"`
}

// RPCCallOutput is the output for chain_rpc_call.
type RPCCallOutput struct {
	Result      any      `json:"result"`
	Extracted   []any    `json:"extracted,omitzero"`
	QueryErrors []string `json:"query_errors,omitzero"`
}

// ToolRPCCall passes an arbitrary JSON-RPC method through to the node,
// optionally narrowing the result with a jq expression.
func ToolRPCCall(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input RPCCallInput) (*sdkmcp.CallToolResult, RPCCallOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input RPCCallInput) (*sdkmcp.CallToolResult, RPCCallOutput, error) {
		if input.Method == "" {
			return nil, RPCCallOutput{}, ErrInvalidInput("method is required")
		}
		if input.Extract != "" {
			if err := d.Query.ValidateExpression(input.Extract); err != nil {
				return nil, RPCCallOutput{}, ErrInvalidInput(err.Error())
			}
		}

		var result any
		if err := d.RPC.Call(ctx, input.Method, input.Params, &result); err != nil {
			return nil, RPCCallOutput{}, WrapToolError(err)
		}

		output := RPCCallOutput{Result: result}
		if input.Extract != "" {
			res, err := d.Query.Extract(result, input.Extract, input.MaxResults)
			if err != nil {
				return nil, RPCCallOutput{}, ErrInvalidInput(err.Error())
			}
			output.Extracted = res.Values
			output.QueryErrors = res.Errors
		}
		return nil, output, nil
	}
}

// IndexerQueryInput is the input for chain_indexer_query.
type IndexerQueryInput struct {
	Path       string            `json:"path" jsonschema:"required,Indexer path starting with /api/ (e.g. /api/v1/stats)"`
	Query      map[string]string `json:"query,omitempty" jsonschema:"URL query parameters"`
	Extract    string            `json:"extract,omitempty" jsonschema:"Optional jq expression applied to the result"`
	MaxResults int               `json:"max_results,omitempty" jsonschema:"Max extracted values to return (default: 1000)"`
	APIKey     string            `json:"api_key,omitempty" jsonschema:"Override API key for this call only (never persisted)"`
	Login      string            `json:"login,omitempty" jsonschema:"Override login for this call only"`
	Password   string            `json:"password,omitempty" jsonschema:"Override password for this call only"`
	IndexerURL string            `json:"indexer_url,omitempty" jsonschema:"Override the Indexer base URL for this call only"`
}

// IndexerQueryOutput is the output for chain_indexer_query.
type IndexerQueryOutput struct {
	Found       bool     `json:"found"`
	Result      any      `json:"result,omitempty"`
	Extracted   []any    `json:"extracted,omitzero"`
	QueryErrors []string `json:"query_errors,omitzero"`
}

// ToolIndexerQuery fetches an arbitrary Indexer path. Per-call credential
// overrides ride the context and never touch the persisted credentials.
func ToolIndexerQuery(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input IndexerQueryInput) (*sdkmcp.CallToolResult, IndexerQueryOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input IndexerQueryInput) (*sdkmcp.CallToolResult, IndexerQueryOutput, error) {
		if input.Path == "" {
			return nil, IndexerQueryOutput{}, ErrInvalidInput("path is required")
		}
		if input.Extract != "" {
			if err := d.Query.ValidateExpression(input.Extract); err != nil {
				return nil, IndexerQueryOutput{}, ErrInvalidInput(err.Error())
			}
		}
		if input.APIKey != "" || input.Login != "" || input.IndexerURL != "" {
			ctx = credentials.WithRuntime(ctx, &credentials.Runtime{
				APIKey:     input.APIKey,
				Login:      input.Login,
				Password:   input.Password,
				IndexerURL: input.IndexerURL,
			})
		}

		q := url.Values{}
		for k, v := range input.Query {
			q.Set(k, v)
		}
		raw, err := d.Indexer.GetRaw(ctx, input.Path, q)
		if err != nil {
			return nil, IndexerQueryOutput{}, WrapToolError(err)
		}
		if raw == nil {
			return nil, IndexerQueryOutput{}, nil
		}

		var result any
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, IndexerQueryOutput{}, WrapToolError(err)
		}

		output := IndexerQueryOutput{Found: true, Result: result}
		if input.Extract != "" {
			res, err := d.Query.Extract(result, input.Extract, input.MaxResults)
			if err != nil {
				return nil, IndexerQueryOutput{}, ErrInvalidInput(err.Error())
			}
			output.Extracted = res.Values
			output.QueryErrors = res.Errors
		}
		return nil, output, nil
	}
}
