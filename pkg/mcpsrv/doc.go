// Package mcpsrv provides an extensible MCP server for the ledgerlens chain
// access layer.
//
// The server fronts two data surfaces: the chain node's JSON-RPC endpoint and
// the authenticated Indexer REST API. Credential provisioning, retries, and
// result caching are handled internally; callers see MCP tools.
//
// # Basic Usage
//
// Create a server with configuration from the environment:
//
//	server, err := mcpsrv.NewServer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Add custom tools using MCP SDK types directly:
//
//	import mcp "github.com/modelcontextprotocol/go-sdk/mcp"
//
//	type MyInput struct {
//	    Address string `json:"address"`
//	}
//
//	type MyOutput struct {
//	    Flagged bool `json:"flagged"`
//	}
//
//	func myHandler(ctx context.Context, req *mcp.CallToolRequest, input MyInput) (*mcp.CallToolResult, MyOutput, error) {
//	    return nil, MyOutput{}, nil
//	}
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithTool(&mcp.Tool{Name: "my_tool", Description: "My tool"}, myHandler),
//	)
//
// Tools that need the clients, the cache, or the analysis engine use
// WithDepsTool instead and receive a *Deps.
//
// # Configuration
//
// Configure logging and credentials location:
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/ledgerlens-mcp.log"),
//	    mcpsrv.WithCredentialsPath("/etc/ledgerlens/credentials.json"),
//	)
package mcpsrv
