package mcpsrv

import (
	"github.com/ledgerlens/ledgerlens-mcp/internal/analysis"
	"github.com/ledgerlens/ledgerlens-mcp/internal/cache"
	"github.com/ledgerlens/ledgerlens-mcp/internal/config"
	"github.com/ledgerlens/ledgerlens-mcp/internal/credentials"
	"github.com/ledgerlens/ledgerlens-mcp/internal/query"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/indexer"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/rpc"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools.
type Deps struct {
	RPC         *rpc.Client
	Indexer     *indexer.Client
	Cache       *cache.Manager
	Credentials *credentials.Store
	Analysis    *analysis.Engine
	Query       *query.Engine
	Config      *config.Config
}
