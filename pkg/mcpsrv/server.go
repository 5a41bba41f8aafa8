package mcpsrv

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ledgerlens/ledgerlens-mcp/internal/analysis"
	"github.com/ledgerlens/ledgerlens-mcp/internal/cache"
	"github.com/ledgerlens/ledgerlens-mcp/internal/config"
	"github.com/ledgerlens/ledgerlens-mcp/internal/credentials"
	"github.com/ledgerlens/ledgerlens-mcp/internal/logging"
	"github.com/ledgerlens/ledgerlens-mcp/internal/mcp"
	"github.com/ledgerlens/ledgerlens-mcp/internal/mcp/tools"
	"github.com/ledgerlens/ledgerlens-mcp/internal/query"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/indexer"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/rpc"
)

// Server is the ledgerlens MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with the builtin chain tools.
//
// Configuration is read from environment variables (see internal/config);
// functional options override logging, the HTTP client, and the credentials
// file location, and register custom tools.
func NewServer(opts ...Option) (*Server, error) {
	cfg := &serverConfig{
		config: config.Load(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	logCfg := logging.Config{
		Level:      cfg.config.LogLevel,
		FilePath:   cfg.config.LogFile,
		MaxSizeMB:  cfg.config.LogMaxSizeMB,
		MaxBackups: cfg.config.LogMaxBackups,
		MaxAgeDays: cfg.config.LogMaxAgeDays,
		Compress:   cfg.config.LogCompress,
	}
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	cacheManager, err := cache.NewManager(cache.DefaultCategories(
		cfg.config.LedgerCacheMax,
		cfg.config.AccountCacheMax,
		cfg.config.ContractCacheMax,
		cfg.config.AuctionCacheMax,
		cfg.config.NetworkCacheMax,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	rpcOpts := []rpc.Option{
		rpc.WithTimeout(cfg.config.HTTPClientTimeout),
		rpc.WithRetry(cfg.config.MaxAttempts, cfg.config.BackoffBase),
		rpc.WithSlowQueryThreshold(cfg.config.SlowQueryThreshold),
	}
	idxOpts := []indexer.Option{
		indexer.WithTimeout(cfg.config.HTTPClientTimeout),
		indexer.WithRetry(cfg.config.MaxAttempts, cfg.config.BackoffBase),
		indexer.WithRateLimit(cfg.config.IndexerRPS),
		indexer.WithSlowQueryThreshold(cfg.config.SlowQueryThreshold),
	}
	if cfg.httpClient != nil {
		rpcOpts = append(rpcOpts, rpc.WithHTTPClient(cfg.httpClient))
		idxOpts = append(idxOpts, indexer.WithHTTPClient(cfg.httpClient))
	}

	node := rpc.New(cfg.config.RPCBaseURL, rpcOpts...)

	// The auth API and the credential store break the circular dependency:
	// the store provisions keys through the session-scoped API, the data
	// client authenticates through the store.
	auth := indexer.NewAuth(cfg.config.IndexerBaseURL, idxOpts...)
	var credOpts []credentials.Option
	if cfg.credentialsPath != "" {
		credOpts = append(credOpts, credentials.WithPath(cfg.credentialsPath))
	}
	store := credentials.NewStore(credentials.Config{
		APIKey:     cfg.config.APIKey,
		Login:      cfg.config.Login,
		Password:   cfg.config.Password,
		IndexerURL: cfg.config.IndexerBaseURL,
	}, auth, credOpts...)

	idx := indexer.New(cfg.config.IndexerBaseURL, store, idxOpts...)

	engine := analysis.New(node, idx, cacheManager, analysis.Options{
		ProfilePageSize:  cfg.config.ProfilePageSize,
		CheckpointWindow: cfg.config.CheckpointWindow,
	})
	queryEngine := query.NewEngine()

	toolDeps := &tools.Deps{
		RPC:         node,
		Indexer:     idx,
		Cache:       cacheManager,
		Credentials: store,
		Analysis:    engine,
		Query:       queryEngine,
		Config:      cfg.config,
	}

	// Public deps (same values, different type for the embedding API)
	deps := &Deps{
		RPC:         node,
		Indexer:     idx,
		Cache:       cacheManager,
		Credentials: store,
		Analysis:    engine,
		Query:       queryEngine,
		Config:      cfg.config,
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	for _, fn := range cfg.toolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.promptRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.resourceRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}
