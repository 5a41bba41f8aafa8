// Package analysis combines node RPC and Indexer calls into higher-level
// answers: finality verification, checkpoint lag, address profiles, auction
// summaries, network health.
//
// Every operation tolerates partial failure: each sub-call recovers its own
// error into the result's errors (required data) or warnings (supplementary
// data) and substitutes a zero value so downstream computation proceeds. A
// top-level error is raised only when the primary entity lookup fails or
// every sub-call failed.
package analysis

import (
	"context"
	"time"

	"github.com/ledgerlens/ledgerlens-mcp/internal/cache"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/indexer"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/rpc"
)

// Node is the slice of the JSON-RPC client the analysis layer uses.
type Node interface {
	BlockNumber(ctx context.Context) (uint64, error)
	GetBalance(ctx context.Context, address, blockTag string) (string, error)
	GetTransactionCount(ctx context.Context, address, blockTag string) (uint64, error)
	GetCode(ctx context.Context, address, blockTag string) (string, error)
	GasPrice(ctx context.Context) (string, error)
}

// Index is the slice of the Indexer client the analysis layer uses.
type Index interface {
	GetAccount(ctx context.Context, address string) (*indexer.Account, error)
	GetAccountTransactions(ctx context.Context, address string, page, limit int) (*indexer.TransactionPage, error)
	GetAccountLogs(ctx context.Context, address string, limit int) ([]indexer.LogEntry, error)
	GetContractSource(ctx context.Context, address string) (*indexer.ContractSource, error)
	GetBridgeActivity(ctx context.Context, address string) ([]indexer.BridgeTransfer, error)
	GetReceipt(ctx context.Context, hash string) (*indexer.Receipt, error)
	GetReceiptsInWindow(ctx context.Context, sinceMs, untilMs int64) ([]indexer.Receipt, error)
	GetCommittee(ctx context.Context) (*indexer.Committee, error)
	GetCheckpoint(ctx context.Context) (*indexer.Checkpoint, error)
	GetAuction(ctx context.Context, id string) (*indexer.Auction, error)
	GetAuctionBids(ctx context.Context, id string) ([]indexer.Bid, error)
	GetAuctionWinner(ctx context.Context, id string) (*indexer.Bid, error)
	GetNetworkStats(ctx context.Context) (*indexer.NetworkStats, error)
}

var _ Node = (*rpc.Client)(nil)
var _ Index = (*indexer.Client)(nil)

// Options tunes the engine.
type Options struct {
	ProfilePageSize  int           // transactions fetched per address profile
	CheckpointWindow time.Duration // trailing window for checkpoint analysis
	BidderProfileMax int           // concurrent bidder profile sub-flows
}

// Engine is the composite analysis layer.
type Engine struct {
	node  Node
	index Index
	cache *cache.Manager

	pageSize   int
	window     time.Duration
	bidderMax  int
	now        func() time.Time
}

// New creates an Engine over explicit client and cache instances.
func New(node Node, index Index, cm *cache.Manager, opts Options) *Engine {
	if opts.ProfilePageSize <= 0 {
		opts.ProfilePageSize = 25
	}
	if opts.CheckpointWindow <= 0 {
		opts.CheckpointWindow = 10 * time.Minute
	}
	if opts.BidderProfileMax <= 0 {
		opts.BidderProfileMax = 4
	}
	return &Engine{
		node:      node,
		index:     index,
		cache:     cm,
		pageSize:  opts.ProfilePageSize,
		window:    opts.CheckpointWindow,
		bidderMax: opts.BidderProfileMax,
		now:       time.Now,
	}
}
