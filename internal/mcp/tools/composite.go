package tools

import (
	"context"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ledgerlens/ledgerlens-mcp/internal/analysis"
	"github.com/ledgerlens/ledgerlens-mcp/internal/cache"
)

// Composite tools front the analysis engine. Their outputs embed errors[] and
// warnings[] so a partially failed fan-out still returns everything it could
// gather.

// VerifyFinalityInput is the input for chain_verify_finality.
type VerifyFinalityInput struct {
	TxHash string `json:"tx_hash" jsonschema:"required,Transaction hash"`
}

// ToolVerifyFinality grades a transaction's finality from its receipt
// attestations, the committee quorum, and the finality checkpoint.
func ToolVerifyFinality(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input VerifyFinalityInput) (*sdkmcp.CallToolResult, *analysis.FinalityResult, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input VerifyFinalityInput) (*sdkmcp.CallToolResult, *analysis.FinalityResult, error) {
		if input.TxHash == "" {
			return nil, nil, ErrInvalidInput("tx_hash is required")
		}
		res, err := d.Analysis.VerifyFinality(ctx, input.TxHash)
		if err != nil {
			return nil, nil, WrapToolError(err)
		}
		return nil, res, nil
	}
}

// CheckpointAnalysisInput is the input for chain_checkpoint_analysis.
type CheckpointAnalysisInput struct {
	WindowMs int64 `json:"window_ms,omitempty" jsonschema:"Trailing receipt window in milliseconds (default: 600000)"`
}

// ToolCheckpointAnalysis reports checkpoint lag and locked-in receipt counts.
func ToolCheckpointAnalysis(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input CheckpointAnalysisInput) (*sdkmcp.CallToolResult, *analysis.CheckpointAnalysis, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input CheckpointAnalysisInput) (*sdkmcp.CallToolResult, *analysis.CheckpointAnalysis, error) {
		if input.WindowMs < 0 {
			return nil, nil, ErrInvalidInput("window_ms must be non-negative")
		}
		res, err := d.Analysis.AnalyzeCheckpoint(ctx, time.Duration(input.WindowMs)*time.Millisecond)
		if err != nil {
			return nil, nil, WrapToolError(err)
		}
		return nil, res, nil
	}
}

// AddressProfileInput is the input for chain_address_profile.
type AddressProfileInput struct {
	Address string `json:"address" jsonschema:"required,Account address"`
}

// ToolAddressProfile merges node and Indexer data into one address view.
func ToolAddressProfile(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input AddressProfileInput) (*sdkmcp.CallToolResult, *analysis.AddressProfile, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input AddressProfileInput) (*sdkmcp.CallToolResult, *analysis.AddressProfile, error) {
		if input.Address == "" {
			return nil, nil, ErrInvalidInput("address is required")
		}
		res, err := d.Analysis.AddressProfile(ctx, input.Address)
		if err != nil {
			return nil, nil, WrapToolError(err)
		}
		return nil, res, nil
	}
}

// AuctionSummaryInput is the input for chain_auction_summary.
type AuctionSummaryInput struct {
	AuctionID             string `json:"auction_id" jsonschema:"required,Auction identifier"`
	IncludeBidderProfiles bool   `json:"include_bidder_profiles,omitempty" jsonschema:"Profile every distinct bidder (slower)"`
}

// ToolAuctionSummary merges an auction with its bids, winner, and optionally
// per-bidder profiles.
func ToolAuctionSummary(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input AuctionSummaryInput) (*sdkmcp.CallToolResult, *analysis.AuctionAnalysis, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input AuctionSummaryInput) (*sdkmcp.CallToolResult, *analysis.AuctionAnalysis, error) {
		if input.AuctionID == "" {
			return nil, nil, ErrInvalidInput("auction_id is required")
		}
		res, err := d.Analysis.AuctionSummary(ctx, input.AuctionID, input.IncludeBidderProfiles)
		if err != nil {
			return nil, nil, WrapToolError(err)
		}
		return nil, res, nil
	}
}

// NetworkHealthInput is the input for chain_network_health.
type NetworkHealthInput struct{}

// ToolNetworkHealth merges node vitals with Indexer stats and checkpoint lag.
func ToolNetworkHealth(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input NetworkHealthInput) (*sdkmcp.CallToolResult, *analysis.NetworkHealth, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input NetworkHealthInput) (*sdkmcp.CallToolResult, *analysis.NetworkHealth, error) {
		res, err := d.Analysis.NetworkHealth(ctx)
		if err != nil {
			return nil, nil, WrapToolError(err)
		}
		return nil, res, nil
	}
}

// CacheStatsInput is the input for chain_cache_stats.
type CacheStatsInput struct{}

// ToolCacheStats exposes the cache hit/miss counters.
func ToolCacheStats(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input CacheStatsInput) (*sdkmcp.CallToolResult, cache.Stats, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input CacheStatsInput) (*sdkmcp.CallToolResult, cache.Stats, error) {
		return nil, d.Cache.Stats(), nil
	}
}
