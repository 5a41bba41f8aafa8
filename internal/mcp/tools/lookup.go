package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ledgerlens/ledgerlens-mcp/internal/cache"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/indexer"
)

// Thin pass-through tools. Each checks the category cache before going to
// the network and stores only found, complete results. Absence is reported
// as found=false with no error.

// GetBalanceInput is the input for chain_get_balance.
type GetBalanceInput struct {
	Address  string `json:"address" jsonschema:"required,Account address"`
	BlockTag string `json:"block_tag,omitempty" jsonschema:"Block tag or number (default: latest)"`
}

// GetBalanceOutput is the output for chain_get_balance.
type GetBalanceOutput struct {
	Address  string `json:"address"`
	Balance  string `json:"balance"`
	BlockTag string `json:"block_tag"`
}

// ToolGetBalance returns the node-reported balance as a hex quantity.
func ToolGetBalance(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetBalanceInput) (*sdkmcp.CallToolResult, GetBalanceOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetBalanceInput) (*sdkmcp.CallToolResult, GetBalanceOutput, error) {
		if input.Address == "" {
			return nil, GetBalanceOutput{}, ErrInvalidInput("address is required")
		}
		tag := input.BlockTag
		if tag == "" {
			tag = "latest"
		}

		key, err := cache.Key("chain_get_balance", map[string]any{"address": input.Address, "block_tag": tag})
		if err == nil {
			if v, ok := d.Cache.Get(cache.CategoryAccount, key); ok {
				if out, ok := v.(GetBalanceOutput); ok {
					return nil, out, nil
				}
			}
		}

		balance, err := d.RPC.GetBalance(ctx, input.Address, tag)
		if err != nil {
			return nil, GetBalanceOutput{}, WrapToolError(err)
		}
		output := GetBalanceOutput{Address: input.Address, Balance: balance, BlockTag: tag}
		d.Cache.Set(cache.CategoryAccount, key, output)
		return nil, output, nil
	}
}

// GetAccountInput is the input for chain_get_account.
type GetAccountInput struct {
	Address string `json:"address" jsonschema:"required,Account address"`
}

// GetAccountOutput is the output for chain_get_account.
type GetAccountOutput struct {
	Found   bool             `json:"found"`
	Account *indexer.Account `json:"account,omitempty"`
}

// ToolGetAccount returns the Indexer's enriched account view.
func ToolGetAccount(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetAccountInput) (*sdkmcp.CallToolResult, GetAccountOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetAccountInput) (*sdkmcp.CallToolResult, GetAccountOutput, error) {
		if input.Address == "" {
			return nil, GetAccountOutput{}, ErrInvalidInput("address is required")
		}

		key, err := cache.Key("chain_get_account", map[string]any{"address": input.Address})
		if err == nil {
			if v, ok := d.Cache.Get(cache.CategoryAccount, key); ok {
				if out, ok := v.(GetAccountOutput); ok {
					return nil, out, nil
				}
			}
		}

		account, err := d.Indexer.GetAccount(ctx, input.Address)
		if err != nil {
			return nil, GetAccountOutput{}, WrapToolError(err)
		}
		if account == nil {
			return nil, GetAccountOutput{}, nil
		}
		output := GetAccountOutput{Found: true, Account: account}
		d.Cache.Set(cache.CategoryAccount, key, output)
		return nil, output, nil
	}
}

// GetTransactionInput is the input for chain_get_transaction.
type GetTransactionInput struct {
	Hash string `json:"hash" jsonschema:"required,Transaction hash"`
}

// GetTransactionOutput is the output for chain_get_transaction.
type GetTransactionOutput struct {
	Found       bool                 `json:"found"`
	Transaction *indexer.Transaction `json:"transaction,omitempty"`
}

// ToolGetTransaction returns the indexed transaction summary.
func ToolGetTransaction(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetTransactionInput) (*sdkmcp.CallToolResult, GetTransactionOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetTransactionInput) (*sdkmcp.CallToolResult, GetTransactionOutput, error) {
		if input.Hash == "" {
			return nil, GetTransactionOutput{}, ErrInvalidInput("hash is required")
		}

		key, err := cache.Key("chain_get_transaction", map[string]any{"hash": input.Hash})
		if err == nil {
			if v, ok := d.Cache.Get(cache.CategoryLedger, key); ok {
				if out, ok := v.(GetTransactionOutput); ok {
					return nil, out, nil
				}
			}
		}

		tx, err := d.Indexer.GetTransaction(ctx, input.Hash)
		if err != nil {
			return nil, GetTransactionOutput{}, WrapToolError(err)
		}
		if tx == nil {
			return nil, GetTransactionOutput{}, nil
		}
		output := GetTransactionOutput{Found: true, Transaction: tx}
		d.Cache.Set(cache.CategoryLedger, key, output)
		return nil, output, nil
	}
}

// GetReceiptInput is the input for chain_get_receipt.
type GetReceiptInput struct {
	Hash string `json:"hash" jsonschema:"required,Transaction hash"`
}

// GetReceiptOutput is the output for chain_get_receipt.
type GetReceiptOutput struct {
	Found   bool             `json:"found"`
	Receipt *indexer.Receipt `json:"receipt,omitempty"`
}

// ToolGetReceipt returns the attested receipt for a transaction.
func ToolGetReceipt(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetReceiptInput) (*sdkmcp.CallToolResult, GetReceiptOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetReceiptInput) (*sdkmcp.CallToolResult, GetReceiptOutput, error) {
		if input.Hash == "" {
			return nil, GetReceiptOutput{}, ErrInvalidInput("hash is required")
		}

		key, err := cache.Key("chain_get_receipt", map[string]any{"hash": input.Hash})
		if err == nil {
			if v, ok := d.Cache.Get(cache.CategoryLedger, key); ok {
				if out, ok := v.(GetReceiptOutput); ok {
					return nil, out, nil
				}
			}
		}

		receipt, err := d.Indexer.GetReceipt(ctx, input.Hash)
		if err != nil {
			return nil, GetReceiptOutput{}, WrapToolError(err)
		}
		if receipt == nil {
			return nil, GetReceiptOutput{}, nil
		}
		output := GetReceiptOutput{Found: true, Receipt: receipt}
		d.Cache.Set(cache.CategoryLedger, key, output)
		return nil, output, nil
	}
}

// GetAuctionInput is the input for chain_get_auction.
type GetAuctionInput struct {
	AuctionID string `json:"auction_id" jsonschema:"required,Auction identifier"`
	Bids      bool   `json:"bids,omitempty" jsonschema:"Include the bid list"`
}

// GetAuctionOutput is the output for chain_get_auction.
type GetAuctionOutput struct {
	Found   bool             `json:"found"`
	Auction *indexer.Auction `json:"auction,omitempty"`
	Bids    []indexer.Bid    `json:"bids,omitzero"`
}

// ToolGetAuction returns the auction record, optionally with its bids.
func ToolGetAuction(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetAuctionInput) (*sdkmcp.CallToolResult, GetAuctionOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetAuctionInput) (*sdkmcp.CallToolResult, GetAuctionOutput, error) {
		if input.AuctionID == "" {
			return nil, GetAuctionOutput{}, ErrInvalidInput("auction_id is required")
		}

		key, err := cache.Key("chain_get_auction", map[string]any{"id": input.AuctionID, "bids": input.Bids})
		if err == nil {
			if v, ok := d.Cache.Get(cache.CategoryAuction, key); ok {
				if out, ok := v.(GetAuctionOutput); ok {
					return nil, out, nil
				}
			}
		}

		auction, err := d.Indexer.GetAuction(ctx, input.AuctionID)
		if err != nil {
			return nil, GetAuctionOutput{}, WrapToolError(err)
		}
		if auction == nil {
			return nil, GetAuctionOutput{}, nil
		}
		output := GetAuctionOutput{Found: true, Auction: auction}
		if input.Bids {
			bids, err := d.Indexer.GetAuctionBids(ctx, input.AuctionID)
			if err != nil {
				return nil, GetAuctionOutput{}, WrapToolError(err)
			}
			output.Bids = bids
		}
		d.Cache.Set(cache.CategoryAuction, key, output)
		return nil, output, nil
	}
}

// NetworkStatsInput is the input for chain_network_stats.
type NetworkStatsInput struct{}

// NetworkStatsOutput is the output for chain_network_stats.
type NetworkStatsOutput struct {
	Stats *indexer.NetworkStats `json:"stats,omitempty"`
}

// ToolNetworkStats returns the Indexer's network statistics snapshot.
func ToolNetworkStats(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input NetworkStatsInput) (*sdkmcp.CallToolResult, NetworkStatsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input NetworkStatsInput) (*sdkmcp.CallToolResult, NetworkStatsOutput, error) {
		key, err := cache.Key("chain_network_stats", nil)
		if err == nil {
			if v, ok := d.Cache.Get(cache.CategoryNetwork, key); ok {
				if out, ok := v.(NetworkStatsOutput); ok {
					return nil, out, nil
				}
			}
		}

		stats, err := d.Indexer.GetNetworkStats(ctx)
		if err != nil {
			return nil, NetworkStatsOutput{}, WrapToolError(err)
		}
		output := NetworkStatsOutput{Stats: stats}
		d.Cache.Set(cache.CategoryNetwork, key, output)
		return nil, output, nil
	}
}
