package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Tool 1: chain_rpc_call
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_rpc_call",
		Description: "Call an arbitrary JSON-RPC method on the chain node. Params are positional and follow the method's wire encoding (hex quantities, 0x-prefixed addresses). Set extract to a jq expression to pull specific fields out of a large result instead of receiving the whole payload.",
	}, ToolRPCCall(d))

	// Tool 2: chain_indexer_query
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_indexer_query",
		Description: "Fetch an arbitrary Indexer REST path (must start with /api/). Authentication is handled automatically; pass api_key or login/password to override credentials for this call only, and indexer_url to aim the call at a different Indexer. Returns found=false when the path answers 404. Supports the same jq extract as chain_rpc_call.",
	}, ToolIndexerQuery(d))

	// Tool 3: chain_get_balance
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_get_balance",
		Description: "Get an address's balance from the node as a 0x-prefixed hex quantity. Defaults to the latest block; pass block_tag for a historical read.",
	}, ToolGetBalance(d))

	// Tool 4: chain_get_account
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_get_account",
		Description: "Get the Indexer's enriched account view (balance, nonce, transaction count, first/last seen). Returns found=false for unknown addresses. Use chain_address_profile for the full merged node+indexer picture.",
	}, ToolGetAccount(d))

	// Tool 5: chain_get_transaction
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_get_transaction",
		Description: "Get an indexed transaction summary by hash. Returns found=false if the Indexer has not seen the hash.",
	}, ToolGetTransaction(d))

	// Tool 6: chain_get_receipt
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_get_receipt",
		Description: "Get the attested receipt for a transaction, including its validator attestation count. Returns found=false when no receipt exists yet. Use chain_verify_finality to grade the attestations against the committee quorum.",
	}, ToolGetReceipt(d))

	// Tool 7: chain_get_auction
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_get_auction",
		Description: "Get an auction record by id, optionally with its bid list. Returns found=false for unknown auctions. Use chain_auction_summary for winner analysis and bidder profiles.",
	}, ToolGetAuction(d))

	// Tool 8: chain_network_stats
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_network_stats",
		Description: "Get the Indexer's network statistics snapshot (active validators, TPS, pending transactions, average block time).",
	}, ToolNetworkStats(d))

	// Tool 9: chain_verify_finality
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_verify_finality",
		Description: "Assess whether a transaction is finalized. Compares receipt attestations to the committee quorum (confidence HIGH/MEDIUM/LOW/NONE) and the receipt timestamp to the finality checkpoint (locked_in). Partial data degrades into errors[]/warnings[] instead of failing the call.",
	}, ToolVerifyFinality(d))

	// Tool 10: chain_checkpoint_analysis
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_checkpoint_analysis",
		Description: "Analyze the finality checkpoint: how far it lags the wall clock and how many receipts in the trailing window it has locked in.",
	}, ToolCheckpointAnalysis(d))

	// Tool 11: chain_address_profile
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_address_profile",
		Description: "Build a merged profile of an address: balance, nonce, and code from the node; transaction history, logs, contract source, and bridge activity from the Indexer. Sub-call failures degrade into errors[]/warnings[]; when everything fails a stale cached profile is served if one exists (served_stale=true).",
	}, ToolAddressProfile(d))

	// Tool 12: chain_auction_summary
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_auction_summary",
		Description: "Summarize an auction: record, bids, winner, and distinct bidder count. Set include_bidder_profiles=true to run a full address profile per bidder (each profile fails independently into warnings[]).",
	}, ToolAuctionSummary(d))

	// Tool 13: chain_network_health
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_network_health",
		Description: "One-shot health snapshot: node block number and gas price, Indexer network stats, and checkpoint lag. status=degraded when any source failed (per-source reasons in errors[]).",
	}, ToolNetworkHealth(d))

	// Tool 14: chain_cache_stats
	AddTool(srv, &sdkmcp.Tool{
		Name:        "chain_cache_stats",
		Description: "Get result-cache counters: hits, misses, stale hits, and entry count.",
	}, ToolCacheStats(d))
}
