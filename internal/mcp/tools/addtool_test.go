package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerlens/ledgerlens-mcp/internal/analysis"
	"github.com/ledgerlens/ledgerlens-mcp/internal/cache"
)

func TestCheckOutputSchemaAcceptsRegisteredOutputs(t *testing.T) {
	// Every registered output type must survive the zero-value check, or
	// Register would panic at startup.
	assert.NotPanics(t, func() {
		CheckOutputSchema[RPCCallOutput]("chain_rpc_call")
		CheckOutputSchema[IndexerQueryOutput]("chain_indexer_query")
		CheckOutputSchema[GetBalanceOutput]("chain_get_balance")
		CheckOutputSchema[GetAccountOutput]("chain_get_account")
		CheckOutputSchema[GetTransactionOutput]("chain_get_transaction")
		CheckOutputSchema[GetReceiptOutput]("chain_get_receipt")
		CheckOutputSchema[GetAuctionOutput]("chain_get_auction")
		CheckOutputSchema[NetworkStatsOutput]("chain_network_stats")
		CheckOutputSchema[*analysis.FinalityResult]("chain_verify_finality")
		CheckOutputSchema[*analysis.CheckpointAnalysis]("chain_checkpoint_analysis")
		CheckOutputSchema[*analysis.AddressProfile]("chain_address_profile")
		CheckOutputSchema[*analysis.AuctionAnalysis]("chain_auction_summary")
		CheckOutputSchema[*analysis.NetworkHealth]("chain_network_health")
		CheckOutputSchema[cache.Stats]("chain_cache_stats")
	})
}

func TestCheckOutputSchemaRejectsNilSlice(t *testing.T) {
	type bad struct {
		Items []string `json:"items"`
	}
	assert.Panics(t, func() {
		CheckOutputSchema[bad]("bad_tool")
	})
}

func TestCheckOutputSchemaRejectsRawMessage(t *testing.T) {
	type bad struct {
		Body json.RawMessage `json:"body"`
	}
	assert.Panics(t, func() {
		CheckOutputSchema[bad]("bad_tool")
	})
}
