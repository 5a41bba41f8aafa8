package indexer

// Wire types for the Indexer REST API. All bodies are JSON.

// Account is the enriched account view.
type Account struct {
	Address   string `json:"address"`
	Balance   string `json:"balance"`
	Nonce     uint64 `json:"nonce"`
	TxCount   int    `json:"tx_count"`
	FirstSeen int64  `json:"first_seen_ms,omitempty"`
	LastSeen  int64  `json:"last_seen_ms,omitempty"`
}

// Transaction is an indexed transaction summary.
type Transaction struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to,omitempty"`
	Value       string `json:"value"`
	Nonce       uint64 `json:"nonce"`
	BlockNumber uint64 `json:"block_number"`
	TimestampMs int64  `json:"timestamp_ms"`
	Status      string `json:"status"`
}

// TransactionPage is a bounded page of transactions.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Page         int           `json:"page"`
	Limit        int           `json:"limit"`
	Total        int           `json:"total"`
}

// LogEntry is an indexed event log.
type LogEntry struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	TxHash      string   `json:"tx_hash"`
	BlockNumber uint64   `json:"block_number"`
	TimestampMs int64    `json:"timestamp_ms"`
}

// ContractSource is the verified-source record for a contract address.
type ContractSource struct {
	Address      string `json:"address"`
	Name         string `json:"name"`
	Compiler     string `json:"compiler,omitempty"`
	Source       string `json:"source,omitempty"`
	ABI          string `json:"abi,omitempty"`
	VerifiedAtMs int64  `json:"verified_at_ms,omitempty"`
}

// BridgeTransfer is one cross-chain transfer touching an address.
type BridgeTransfer struct {
	TxHash      string `json:"tx_hash"`
	Direction   string `json:"direction"` // "inbound" or "outbound"
	RemoteChain string `json:"remote_chain"`
	Amount      string `json:"amount"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// Receipt is a transaction receipt with its validator attestations.
type Receipt struct {
	TxHash           string `json:"tx_hash"`
	BlockNumber      uint64 `json:"block_number"`
	Status           string `json:"status"`
	AttestationCount int    `json:"attestation_count"`
	TimestampMs      int64  `json:"timestamp_ms"`
}

// Committee describes the current validator committee.
type Committee struct {
	Size       int   `json:"size"`
	QuorumSize int   `json:"quorum_size"`
	Cycle      uint64 `json:"cycle"`
}

// Checkpoint is the current finality checkpoint: every transaction whose
// timestamp is at or below TimestampMs is immutable.
type Checkpoint struct {
	TimestampMs int64  `json:"timestamp_ms"`
	Cycle       uint64 `json:"cycle"`
}

// Auction is an on-chain auction record.
type Auction struct {
	ID          string `json:"id"`
	Asset       string `json:"asset"`
	Seller      string `json:"seller"`
	Status      string `json:"status"`
	Reserve     string `json:"reserve"`
	StartMs     int64  `json:"start_ms"`
	EndMs       int64  `json:"end_ms"`
	BidCount    int    `json:"bid_count"`
}

// Bid is a single bid on an auction.
type Bid struct {
	AuctionID   string `json:"auction_id"`
	Bidder      string `json:"bidder"`
	Amount      string `json:"amount"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// NetworkStats is the volatile network statistics snapshot.
type NetworkStats struct {
	ActiveValidators int     `json:"active_validators"`
	TPS              float64 `json:"tps"`
	PendingTxs       int     `json:"pending_txs"`
	AvgBlockTimeMs   int64   `json:"avg_block_time_ms"`
}

// session is the token envelope returned by register/login.
type session struct {
	Token string `json:"token"`
}

// apiKeyResponse is the envelope returned by key creation.
type apiKeyResponse struct {
	Key string `json:"key"`
}

// apiKeyList is the envelope returned by key listing.
type apiKeyList struct {
	Keys []string `json:"keys"`
}
