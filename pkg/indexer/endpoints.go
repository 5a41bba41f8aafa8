package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Data endpoints. Lookups return a nil pointer (or nil slice) with no error
// when the Indexer answers 404: absence is a normal outcome.

// GetAccount returns the enriched account view, or nil if unknown.
func (c *Client) GetAccount(ctx context.Context, address string) (*Account, error) {
	var out Account
	err := c.get(ctx, "/api/v1/account/"+url.PathEscape(address), nil, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccountTransactions returns a bounded page of the address's history.
func (c *Client) GetAccountTransactions(ctx context.Context, address string, page, limit int) (*TransactionPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out TransactionPage
	err := c.get(ctx, "/api/v1/account/"+url.PathEscape(address)+"/transactions", q, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccountLogs returns event logs emitted to or by the address.
func (c *Client) GetAccountLogs(ctx context.Context, address string, limit int) ([]LogEntry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []LogEntry
	err := c.get(ctx, "/api/v1/account/"+url.PathEscape(address)+"/logs", q, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return out, nil
}

// GetContractSource returns the verified source record, or nil if the
// address has none.
func (c *Client) GetContractSource(ctx context.Context, address string) (*ContractSource, error) {
	var out ContractSource
	err := c.get(ctx, "/api/v1/contract/"+url.PathEscape(address), nil, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBridgeActivity returns cross-chain transfers touching the address.
func (c *Client) GetBridgeActivity(ctx context.Context, address string) ([]BridgeTransfer, error) {
	var out []BridgeTransfer
	err := c.get(ctx, "/api/v1/bridge/"+url.PathEscape(address), nil, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return out, nil
}

// GetTransaction returns the indexed transaction, or nil if unknown.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*Transaction, error) {
	var out Transaction
	err := c.get(ctx, "/api/v1/transaction/"+url.PathEscape(hash), nil, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReceipt returns the attested receipt, or nil if unknown.
func (c *Client) GetReceipt(ctx context.Context, hash string) (*Receipt, error) {
	var out Receipt
	err := c.get(ctx, "/api/v1/receipt/"+url.PathEscape(hash), nil, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReceiptsInWindow returns receipts issued inside [sinceMs, untilMs].
func (c *Client) GetReceiptsInWindow(ctx context.Context, sinceMs, untilMs int64) ([]Receipt, error) {
	q := url.Values{}
	q.Set("since_ms", strconv.FormatInt(sinceMs, 10))
	q.Set("until_ms", strconv.FormatInt(untilMs, 10))
	var out []Receipt
	err := c.get(ctx, "/api/v1/receipts", q, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return out, nil
}

// GetCommittee returns the current validator committee.
func (c *Client) GetCommittee(ctx context.Context) (*Committee, error) {
	var out Committee
	err := c.get(ctx, "/api/v1/committee", nil, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCheckpoint returns the current finality checkpoint.
func (c *Client) GetCheckpoint(ctx context.Context) (*Checkpoint, error) {
	var out Checkpoint
	err := c.get(ctx, "/api/v1/checkpoint", nil, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAuction returns the auction record, or nil if unknown.
func (c *Client) GetAuction(ctx context.Context, id string) (*Auction, error) {
	var out Auction
	err := c.get(ctx, "/api/v1/auction/"+url.PathEscape(id), nil, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAuctionBids returns all bids placed on the auction.
func (c *Client) GetAuctionBids(ctx context.Context, id string) ([]Bid, error) {
	var out []Bid
	err := c.get(ctx, "/api/v1/auction/"+url.PathEscape(id)+"/bids", nil, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return out, nil
}

// GetAuctionWinner returns the winning bid, or nil if the auction has none
// yet.
func (c *Client) GetAuctionWinner(ctx context.Context, id string) (*Bid, error) {
	var out Bid
	err := c.get(ctx, "/api/v1/auction/"+url.PathEscape(id)+"/winner", nil, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return &out, nil
}

// GetNetworkStats returns the volatile network statistics snapshot.
func (c *Client) GetNetworkStats(ctx context.Context) (*NetworkStats, error) {
	var out NetworkStats
	err := c.get(ctx, "/api/v1/stats", nil, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRaw fetches an arbitrary Indexer path and returns the raw JSON body.
// Used by the generic pass-through tool. The path must start with /api/.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if len(path) == 0 || path[0] != '/' {
		return nil, fmt.Errorf("indexer path must start with /: %q", path)
	}
	var out json.RawMessage
	err := c.get(ctx, path, query, &out)
	if miss, err := absent(err); miss || err != nil {
		return nil, err
	}
	return out, nil
}
