package analysis

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ledgerlens/ledgerlens-mcp/internal/cache"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/indexer"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/rpc"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/types"
)

// Account classifications.
const (
	AccountTypeContract = "contract"
	AccountTypeEOA      = "eoa"
)

// AddressProfile is the merged view of an address across the node and the
// Indexer. Contract source and bridge activity are optional enrichments:
// when they fail the profile carries warnings, not errors.
type AddressProfile struct {
	Address      string                   `json:"address"`
	AccountType  string                   `json:"account_type"`
	Balance      string                   `json:"balance"`
	Nonce        uint64                   `json:"nonce"`
	TxCount      int                      `json:"tx_count"`
	Transactions []indexer.Transaction    `json:"transactions,omitzero"`
	Logs         []indexer.LogEntry       `json:"logs,omitzero"`
	Contract     *indexer.ContractSource  `json:"contract,omitempty"`
	Bridge       []indexer.BridgeTransfer `json:"bridge,omitempty"`
	// ServedStale is set when a live fetch failed and the profile came from
	// an expired cache entry instead.
	ServedStale bool  `json:"served_stale,omitempty"`
	StaleAgeMs  int64 `json:"stale_age_ms,omitempty"`
	types.Partial
}

// AddressProfile fans out to balance, nonce, code, transaction history,
// logs, contract source, and bridge activity, merging whatever succeeded.
// Fresh results come from the account cache when available; a fully failed
// fan-out falls back to a stale cache entry before giving up.
func (e *Engine) AddressProfile(ctx context.Context, address string) (*AddressProfile, error) {
	key, err := cache.Key("chain_address_profile", map[string]any{
		"address": address,
		"limit":   e.pageSize,
	})
	if err != nil {
		return nil, err
	}
	if v, ok := e.cache.Get(cache.CategoryAccount, key); ok {
		if cached, ok := v.(*AddressProfile); ok {
			return cached, nil
		}
	}

	res := e.buildProfile(ctx, address)

	// Every sub-call failed: prefer a stale cached profile over nothing.
	if len(res.Errors) > 0 && res.failedCount == res.subCalls {
		if st, ok := e.cache.GetStale(cache.CategoryAccount, key); ok {
			if cached, ok := st.Value.(*AddressProfile); ok {
				stale := *cached
				stale.ServedStale = true
				stale.StaleAgeMs = st.Age.Milliseconds()
				stale.Partial = types.Partial{}
				stale.AddWarning(fmt.Sprintf("live fetch failed, serving cached profile aged %s", st.Age))
				stale.Normalize()
				return &stale, nil
			}
		}
		return nil, fmt.Errorf("address profile for %s: all sub-calls failed: %v", address, res.Errors)
	}

	res.Normalize()
	if len(res.Errors) == 0 && len(res.Warnings) == 0 {
		e.cache.Set(cache.CategoryAccount, key, &res.AddressProfile)
	}
	return &res.AddressProfile, nil
}

// profileBuild tracks fan-out accounting alongside the profile itself.
// mu guards the error/warning lists and counters during the fan-out.
type profileBuild struct {
	AddressProfile
	mu          sync.Mutex
	subCalls    int
	failedCount int
}

func (e *Engine) buildProfile(ctx context.Context, address string) *profileBuild {
	res := &profileBuild{AddressProfile: AddressProfile{Address: address, AccountType: AccountTypeEOA}}

	var code string
	g, gctx := errgroup.WithContext(ctx)

	required := func(name string, fn func(context.Context) error) {
		res.subCalls++
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				res.mu.Lock()
				res.failedCount++
				res.AddError(fmt.Sprintf("%s failed: %v", name, err))
				res.mu.Unlock()
			}
			return nil
		})
	}
	optional := func(name string, fn func(context.Context) error) {
		res.subCalls++
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				res.mu.Lock()
				res.failedCount++
				res.AddWarning(fmt.Sprintf("%s failed: %v", name, err))
				res.mu.Unlock()
			}
			return nil
		})
	}

	required("balance lookup", func(ctx context.Context) error {
		bal, err := e.node.GetBalance(ctx, address, "")
		if err == nil {
			res.Balance = bal
		}
		return err
	})
	required("nonce lookup", func(ctx context.Context) error {
		nonce, err := e.node.GetTransactionCount(ctx, address, "")
		if err == nil {
			res.Nonce = nonce
		}
		return err
	})
	required("code lookup", func(ctx context.Context) error {
		c, err := e.node.GetCode(ctx, address, "")
		if err == nil {
			code = c
		}
		return err
	})
	required("account lookup", func(ctx context.Context) error {
		acct, err := e.index.GetAccount(ctx, address)
		if err == nil && acct != nil {
			res.TxCount = acct.TxCount
		}
		return err
	})
	required("transaction history", func(ctx context.Context) error {
		page, err := e.index.GetAccountTransactions(ctx, address, 1, e.pageSize)
		if err == nil && page != nil {
			res.Transactions = page.Transactions
		}
		return err
	})
	required("log history", func(ctx context.Context) error {
		logs, err := e.index.GetAccountLogs(ctx, address, e.pageSize)
		if err == nil {
			res.Logs = logs
		}
		return err
	})
	optional("contract source lookup", func(ctx context.Context) error {
		src, err := e.index.GetContractSource(ctx, address)
		if err == nil {
			res.Contract = src
		}
		return err
	})
	optional("bridge activity lookup", func(ctx context.Context) error {
		bridge, err := e.index.GetBridgeActivity(ctx, address)
		if err == nil {
			res.Bridge = bridge
		}
		return err
	})
	g.Wait()

	if rpc.HasCode(code) {
		res.AccountType = AccountTypeContract
	}
	if res.Transactions == nil {
		res.Transactions = []indexer.Transaction{}
	}
	if res.Logs == nil {
		res.Logs = []indexer.LogEntry{}
	}
	return res
}
