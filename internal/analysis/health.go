package analysis

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ledgerlens/ledgerlens-mcp/internal/cache"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/indexer"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/types"
)

// Health statuses.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// NetworkHealth is a merged snapshot of node and Indexer vitals. Status is
// "degraded" when any source failed.
type NetworkHealth struct {
	Status          string                `json:"status"`
	BlockNumber     uint64                `json:"block_number"`
	GasPrice        string                `json:"gas_price"`
	Stats           *indexer.NetworkStats `json:"stats,omitempty"`
	CheckpointLagMs int64                 `json:"checkpoint_lag_ms"`
	types.Partial
}

// NetworkHealth gathers block height and gas price from the node, stats and
// checkpoint lag from the Indexer. Every sub-call is independent; the
// operation fails only when all of them do.
func (e *Engine) NetworkHealth(ctx context.Context) (*NetworkHealth, error) {
	key, err := cache.Key("chain_network_health", nil)
	if err != nil {
		return nil, err
	}
	if v, ok := e.cache.Get(cache.CategoryNetwork, key); ok {
		if cached, ok := v.(*NetworkHealth); ok {
			return cached, nil
		}
	}

	res := &NetworkHealth{Status: HealthOK}

	var (
		mu     sync.Mutex
		failed int
	)
	sub := func(name string, fn func(context.Context) error) func() error {
		return func() error {
			if err := fn(ctx); err != nil {
				mu.Lock()
				failed++
				res.AddError(fmt.Sprintf("%s failed: %v", name, err))
				mu.Unlock()
			}
			return nil
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(sub("block number", func(context.Context) error {
		n, err := e.node.BlockNumber(gctx)
		if err == nil {
			res.BlockNumber = n
		}
		return err
	}))
	g.Go(sub("gas price", func(context.Context) error {
		p, err := e.node.GasPrice(gctx)
		if err == nil {
			res.GasPrice = p
		}
		return err
	}))
	g.Go(sub("network stats", func(context.Context) error {
		stats, err := e.index.GetNetworkStats(gctx)
		if err == nil {
			res.Stats = stats
		}
		return err
	}))
	g.Go(sub("checkpoint", func(context.Context) error {
		cp, err := e.index.GetCheckpoint(gctx)
		if err == nil && cp != nil {
			res.CheckpointLagMs = e.now().UnixMilli() - cp.TimestampMs
		}
		return err
	}))
	g.Wait()

	if failed == 4 {
		return nil, fmt.Errorf("network health: all sub-calls failed: %v", res.Errors)
	}
	if failed > 0 {
		res.Status = HealthDegraded
	}

	res.Normalize()
	if failed == 0 {
		e.cache.Set(cache.CategoryNetwork, key, res)
	}
	return res, nil
}
