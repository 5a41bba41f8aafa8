package analysis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ledgerlens/ledgerlens-mcp/pkg/indexer"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/types"
)

// CheckpointAnalysis reports how far the finality checkpoint trails the
// wall clock and how many recent receipts it has locked in.
type CheckpointAnalysis struct {
	CheckpointTimestampMs int64  `json:"checkpoint_timestamp_ms"`
	CheckpointCycle       uint64 `json:"checkpoint_cycle"`
	LagMs                 int64  `json:"lag_ms"`
	WindowMs              int64  `json:"window_ms"`
	ReceiptsInWindow      int    `json:"receipts_in_window"`
	LockedInCount         int    `json:"locked_in_count"`
	types.Partial
}

// AnalyzeCheckpoint fetches the current checkpoint and the receipts issued
// within the trailing window. The checkpoint is required; the receipt sweep
// is supplementary.
func (e *Engine) AnalyzeCheckpoint(ctx context.Context, window time.Duration) (*CheckpointAnalysis, error) {
	if window <= 0 {
		window = e.window
	}
	now := e.now()
	sinceMs := now.Add(-window).UnixMilli()
	untilMs := now.UnixMilli()

	res := &CheckpointAnalysis{WindowMs: window.Milliseconds()}

	var (
		checkpoint    *indexer.Checkpoint
		checkpointErr error
		receipts      []indexer.Receipt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		checkpoint, checkpointErr = e.index.GetCheckpoint(gctx)
		return nil
	})
	g.Go(func() error {
		// Only a clean sweep publishes; a value returned alongside an
		// error is discarded.
		rs, err := e.index.GetReceiptsInWindow(gctx, sinceMs, untilMs)
		if err != nil {
			res.AddWarning(fmt.Sprintf("receipt window sweep failed: %v", err))
			return nil
		}
		receipts = rs
		return nil
	})
	g.Wait()

	if checkpointErr != nil {
		return nil, fmt.Errorf("checkpoint lookup: %w", checkpointErr)
	}
	if checkpoint == nil {
		return nil, fmt.Errorf("no finality checkpoint published yet")
	}

	res.CheckpointTimestampMs = checkpoint.TimestampMs
	res.CheckpointCycle = checkpoint.Cycle
	res.LagMs = untilMs - checkpoint.TimestampMs
	res.ReceiptsInWindow = len(receipts)
	for _, r := range receipts {
		if r.TimestampMs <= checkpoint.TimestampMs {
			res.LockedInCount++
		}
	}

	res.Normalize()
	return res, nil
}
