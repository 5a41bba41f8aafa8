package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ledgerlens/ledgerlens-mcp/pkg/indexer"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/types"
)

// FinalityResult is the outcome of comparing a receipt's attestations to the
// committee quorum and its timestamp to the finality checkpoint.
type FinalityResult struct {
	TxHash     string                   `json:"tx_hash"`
	Assessment types.FinalityAssessment `json:"assessment"`
	// LockedIn is true when the receipt timestamp is at or before the
	// current finality checkpoint, i.e. immutable regardless of quorum.
	LockedIn bool             `json:"locked_in"`
	Receipt  *indexer.Receipt `json:"receipt,omitempty"`
	types.Partial
}

// VerifyFinality assesses whether the transaction is finalized. Receipt and
// committee lookups are required; the checkpoint comparison is
// supplementary.
func (e *Engine) VerifyFinality(ctx context.Context, txHash string) (*FinalityResult, error) {
	res := &FinalityResult{TxHash: txHash}

	var (
		receipt    *indexer.Receipt
		receiptErr error
		committee  *indexer.Committee
		checkpoint *indexer.Checkpoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		receipt, receiptErr = e.index.GetReceipt(gctx, txHash)
		return nil
	})
	g.Go(func() error {
		// Only a clean lookup publishes; a value returned alongside an
		// error is discarded.
		c, err := e.index.GetCommittee(gctx)
		if err != nil {
			res.AddError(fmt.Sprintf("committee lookup failed: %v", err))
			return nil
		}
		committee = c
		return nil
	})
	g.Go(func() error {
		cp, err := e.index.GetCheckpoint(gctx)
		if err != nil {
			res.AddWarning(fmt.Sprintf("checkpoint lookup failed: %v", err))
			return nil
		}
		checkpoint = cp
		return nil
	})
	g.Wait()

	// The receipt is the primary entity: its lookup failing fails the whole
	// operation. Its absence does not.
	if receiptErr != nil {
		return nil, fmt.Errorf("receipt lookup for %s: %w", txHash, receiptErr)
	}

	attestations := 0
	if receipt != nil {
		res.Receipt = receipt
		attestations = receipt.AttestationCount
	} else {
		res.AddWarning(fmt.Sprintf("no receipt found for %s", txHash))
	}

	quorum := 0
	if committee != nil {
		quorum = committee.QuorumSize
	}

	res.Assessment = Assess(attestations, quorum)
	if checkpoint != nil && receipt != nil {
		res.LockedIn = receipt.TimestampMs <= checkpoint.TimestampMs
	}

	res.Normalize()
	return res, nil
}

// Assess grades attestations against the quorum size. Quorum zero means the
// committee is unknown, which caps confidence at NONE.
func Assess(attestations, quorum int) types.FinalityAssessment {
	a := types.FinalityAssessment{
		AttestationCount: attestations,
		QuorumSize:       quorum,
	}
	switch {
	case attestations == 0 || quorum == 0:
		a.ConfidenceLevel = types.ConfidenceNone
	case attestations > quorum:
		a.Finalized = true
		a.ConfidenceLevel = types.ConfidenceHigh
	case attestations == quorum:
		a.Finalized = true
		a.ConfidenceLevel = types.ConfidenceMedium
	default:
		a.ConfidenceLevel = types.ConfidenceLow
	}
	return a
}
