package analysis

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ledgerlens/ledgerlens-mcp/internal/cache"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/indexer"
	"github.com/ledgerlens/ledgerlens-mcp/pkg/types"
)

// BidderProfile pairs a bidder address with its profile, or with the reason
// the profile sub-flow failed.
type BidderProfile struct {
	Bidder  string          `json:"bidder"`
	Profile *AddressProfile `json:"profile,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// AuctionAnalysis merges an auction with its bids, winner, and optionally a
// profile of every distinct bidder.
type AuctionAnalysis struct {
	Auction        *indexer.Auction `json:"auction,omitempty"`
	Bids           []indexer.Bid    `json:"bids,omitzero"`
	Winner         *indexer.Bid     `json:"winner,omitempty"`
	UniqueBidders  int              `json:"unique_bidders"`
	BidderProfiles []BidderProfile  `json:"bidder_profiles,omitempty"`
	types.Partial
}

// AuctionSummary fetches the auction, its bids, and the winning bid. The
// auction record itself is the primary entity; bids and winner degrade into
// errors[]. With includeBidderProfiles each distinct bidder's profile
// sub-flow runs concurrently and fails independently into warnings.
func (e *Engine) AuctionSummary(ctx context.Context, id string, includeBidderProfiles bool) (*AuctionAnalysis, error) {
	key, err := cache.Key("chain_auction_summary", map[string]any{
		"id":       id,
		"profiles": includeBidderProfiles,
	})
	if err != nil {
		return nil, err
	}
	if v, ok := e.cache.Get(cache.CategoryAuction, key); ok {
		if cached, ok := v.(*AuctionAnalysis); ok {
			return cached, nil
		}
	}

	res := &AuctionAnalysis{}

	var (
		mu         sync.Mutex
		auction    *indexer.Auction
		auctionErr error
		bids       []indexer.Bid
		winner     *indexer.Bid
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		auction, auctionErr = e.index.GetAuction(gctx, id)
		return nil
	})
	g.Go(func() error {
		// Only a clean lookup publishes; a value returned alongside an
		// error is discarded.
		b, err := e.index.GetAuctionBids(gctx, id)
		if err != nil {
			mu.Lock()
			res.AddError(fmt.Sprintf("bid listing failed: %v", err))
			mu.Unlock()
			return nil
		}
		bids = b
		return nil
	})
	g.Go(func() error {
		w, err := e.index.GetAuctionWinner(gctx, id)
		if err != nil {
			mu.Lock()
			res.AddError(fmt.Sprintf("winner lookup failed: %v", err))
			mu.Unlock()
			return nil
		}
		winner = w
		return nil
	})
	g.Wait()

	if auctionErr != nil {
		return nil, fmt.Errorf("auction lookup for %s: %w", id, auctionErr)
	}
	if auction == nil {
		return nil, fmt.Errorf("auction %s not found", id)
	}

	res.Auction = auction
	res.Bids = bids
	if res.Bids == nil {
		res.Bids = []indexer.Bid{}
	}
	res.Winner = winner
	res.UniqueBidders = len(distinctBidders(bids))

	if includeBidderProfiles {
		res.BidderProfiles = e.bidderProfiles(ctx, bids, res)
	}

	res.Normalize()
	if len(res.Errors) == 0 && len(res.Warnings) == 0 {
		e.cache.Set(cache.CategoryAuction, key, res)
	}
	return res, nil
}

// bidderProfiles runs the address-profile sub-flow for each distinct
// bidder, bounded, each independently tolerating failure.
func (e *Engine) bidderProfiles(ctx context.Context, bids []indexer.Bid, res *AuctionAnalysis) []BidderProfile {
	bidders := distinctBidders(bids)

	profiles := make([]BidderProfile, len(bidders))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.bidderMax)
	for i, bidder := range bidders {
		g.Go(func() error {
			profile, err := e.AddressProfile(gctx, bidder)
			if err != nil {
				mu.Lock()
				res.AddWarning(fmt.Sprintf("profile for bidder %s failed: %v", bidder, err))
				mu.Unlock()
				profiles[i] = BidderProfile{Bidder: bidder, Error: err.Error()}
				return nil
			}
			profiles[i] = BidderProfile{Bidder: bidder, Profile: profile}
			return nil
		})
	}
	g.Wait()
	return profiles
}

func distinctBidders(bids []indexer.Bid) []string {
	seen := make(map[string]bool, len(bids))
	var out []string
	for _, b := range bids {
		if !seen[b.Bidder] {
			seen[b.Bidder] = true
			out = append(out, b.Bidder)
		}
	}
	sort.Strings(out)
	return out
}
