package market_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidemark/marketd/internal/core/market"
	"github.com/tidemark/marketd/internal/markettest"
)

// newAuctionEnv returns an env with alice's asset listed at auction:
// reserve 15, buyout 60, one hour runtime, royalty 100 bps. The returned
// id is the listing id. Bidders carol and dave are funded.
func newAuctionEnv(t *testing.T) (*markettest.Env, uint64) {
	env := markettest.New(t)
	env.Mint(market.Asset{
		Ref:              gallery7,
		Owner:            "alice",
		RoyaltyRecipient: "rita",
		RoyaltyBps:       100,
	})
	env.Fund("carol", "TOK", 1000*unit)
	env.Fund("dave", "TOK", 1000*unit)

	now := env.Now()
	res := env.Submit(&market.CreateListing{
		Lister:       "alice",
		Asset:        gallery7,
		Quantity:     1,
		Currency:     "TOK",
		ReservePrice: 15 * unit,
		BuyoutPrice:  60 * unit,
		TransferType: market.TransferSale,
		Type:         market.ListingAuction,
		StartTime:    now,
		EndTime:      now + 3600,
	})
	markettest.RequireApplied(t, res)
	id := markettest.RequireEvent(t, res, "ListingAdded").(market.ListingAdded).ListingID
	return env, id
}

func TestFirstBidMustMeetReserve(t *testing.T) {
	env, id := newAuctionEnv(t)

	markettest.RequireFail(t,
		env.Submit(&market.PlaceBid{Bidder: "carol", ListingID: id, BidPerUnit: 15*unit - 1}),
		market.MecBID_TOO_LOW)

	// bidding exactly at the minimum is accepted
	res := env.Submit(&market.PlaceBid{Bidder: "carol", ListingID: id, BidPerUnit: 15 * unit})
	markettest.RequireApplied(t, res)

	bid := markettest.RequireEvent(t, res, "NewBid").(market.NewBid)
	require.Equal(t, "carol", bid.Bidder)
	require.Zero(t, bid.RefundBonus, "first bid displaces nobody")
	require.Empty(t, bid.PreviousBidder)

	require.Equal(t, uint64(15*unit), env.MarketBalance("TOK"))
	require.Equal(t, uint64(15*unit), env.Listing(id).Escrow)
}

// Scenario: a second bidder raises to the minimal allowed amount; the
// displaced bidder's balance grows by exactly principal plus bonus, and the
// escrow grows by exactly newAmount minus the refund.
func TestOutbidRefundsPrincipalPlusBonus(t *testing.T) {
	env, id := newAuctionEnv(t)

	markettest.RequireApplied(t,
		env.Submit(&market.PlaceBid{Bidder: "carol", ListingID: id, BidPerUnit: 15 * unit}))
	carolBefore := env.Balance("carol", "TOK")
	escrowBefore := env.MarketBalance("TOK")

	// minimal raise at the 500 bps increment: 15.75
	minRaise := uint64(15_750_000)
	markettest.RequireFail(t,
		env.Submit(&market.PlaceBid{Bidder: "dave", ListingID: id, BidPerUnit: minRaise - 1}),
		market.MecBID_TOO_LOW)

	res := env.Submit(&market.PlaceBid{Bidder: "dave", ListingID: id, BidPerUnit: minRaise})
	markettest.RequireApplied(t, res)

	// bonus is 100 bps of the displaced total: 0.15
	bonus := uint64(150_000)
	refund := uint64(15*unit) + bonus

	ev := markettest.RequireEvent(t, res, "NewBid").(market.NewBid)
	require.Equal(t, "carol", ev.PreviousBidder)
	require.Equal(t, bonus, ev.RefundBonus)

	require.Equal(t, carolBefore+refund, env.Balance("carol", "TOK"),
		"displaced bidder nets exactly principal plus bonus")
	require.Equal(t, escrowBefore+minRaise-refund, env.MarketBalance("TOK"))
	require.Equal(t, env.MarketBalance("TOK"), env.Listing(id).Escrow)

	wb := env.WinningBid(id)
	require.Equal(t, "dave", wb.Bidder)
	require.Equal(t, minRaise, wb.PricePerUnit)
}

func TestBidOutsideWindow(t *testing.T) {
	env, id := newAuctionEnv(t)

	env.Advance(7200) // past the end time
	markettest.RequireFail(t,
		env.Submit(&market.PlaceBid{Bidder: "carol", ListingID: id, BidPerUnit: 20 * unit}),
		market.MecOUT_OF_WINDOW)
}

func TestBidOnDirectListingRejected(t *testing.T) {
	env := newSaleEnv(t)
	now := env.Now()
	res := env.Submit(directListing(now, now+3600))
	id := markettest.RequireEvent(t, res, "ListingAdded").(market.ListingAdded).ListingID

	markettest.RequireFail(t,
		env.Submit(&market.PlaceBid{Bidder: "bob", ListingID: id, BidPerUnit: 20 * unit}),
		market.MecLISTING_NOT_AUCTION)
}

// A bid at the buyout price closes the auction immediately, even long
// before the end time; one unit below stays open.
func TestBuyoutBidClosesImmediately(t *testing.T) {
	// one unit below the buyout leaves the auction open
	env, id := newAuctionEnv(t)
	res := env.Submit(&market.PlaceBid{Bidder: "carol", ListingID: id, BidPerUnit: 60*unit - 1})
	markettest.RequireApplied(t, res)
	markettest.RequireNoEvent(t, res, "AuctionClosed")
	require.NotNil(t, env.Listing(id))

	// a bid exactly at the buyout closes at once, before the end time
	env, id = newAuctionEnv(t)
	markettest.RequireApplied(t,
		env.Submit(&market.PlaceBid{Bidder: "carol", ListingID: id, BidPerUnit: 20 * unit}))

	res = env.Submit(&market.PlaceBid{Bidder: "dave", ListingID: id, BidPerUnit: 60 * unit})
	markettest.RequireApplied(t, res)

	closed := markettest.RequireEvent(t, res, "AuctionClosed").(market.AuctionClosed)
	require.False(t, closed.IsCancelled)
	require.Equal(t, "dave", closed.Winner)
	markettest.RequireEvent(t, res, "NewSale")

	require.Equal(t, "dave", env.Asset(gallery7).Owner)
	require.Nil(t, env.Listing(id))
	require.Nil(t, env.WinningBid(id))
	require.Zero(t, env.MarketBalance("TOK"), "escrow fully zeroed at close")
}

func TestCloseAuctionSettlement(t *testing.T) {
	env, id := newAuctionEnv(t)

	markettest.RequireApplied(t,
		env.Submit(&market.PlaceBid{Bidder: "carol", ListingID: id, BidPerUnit: 15 * unit}))
	markettest.RequireApplied(t,
		env.Submit(&market.PlaceBid{Bidder: "dave", ListingID: id, BidPerUnit: 15_750_000}))

	// too early while a bid stands
	markettest.RequireFail(t,
		env.Submit(&market.CloseAuction{Closer: "dave", ListingID: id}),
		market.MecAUCTION_STILL_ACTIVE)

	env.Advance(3601)
	res := env.Submit(&market.CloseAuction{Closer: "anyone", ListingID: id})
	markettest.RequireApplied(t, res)

	// settled total is the remaining escrow: 15.75 minus the 0.15 bonus
	sale := markettest.RequireEvent(t, res, "NewSale").(market.NewSale)
	total := uint64(15_600_000)
	require.Equal(t, total, sale.TotalPrice)
	require.Equal(t, market.SplitProceeds(total, 100, 400), sale.Split)

	markettest.RequireBalance(t, env, "alice", "TOK", sale.Split.SellerAmount)
	markettest.RequireBalance(t, env, "rita", "TOK", sale.Split.RoyaltyAmount)
	markettest.RequireBalance(t, env, "treasury", "TOK", sale.Split.ProtocolAmount)
	require.Zero(t, env.MarketBalance("TOK"))
	require.Equal(t, "dave", env.Asset(gallery7).Owner)

	// closing twice fails: the listing is deleted at the first close
	markettest.RequireFail(t,
		env.Submit(&market.CloseAuction{Closer: "anyone", ListingID: id}),
		market.MecNO_ENTRY)
}

func TestCloseAuctionNoBidReturnsCustody(t *testing.T) {
	env, id := newAuctionEnv(t)
	require.Equal(t, env.Config.MarketAccount, env.Asset(gallery7).Owner)

	// a stranger cannot reclaim before the end time
	markettest.RequireFail(t,
		env.Submit(&market.CloseAuction{Closer: "mallory", ListingID: id}),
		market.MecAUCTION_STILL_ACTIVE)

	// the lister can, at any time, with no bids
	res := env.Submit(&market.CloseAuction{Closer: "alice", ListingID: id})
	markettest.RequireApplied(t, res)
	closed := markettest.RequireEvent(t, res, "AuctionClosed").(market.AuctionClosed)
	require.True(t, closed.IsCancelled)
	require.Empty(t, closed.Winner)

	require.Equal(t, "alice", env.Asset(gallery7).Owner)
	require.Nil(t, env.Listing(id))
}

func TestCancelAuctionWithBidRejected(t *testing.T) {
	env, id := newAuctionEnv(t)

	markettest.RequireApplied(t,
		env.Submit(&market.PlaceBid{Bidder: "carol", ListingID: id, BidPerUnit: 15 * unit}))

	markettest.RequireFail(t,
		env.Submit(&market.CancelListing{Sender: "alice", ListingID: id}),
		market.MecAUCTION_STILL_ACTIVE)
}

// The refund owed to the displaced bidder can never exceed the new
// collection. With a pathological config (bonus above the increment) the
// engine rejects the raise instead of letting the pool go negative.
func TestRefundExceedsBidRejected(t *testing.T) {
	cfg := market.DefaultEngineConfig()
	cfg.BidIncreaseBps = 100
	cfg.BonusRefundBps = 2000

	env := markettest.NewWithConfig(t, cfg)
	env.Mint(market.Asset{Ref: gallery7, Owner: "alice"})
	env.Fund("carol", "TOK", 1000*unit)
	env.Fund("dave", "TOK", 1000*unit)

	now := env.Now()
	res := env.Submit(&market.CreateListing{
		Lister:       "alice",
		Asset:        gallery7,
		Quantity:     1,
		Currency:     "TOK",
		ReservePrice: 100 * unit,
		TransferType: market.TransferSale,
		Type:         market.ListingAuction,
		StartTime:    now,
		EndTime:      now + 3600,
	})
	id := markettest.RequireEvent(t, res, "ListingAdded").(market.ListingAdded).ListingID

	markettest.RequireApplied(t,
		env.Submit(&market.PlaceBid{Bidder: "carol", ListingID: id, BidPerUnit: 100 * unit}))

	// minimal raise is 101, but the refund would be 100 + 20 = 120
	markettest.RequireFail(t,
		env.Submit(&market.PlaceBid{Bidder: "dave", ListingID: id, BidPerUnit: 101 * unit}),
		market.MecREFUND_EXCEEDS_BID)

	// a raise covering the refund goes through
	markettest.RequireApplied(t,
		env.Submit(&market.PlaceBid{Bidder: "dave", ListingID: id, BidPerUnit: 120 * unit}))
}

// Funds are conserved across an arbitrary outbid chain: every account's
// gains and losses plus the remaining escrow sum to zero.
func TestAuctionConservationAcrossOutbids(t *testing.T) {
	env, id := newAuctionEnv(t)
	env.Fund("erin", "TOK", 1000*unit)

	start := map[string]uint64{
		"carol": env.Balance("carol", "TOK"),
		"dave":  env.Balance("dave", "TOK"),
		"erin":  env.Balance("erin", "TOK"),
	}

	bids := []struct {
		bidder string
		price  uint64
	}{
		{"carol", 15 * unit},
		{"dave", 16 * unit},
		{"erin", 17 * unit},
		{"carol", 18 * unit},
		{"dave", 20 * unit},
	}
	for _, b := range bids {
		markettest.RequireApplied(t,
			env.Submit(&market.PlaceBid{Bidder: b.bidder, ListingID: id, BidPerUnit: b.price}))
	}

	var outflow, inflow uint64
	for account, before := range start {
		after := env.Balance(account, "TOK")
		if after < before {
			outflow += before - after
		} else {
			inflow += after - before
		}
	}
	require.Equal(t, outflow, inflow+env.MarketBalance("TOK"),
		"bidder outflows equal bonus inflows plus escrow")
	require.Equal(t, env.MarketBalance("TOK"), env.Listing(id).Escrow)
}

func TestBidRollsBackOnInsufficientFunds(t *testing.T) {
	env, id := newAuctionEnv(t)

	markettest.RequireApplied(t,
		env.Submit(&market.PlaceBid{Bidder: "carol", ListingID: id, BidPerUnit: 15 * unit}))
	escrowBefore := env.MarketBalance("TOK")
	carolBefore := env.Balance("carol", "TOK")

	markettest.RequireFail(t,
		env.Submit(&market.PlaceBid{Bidder: "pauper", ListingID: id, BidPerUnit: 20 * unit}),
		market.MecINSUFFICIENT_FUNDS)

	// the standing bid and escrow are untouched
	require.Equal(t, escrowBefore, env.MarketBalance("TOK"))
	require.Equal(t, carolBefore, env.Balance("carol", "TOK"))
	require.Equal(t, "carol", env.WinningBid(id).Bidder)
}
