package market_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidemark/marketd/internal/core/market"
	"github.com/tidemark/marketd/internal/markettest"
)

// One display unit at six decimals.
const unit = 1_000_000

var gallery7 = market.AssetRef{Contract: "gallery", TokenID: 7}

// newSaleEnv returns an env where alice owns a sellable asset with royalty
// terms, and bob has funds in the settlement currency.
func newSaleEnv(t *testing.T) *markettest.Env {
	env := markettest.New(t)
	env.Mint(market.Asset{
		Ref:              gallery7,
		Owner:            "alice",
		RoyaltyRecipient: "rita",
		RoyaltyBps:       100,
	})
	env.Fund("bob", "TOK", 1000*unit)
	return env
}

func directListing(start, end int64) *market.CreateListing {
	return &market.CreateListing{
		Lister:       "alice",
		Asset:        gallery7,
		Quantity:     1,
		Currency:     "TOK",
		ReservePrice: 15 * unit,
		BuyoutPrice:  60 * unit,
		TransferType: market.TransferSale,
		Type:         market.ListingDirect,
		StartTime:    start,
		EndTime:      end,
	}
}

func TestCreateListingValidation(t *testing.T) {
	now := markettest.GenesisTime

	tests := []struct {
		name   string
		mutate func(*market.CreateListing)
	}{
		{"missing lister", func(a *market.CreateListing) { a.Lister = "" }},
		{"missing contract", func(a *market.CreateListing) { a.Asset.Contract = "" }},
		{"missing currency", func(a *market.CreateListing) { a.Currency = "" }},
		{"zero quantity", func(a *market.CreateListing) { a.Quantity = 0 }},
		{"quantity above unit", func(a *market.CreateListing) { a.Quantity = 2 }},
		{"start equals end", func(a *market.CreateListing) { a.EndTime = a.StartTime }},
		{"start after end", func(a *market.CreateListing) { a.StartTime = a.EndTime + 1 }},
		{"zero direct price", func(a *market.CreateListing) { a.BuyoutPrice = 0 }},
		{"buyout below reserve", func(a *market.CreateListing) { a.BuyoutPrice = a.ReservePrice - 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newSaleEnv(t)
			action := directListing(now, now+3600)
			tt.mutate(action)
			res := env.Submit(action)
			require.True(t, res.Result.IsMem(),
				"expected a malformed-action code, got %s", res.Result)
		})
	}
}

func TestCreateListingRequiresOwnership(t *testing.T) {
	env := newSaleEnv(t)
	now := env.Now()

	action := directListing(now, now+3600)
	action.Lister = "mallory"
	markettest.RequireFail(t, env.Submit(action), market.MecNOT_ASSET_OWNER)

	// unknown assets are rejected before any ownership check
	action = directListing(now, now+3600)
	action.Asset.TokenID = 999
	markettest.RequireFail(t, env.Submit(action), market.MecASSET_NOT_FOUND)
}

// Rental listings against assets without the rental capability fail at
// creation, never later at settlement.
func TestCreateRentalListingRequiresCapability(t *testing.T) {
	env := newSaleEnv(t)
	now := env.Now()

	action := directListing(now, now+3600)
	action.TransferType = market.TransferRental
	action.RentalExpiry = now + 7200
	markettest.RequireFail(t, env.Submit(action), market.MecNOT_RENTABLE)

	// same asset marked rentable lists fine
	env.Mint(market.Asset{Ref: gallery7, Owner: "alice", Rentable: true})
	markettest.RequireApplied(t, env.Submit(action))
}

func TestCreateAuctionListingEscrowsCustody(t *testing.T) {
	env := newSaleEnv(t)
	now := env.Now()

	res := env.Submit(&market.CreateListing{
		Lister:       "alice",
		Asset:        gallery7,
		Quantity:     1,
		Currency:     "TOK",
		ReservePrice: 15 * unit,
		TransferType: market.TransferSale,
		Type:         market.ListingAuction,
		StartTime:    now,
		EndTime:      now + 3600,
	})
	markettest.RequireApplied(t, res)

	added := markettest.RequireEvent(t, res, "ListingAdded").(market.ListingAdded)
	require.Equal(t, "alice", added.Lister)

	// custody moved to the market so the lister cannot front-run bidders
	require.Equal(t, env.Config.MarketAccount, env.Asset(gallery7).Owner)

	// lister can no longer list the escrowed asset again
	markettest.RequireFail(t, env.Submit(directListing(now, now+3600)), market.MecNOT_ASSET_OWNER)
}

func TestAuctionRentalExpiryMustCoverEndTime(t *testing.T) {
	env := markettest.New(t)
	env.Mint(market.Asset{Ref: gallery7, Owner: "alice", Rentable: true})
	now := env.Now()

	action := &market.CreateListing{
		Lister:       "alice",
		Asset:        gallery7,
		Quantity:     1,
		Currency:     "TOK",
		ReservePrice: unit,
		TransferType: market.TransferRental,
		RentalExpiry: now + 1800, // before the auction ends
		Type:         market.ListingAuction,
		StartTime:    now,
		EndTime:      now + 3600,
	}
	markettest.RequireFail(t, env.Submit(action), market.MemBAD_EXPIRATION)

	action.RentalExpiry = now + 3600
	markettest.RequireApplied(t, env.Submit(action))
}

func TestUpdateListing(t *testing.T) {
	env := newSaleEnv(t)
	now := env.Now()

	res := env.Submit(directListing(now, now+3600))
	markettest.RequireApplied(t, res)
	id := markettest.RequireEvent(t, res, "ListingAdded").(market.ListingAdded).ListingID

	// only the lister may update
	res = env.Submit(&market.UpdateListing{
		Sender: "mallory", ListingID: id,
		Currency: "TOK", BuyoutPrice: 70 * unit,
		StartTime: now, EndTime: now + 3600,
	})
	markettest.RequireFail(t, res, market.MecNOT_LISTER)

	res = env.Submit(&market.UpdateListing{
		Sender: "alice", ListingID: id,
		Currency: "TOK", BuyoutPrice: 70 * unit,
		StartTime: now, EndTime: now + 7200,
	})
	markettest.RequireApplied(t, res)
	require.Equal(t, uint64(70*unit), env.Listing(id).BuyoutPrice)
}

func TestUpdateAuctionListingRejected(t *testing.T) {
	env := newSaleEnv(t)
	now := env.Now()

	res := env.Submit(&market.CreateListing{
		Lister:       "alice",
		Asset:        gallery7,
		Quantity:     1,
		Currency:     "TOK",
		ReservePrice: 15 * unit,
		TransferType: market.TransferSale,
		Type:         market.ListingAuction,
		StartTime:    now,
		EndTime:      now + 3600,
	})
	markettest.RequireApplied(t, res)
	id := markettest.RequireEvent(t, res, "ListingAdded").(market.ListingAdded).ListingID

	res = env.Submit(&market.UpdateListing{
		Sender: "alice", ListingID: id,
		Currency: "TOK", BuyoutPrice: 70 * unit,
		StartTime: now, EndTime: now + 3600,
	})
	markettest.RequireFail(t, res, market.MecLISTING_NOT_DIRECT)
}

// Scenario: a non-owner cancel attempt fails with the ownership error and
// the listing stays buyable afterwards.
func TestCancelListingAuthorization(t *testing.T) {
	env := newSaleEnv(t)
	now := env.Now()

	res := env.Submit(directListing(now, now+3600))
	markettest.RequireApplied(t, res)
	id := markettest.RequireEvent(t, res, "ListingAdded").(market.ListingAdded).ListingID

	markettest.RequireFail(t, env.Submit(&market.CancelListing{Sender: "mallory", ListingID: id}),
		market.MecNOT_LISTER)

	// still buyable
	markettest.RequireApplied(t, env.Submit(&market.BuyListing{Buyer: "bob", ListingID: id}))
	require.Equal(t, "bob", env.Asset(gallery7).Owner)
}

// Royalty terms come from external asset data, so they are rejected at
// mint above 100% and capped at settlement so the fee shares can never
// exceed the gross.
func TestRoyaltyTermsAreBounded(t *testing.T) {
	err := market.MintAsset(market.NewMapView(), &market.Asset{
		Ref:              gallery7,
		Owner:            "alice",
		RoyaltyRecipient: "rita",
		RoyaltyBps:       market.MaxBps + 1,
	})
	require.Error(t, err)

	env := markettest.New(t)
	env.Mint(market.Asset{
		Ref:              gallery7,
		Owner:            "alice",
		RoyaltyRecipient: "rita",
		RoyaltyBps:       9_900,
	})
	env.Fund("bob", "TOK", 1000*unit)
	now := env.Now()

	res := env.Submit(directListing(now, now+3600))
	id := markettest.RequireEvent(t, res, "ListingAdded").(market.ListingAdded).ListingID

	res = env.Submit(&market.BuyListing{Buyer: "bob", ListingID: id})
	markettest.RequireApplied(t, res)
	sale := markettest.RequireEvent(t, res, "NewSale").(market.NewSale)

	capped := market.MaxBps - env.Config.ProtocolFeeBps
	require.Equal(t, market.MulBps(60*unit, capped), sale.Split.RoyaltyAmount)
	require.Equal(t, market.MulBps(60*unit, env.Config.ProtocolFeeBps), sale.Split.ProtocolAmount)
	require.EqualValues(t, 60*unit, sale.Split.Total(), "every share of the gross is paid out")
	markettest.RequireBalance(t, env, "rita", "TOK", sale.Split.RoyaltyAmount)
	markettest.RequireBalance(t, env, "alice", "TOK", sale.Split.SellerAmount)
}

func TestCancelDirectListing(t *testing.T) {
	env := newSaleEnv(t)
	now := env.Now()

	res := env.Submit(directListing(now, now+3600))
	id := markettest.RequireEvent(t, res, "ListingAdded").(market.ListingAdded).ListingID

	res = env.Submit(&market.CancelListing{Sender: "alice", ListingID: id})
	markettest.RequireApplied(t, res)
	markettest.RequireEvent(t, res, "ListingRemoved")
	require.Nil(t, env.Listing(id))

	// cancelling again fails: the record is gone
	markettest.RequireFail(t, env.Submit(&market.CancelListing{Sender: "alice", ListingID: id}),
		market.MecNO_ENTRY)
}

// Scenario: reserve 15, buyout 60, single buy at 60 with royalty 100 bps
// and protocol 400 bps splits into 0.6 / 2.4 / 57.0.
func TestBuyListingSettlement(t *testing.T) {
	env := newSaleEnv(t)
	now := env.Now()

	res := env.Submit(directListing(now, now+3600))
	id := markettest.RequireEvent(t, res, "ListingAdded").(market.ListingAdded).ListingID

	res = env.Submit(&market.BuyListing{Buyer: "bob", ListingID: id})
	markettest.RequireApplied(t, res)

	sale := markettest.RequireEvent(t, res, "NewSale").(market.NewSale)
	require.Equal(t, uint64(60*unit), sale.TotalPrice)
	require.Equal(t, uint64(600_000), sale.Split.RoyaltyAmount)
	require.Equal(t, uint64(2_400_000), sale.Split.ProtocolAmount)
	require.Equal(t, uint64(57*unit), sale.Split.SellerAmount)
	require.Equal(t, sale.TotalPrice, sale.Split.Total())

	markettest.RequireBalance(t, env, "alice", "TOK", 57*unit)
	markettest.RequireBalance(t, env, "rita", "TOK", 600_000)
	markettest.RequireBalance(t, env, "treasury", "TOK", 2_400_000)
	markettest.RequireBalance(t, env, "bob", "TOK", 940*unit)
	require.Zero(t, env.MarketBalance("TOK"))

	require.Equal(t, "bob", env.Asset(gallery7).Owner)
	require.Nil(t, env.Listing(id))
}

func TestBuyListingOutsideWindow(t *testing.T) {
	env := newSaleEnv(t)
	now := env.Now()

	res := env.Submit(directListing(now+600, now+3600))
	id := markettest.RequireEvent(t, res, "ListingAdded").(market.ListingAdded).ListingID

	// before start
	markettest.RequireFail(t, env.Submit(&market.BuyListing{Buyer: "bob", ListingID: id}),
		market.MecOUT_OF_WINDOW)

	// after end
	env.Advance(7200)
	markettest.RequireFail(t, env.Submit(&market.BuyListing{Buyer: "bob", ListingID: id}),
		market.MecOUT_OF_WINDOW)
}

func TestBuyListingInsufficientFundsRollsBack(t *testing.T) {
	env := newSaleEnv(t)
	now := env.Now()

	res := env.Submit(directListing(now, now+3600))
	id := markettest.RequireEvent(t, res, "ListingAdded").(market.ListingAdded).ListingID

	markettest.RequireFail(t, env.Submit(&market.BuyListing{Buyer: "pauper", ListingID: id}),
		market.MecINSUFFICIENT_FUNDS)

	// nothing moved, listing intact
	require.Equal(t, "alice", env.Asset(gallery7).Owner)
	require.NotNil(t, env.Listing(id))
	require.Zero(t, env.MarketBalance("TOK"))
}

func TestDirectRentalBuyAssignsUsageRight(t *testing.T) {
	env := markettest.New(t)
	now := env.Now()
	env.Mint(market.Asset{Ref: gallery7, Owner: "alice", Rentable: true})
	env.Fund("bob", "TOK", 100*unit)

	action := directListing(now, now+3600)
	action.TransferType = market.TransferRental
	action.RentalExpiry = now + 86400
	res := env.Submit(action)
	markettest.RequireApplied(t, res)
	id := markettest.RequireEvent(t, res, "ListingAdded").(market.ListingAdded).ListingID

	markettest.RequireApplied(t, env.Submit(&market.BuyListing{Buyer: "bob", ListingID: id}))

	asset := env.Asset(gallery7)
	require.Equal(t, "alice", asset.Owner, "ownership is unchanged by a rental")
	require.Equal(t, "bob", asset.CurrentUsageHolder(env.Now()))
	require.Equal(t, now+86400, asset.UsageExpiry)
}
