package market

// PlaceBid submits a bid on an auction listing. The bid total is escrowed;
// the displaced bidder is refunded their principal plus the outbid bonus,
// funded out of the new collection. A bid at or above the buyout price
// closes the auction immediately.
type PlaceBid struct {
	Bidder     string  `json:"bidder"`
	ListingID  uint64  `json:"listingId"`
	BidPerUnit uint64  `json:"bidPerUnit"`
	Pay        Payment `json:"pay"`
}

// ActionType returns the action name
func (a *PlaceBid) ActionType() string { return "PlaceBid" }

// Actor returns the submitting account
func (a *PlaceBid) Actor() string { return a.Bidder }

// Validate checks structural well-formedness
func (a *PlaceBid) Validate() error {
	if a.Bidder == "" {
		return ErrMissingActor
	}
	if a.BidPerUnit == 0 {
		return ErrZeroPrice
	}
	return nil
}

// Apply executes the bid
func (a *PlaceBid) Apply(ctx *ApplyContext) Result {
	listing, err := readListing(ctx.View, a.ListingID)
	if err != nil {
		return MefINTERNAL
	}
	if listing == nil {
		return MecNO_ENTRY
	}
	if listing.Type != ListingAuction {
		return MecLISTING_NOT_AUCTION
	}
	if ctx.Now < listing.StartTime || ctx.Now > listing.EndTime {
		return MecOUT_OF_WINDOW
	}

	prev, err := readWinningBid(ctx.View, listing.ID)
	if err != nil {
		return MefINTERNAL
	}

	var prevBid, prevTotal uint64
	var prevBidder string
	if prev != nil {
		prevBid = prev.PricePerUnit
		prevBidder = prev.Bidder
		prevTotal = prevBid * listing.Quantity
	}

	// The minimal next bid is bounded by the buyout price: a bid reaching
	// the buyout is acceptable regardless of the increment.
	buyout := listing.HasBuyout() && a.BidPerUnit >= listing.BuyoutPrice
	if !buyout {
		minBid := MinimumNextBid(listing.ReservePrice, prevBid, ctx.Config.BidIncreaseBps)
		if a.BidPerUnit < minBid {
			return MecBID_TOO_LOW
		}
	}

	// Outbid compensation: principal plus bonus back to the displaced
	// bidder, bounded by the new collection so a losing bid can never
	// drain the pool.
	bonus := MulBps(prevTotal, ctx.Config.BonusRefundBps)
	refund := prevTotal + bonus
	newTotal := a.BidPerUnit * listing.Quantity
	if refund > newTotal {
		return MecREFUND_EXCEEDS_BID
	}

	if res := ctx.collectFunds(a.Bidder, listing.Currency, newTotal, a.Pay); res != MesSUCCESS {
		return res
	}
	if res := ctx.payOut(prevBidder, listing.Currency, refund); res != MesSUCCESS {
		return res
	}

	listing.Escrow = listing.Escrow + newTotal - refund
	if err := writeListing(ctx.View, listing, false); err != nil {
		return MefINTERNAL
	}
	if err := writeWinningBid(ctx.View, &WinningBid{
		ListingID:    listing.ID,
		Bidder:       a.Bidder,
		PricePerUnit: a.BidPerUnit,
	}); err != nil {
		return MefINTERNAL
	}

	ctx.Emit(NewBid{
		ListingID:      listing.ID,
		Quantity:       listing.Quantity,
		Bidder:         a.Bidder,
		PricePerUnit:   a.BidPerUnit,
		PreviousBidder: prevBidder,
		RefundBonus:    bonus,
		Currency:       listing.Currency,
		EndTime:        listing.EndTime,
	})

	// A bid reaching the buyout bound closes immediately, even before the
	// end time. One unit below does not.
	if buyout {
		return closeWithWinner(ctx, listing, a.Bidder, a.Bidder)
	}
	return MesSUCCESS
}

// CloseAuction finishes an auction: after the end time anyone may close it,
// settling the winning bid or returning custody if there were no bids.
// Before the end time only the lister may close, and only with no standing
// bid, to reclaim the asset.
type CloseAuction struct {
	Closer    string `json:"closer"`
	ListingID uint64 `json:"listingId"`
}

// ActionType returns the action name
func (a *CloseAuction) ActionType() string { return "CloseAuction" }

// Actor returns the submitting account
func (a *CloseAuction) Actor() string { return a.Closer }

// Validate checks structural well-formedness
func (a *CloseAuction) Validate() error {
	if a.Closer == "" {
		return ErrMissingActor
	}
	return nil
}

// Apply executes the close
func (a *CloseAuction) Apply(ctx *ApplyContext) Result {
	listing, err := readListing(ctx.View, a.ListingID)
	if err != nil {
		return MefINTERNAL
	}
	if listing == nil {
		// also the double-close outcome: the record is deleted at the
		// first close
		return MecNO_ENTRY
	}
	if listing.Type != ListingAuction {
		return MecLISTING_NOT_AUCTION
	}

	bid, err := readWinningBid(ctx.View, listing.ID)
	if err != nil {
		return MefINTERNAL
	}

	if ctx.Now < listing.EndTime {
		if bid != nil {
			return MecAUCTION_STILL_ACTIVE
		}
		if a.Closer != listing.Lister {
			return MecAUCTION_STILL_ACTIVE
		}
	}

	if bid == nil {
		if res := returnCustody(ctx, listing); res != MesSUCCESS {
			return res
		}
		if err := ctx.View.Erase(ListingKey(listing.ID)); err != nil {
			return MefINTERNAL
		}
		ctx.Emit(AuctionClosed{
			ListingID:   listing.ID,
			Closer:      a.Closer,
			IsCancelled: true,
			Lister:      listing.Lister,
		})
		ctx.Emit(ListingRemoved{
			ListingID: listing.ID,
			Lister:    listing.Lister,
		})
		return MesSUCCESS
	}

	return closeWithWinner(ctx, listing, a.Closer, bid.Bidder)
}

// closeWithWinner settles a won auction: the final escrowed amount is
// split and paid out, custody moves from the market to the winner, and the
// listing and bid records are deleted. The per-listing escrow is zero
// afterwards.
func closeWithWinner(ctx *ApplyContext, listing *Listing, closer, winner string) Result {
	total := listing.Escrow
	listing.Escrow = 0

	if res := settleSale(ctx, listing, listing.Lister, winner, total); res != MesSUCCESS {
		return res
	}

	if err := ctx.View.Erase(BidKey(listing.ID)); err != nil {
		return MefINTERNAL
	}
	if err := ctx.View.Erase(ListingKey(listing.ID)); err != nil {
		return MefINTERNAL
	}

	ctx.Emit(AuctionClosed{
		ListingID: listing.ID,
		Closer:    closer,
		Lister:    listing.Lister,
		Winner:    winner,
	})
	ctx.Emit(ListingRemoved{
		ListingID: listing.ID,
		Lister:    listing.Lister,
	})
	return MesSUCCESS
}
