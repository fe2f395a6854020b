package market

// settleSale runs the fee split over a gross amount already held in market
// escrow, pays every share out, and moves the asset to the buyer. Used by
// direct buys, auction closes and offer acceptance.
func settleSale(ctx *ApplyContext, listing *Listing, seller, buyer string, total uint64) Result {
	royaltyRecipient, royaltyBps, err := ctx.Assets.Royalty(listing.Asset)
	if err != nil {
		return MefINTERNAL
	}
	if royaltyRecipient == "" {
		royaltyBps = 0
	}
	// Royalty terms come from external asset data; cap them so the two
	// fee shares can never exceed the gross.
	if maxRoyalty := MaxBps - ctx.Config.ProtocolFeeBps; royaltyBps > maxRoyalty {
		royaltyBps = maxRoyalty
	}

	split := SplitProceeds(total, royaltyBps, ctx.Config.ProtocolFeeBps)
	if res := ctx.settleSplit(seller, royaltyRecipient, listing.Currency, split); res != MesSUCCESS {
		return res
	}

	if res := transferToBuyer(ctx, listing, buyer); res != MesSUCCESS {
		return res
	}

	ctx.Emit(NewSale{
		ListingID:  listing.ID,
		Asset:      listing.Asset,
		Seller:     seller,
		Buyer:      buyer,
		Quantity:   listing.Quantity,
		TotalPrice: total,
		Currency:   listing.Currency,
		Split:      split,
	})
	return MesSUCCESS
}

// transferToBuyer moves the listed capability to the buyer: full custody
// for a sale, a usage-right delegation until the rental expiry for a
// rental. The transferor is whoever currently holds the capability — the
// market account for escrowed auctions, the lister for direct listings.
func transferToBuyer(ctx *ApplyContext, listing *Listing, buyer string) Result {
	switch listing.TransferType {
	case TransferSale:
		owner, err := ctx.Assets.OwnerOf(listing.Asset)
		if err != nil {
			return MefINTERNAL
		}
		if err := ctx.Assets.TransferOwnership(listing.Asset, owner, buyer); err != nil {
			return MefINTERNAL
		}
	case TransferRental:
		if err := ctx.Assets.TransferUsageRight(listing.Asset, buyer, listing.RentalExpiry); err != nil {
			return MefINTERNAL
		}
	}
	return MesSUCCESS
}

// returnCustody hands escrowed auction custody back to the lister.
func returnCustody(ctx *ApplyContext, listing *Listing) Result {
	switch listing.TransferType {
	case TransferSale:
		if err := ctx.Assets.TransferOwnership(listing.Asset, ctx.Config.MarketAccount, listing.Lister); err != nil {
			return MefINTERNAL
		}
	case TransferRental:
		if err := ctx.Assets.TransferUsageRight(listing.Asset, listing.Lister, listing.RentalExpiry); err != nil {
			return MefINTERNAL
		}
	}
	return MesSUCCESS
}
