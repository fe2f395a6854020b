package market

// CreateListing publishes a direct or auction listing for an asset the
// caller holds transfer rights over. Auction listings escrow custody into
// the market account immediately.
type CreateListing struct {
	Lister       string       `json:"lister"`
	Asset        AssetRef     `json:"asset"`
	Quantity     uint64       `json:"quantity"`
	Currency     string       `json:"currency"`
	ReservePrice uint64       `json:"reservePrice"`
	BuyoutPrice  uint64       `json:"buyoutPrice"`
	TransferType TransferType `json:"transferType"`
	RentalExpiry int64        `json:"rentalExpiry"`
	Type         ListingType  `json:"listingType"`
	StartTime    int64        `json:"startTime"`
	EndTime      int64        `json:"endTime"`
}

// ActionType returns the action name
func (a *CreateListing) ActionType() string { return "CreateListing" }

// Actor returns the submitting account
func (a *CreateListing) Actor() string { return a.Lister }

// Validate checks structural well-formedness
func (a *CreateListing) Validate() error {
	if a.Lister == "" {
		return ErrMissingActor
	}
	if a.Asset.Contract == "" {
		return ErrMissingContract
	}
	if a.Currency == "" {
		return ErrMissingCurrency
	}
	if a.Quantity != UnitQuantity {
		return ErrBadQuantity
	}
	if a.StartTime >= a.EndTime {
		return ErrBadTimeWindow
	}
	switch a.Type {
	case ListingDirect:
		// direct listings settle at the buyout price
		if a.BuyoutPrice == 0 {
			return ErrZeroPrice
		}
	case ListingAuction:
		if a.ReservePrice == 0 {
			return ErrZeroPrice
		}
	}
	if a.BuyoutPrice > 0 && a.BuyoutPrice < a.ReservePrice {
		return errBuyoutBelowReserve
	}
	if a.TransferType == TransferRental && a.RentalExpiry <= a.StartTime {
		return ErrBadExpiration
	}
	return nil
}

// Apply executes the listing creation
func (a *CreateListing) Apply(ctx *ApplyContext) Result {
	asset, err := ReadAsset(ctx.View, a.Asset)
	if err != nil {
		return MefINTERNAL
	}
	if asset == nil {
		return MecASSET_NOT_FOUND
	}

	// transfer-rights check: owner for sale, current usage holder for rental
	switch a.TransferType {
	case TransferSale:
		if asset.Owner != a.Lister {
			return MecNOT_ASSET_OWNER
		}
	case TransferRental:
		if asset.CurrentUsageHolder(ctx.Now) != a.Lister {
			return MecNOT_ASSET_OWNER
		}
		// capability probe happens here, once; settlement never re-checks
		if !asset.Rentable {
			return MecNOT_RENTABLE
		}
	}

	if a.Type == ListingAuction && a.TransferType == TransferRental && a.RentalExpiry < a.EndTime {
		return MemBAD_EXPIRATION
	}

	id, err := nextID(ctx.View, counterListing)
	if err != nil {
		return MefINTERNAL
	}

	listing := &Listing{
		ID:           id,
		Lister:       a.Lister,
		Asset:        a.Asset,
		Quantity:     a.Quantity,
		Currency:     a.Currency,
		ReservePrice: a.ReservePrice,
		BuyoutPrice:  a.BuyoutPrice,
		TransferType: a.TransferType,
		RentalExpiry: a.RentalExpiry,
		Type:         a.Type,
		StartTime:    a.StartTime,
		EndTime:      a.EndTime,
	}

	// Auction custody moves into the market immediately so the lister
	// cannot dispose of the asset under active bidders.
	if a.Type == ListingAuction {
		switch a.TransferType {
		case TransferSale:
			if err := ctx.Assets.TransferOwnership(a.Asset, a.Lister, ctx.Config.MarketAccount); err != nil {
				return MefINTERNAL
			}
		case TransferRental:
			if err := ctx.Assets.TransferUsageRight(a.Asset, ctx.Config.MarketAccount, a.RentalExpiry); err != nil {
				return MefINTERNAL
			}
		}
	}

	if err := writeListing(ctx.View, listing, true); err != nil {
		return MefINTERNAL
	}

	ctx.Emit(ListingAdded{
		ListingID: id,
		Asset:     a.Asset,
		Lister:    a.Lister,
		Listing:   *listing,
	})
	return MesSUCCESS
}

// UpdateListing changes the terms of a direct listing. Auctions cannot be
// updated; neither can a direct listing that has already settled (the
// record is deleted at settlement, so it simply no longer exists).
type UpdateListing struct {
	Sender       string `json:"sender"`
	ListingID    uint64 `json:"listingId"`
	Currency     string `json:"currency"`
	ReservePrice uint64 `json:"reservePrice"`
	BuyoutPrice  uint64 `json:"buyoutPrice"`
	StartTime    int64  `json:"startTime"`
	EndTime      int64  `json:"endTime"`
}

// ActionType returns the action name
func (a *UpdateListing) ActionType() string { return "UpdateListing" }

// Actor returns the submitting account
func (a *UpdateListing) Actor() string { return a.Sender }

// Validate checks structural well-formedness
func (a *UpdateListing) Validate() error {
	if a.Sender == "" {
		return ErrMissingActor
	}
	if a.Currency == "" {
		return ErrMissingCurrency
	}
	if a.BuyoutPrice == 0 {
		return ErrZeroPrice
	}
	if a.StartTime >= a.EndTime {
		return ErrBadTimeWindow
	}
	if a.ReservePrice > 0 && a.BuyoutPrice < a.ReservePrice {
		return errBuyoutBelowReserve
	}
	return nil
}

// Apply executes the listing update
func (a *UpdateListing) Apply(ctx *ApplyContext) Result {
	listing, err := readListing(ctx.View, a.ListingID)
	if err != nil {
		return MefINTERNAL
	}
	if listing == nil {
		return MecNO_ENTRY
	}
	if listing.Lister != a.Sender {
		return MecNOT_LISTER
	}
	if listing.Type != ListingDirect {
		return MecLISTING_NOT_DIRECT
	}

	listing.Currency = a.Currency
	listing.ReservePrice = a.ReservePrice
	listing.BuyoutPrice = a.BuyoutPrice
	listing.StartTime = a.StartTime
	listing.EndTime = a.EndTime

	if err := writeListing(ctx.View, listing, false); err != nil {
		return MefINTERNAL
	}

	ctx.Emit(ListingUpdated{
		ListingID: listing.ID,
		Lister:    listing.Lister,
		Listing:   *listing,
	})
	return MesSUCCESS
}

// CancelListing removes a direct listing, or an auction listing with no
// standing bid. Escrowed auction custody returns to the lister.
type CancelListing struct {
	Sender    string `json:"sender"`
	ListingID uint64 `json:"listingId"`
}

// ActionType returns the action name
func (a *CancelListing) ActionType() string { return "CancelListing" }

// Actor returns the submitting account
func (a *CancelListing) Actor() string { return a.Sender }

// Validate checks structural well-formedness
func (a *CancelListing) Validate() error {
	if a.Sender == "" {
		return ErrMissingActor
	}
	return nil
}

// Apply executes the cancellation
func (a *CancelListing) Apply(ctx *ApplyContext) Result {
	listing, err := readListing(ctx.View, a.ListingID)
	if err != nil {
		return MefINTERNAL
	}
	if listing == nil {
		return MecNO_ENTRY
	}
	if listing.Lister != a.Sender {
		return MecNOT_LISTER
	}

	if listing.Type == ListingAuction {
		bid, err := readWinningBid(ctx.View, listing.ID)
		if err != nil {
			return MefINTERNAL
		}
		if bid != nil {
			return MecAUCTION_STILL_ACTIVE
		}
		if res := returnCustody(ctx, listing); res != MesSUCCESS {
			return res
		}
		ctx.Emit(AuctionClosed{
			ListingID:   listing.ID,
			Closer:      a.Sender,
			IsCancelled: true,
			Lister:      listing.Lister,
		})
	}

	if err := ctx.View.Erase(ListingKey(listing.ID)); err != nil {
		return MefINTERNAL
	}

	ctx.Emit(ListingRemoved{
		ListingID: listing.ID,
		Lister:    listing.Lister,
	})
	return MesSUCCESS
}

// BuyListing purchases a direct listing at its buyout price.
type BuyListing struct {
	Buyer     string  `json:"buyer"`
	ListingID uint64  `json:"listingId"`
	Pay       Payment `json:"pay"`
}

// ActionType returns the action name
func (a *BuyListing) ActionType() string { return "BuyListing" }

// Actor returns the submitting account
func (a *BuyListing) Actor() string { return a.Buyer }

// Validate checks structural well-formedness
func (a *BuyListing) Validate() error {
	if a.Buyer == "" {
		return ErrMissingActor
	}
	return nil
}

// Apply executes the purchase
func (a *BuyListing) Apply(ctx *ApplyContext) Result {
	listing, err := readListing(ctx.View, a.ListingID)
	if err != nil {
		return MefINTERNAL
	}
	if listing == nil {
		return MecNO_ENTRY
	}
	if listing.Type != ListingDirect {
		return MecLISTING_NOT_DIRECT
	}
	if ctx.Now < listing.StartTime || ctx.Now > listing.EndTime {
		return MecOUT_OF_WINDOW
	}

	// the lister keeps custody of a direct listing until purchase; verify
	// transfer rights still hold at settlement
	asset, err := ReadAsset(ctx.View, listing.Asset)
	if err != nil {
		return MefINTERNAL
	}
	if asset == nil {
		return MecASSET_NOT_FOUND
	}
	switch listing.TransferType {
	case TransferSale:
		if asset.Owner != listing.Lister {
			return MecNOT_ASSET_OWNER
		}
	case TransferRental:
		if asset.CurrentUsageHolder(ctx.Now) != listing.Lister {
			return MecNOT_ASSET_OWNER
		}
	}

	total := listing.BuyoutPrice * listing.Quantity
	if res := ctx.collectFunds(a.Buyer, listing.Currency, total, a.Pay); res != MesSUCCESS {
		return res
	}

	if res := settleSale(ctx, listing, listing.Lister, a.Buyer, total); res != MesSUCCESS {
		return res
	}

	if err := ctx.View.Erase(ListingKey(listing.ID)); err != nil {
		return MefINTERNAL
	}

	ctx.Emit(ListingRemoved{
		ListingID: listing.ID,
		Lister:    listing.Lister,
	})
	return MesSUCCESS
}
