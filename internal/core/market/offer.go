package market

// MakeOffer publishes a standing purchase or rental proposal for an asset.
// No funds are escrowed at creation; the offeror's balance is checked
// lazily when a rights-holder accepts.
type MakeOffer struct {
	Offeror      string       `json:"offeror"`
	Asset        AssetRef     `json:"asset"`
	Quantity     uint64       `json:"quantity"`
	Currency     string       `json:"currency"`
	TotalPrice   uint64       `json:"totalPrice"`
	Expiration   int64        `json:"expiration"`
	TransferType TransferType `json:"transferType"`
	RentalExpiry int64        `json:"rentalExpiry"`
}

// ActionType returns the action name
func (a *MakeOffer) ActionType() string { return "MakeOffer" }

// Actor returns the submitting account
func (a *MakeOffer) Actor() string { return a.Offeror }

// Validate checks structural well-formedness
func (a *MakeOffer) Validate() error {
	if a.Offeror == "" {
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
	if a.TotalPrice == 0 {
		return ErrZeroPrice
	}
	return nil
}

// Apply executes the offer creation
func (a *MakeOffer) Apply(ctx *ApplyContext) Result {
	if a.Expiration <= ctx.Now {
		return MemBAD_EXPIRATION
	}

	asset, err := ReadAsset(ctx.View, a.Asset)
	if err != nil {
		return MefINTERNAL
	}
	if asset == nil {
		return MecASSET_NOT_FOUND
	}
	// rental capability fails fast here, never at acceptance
	if a.TransferType == TransferRental && !asset.Rentable {
		return MecNOT_RENTABLE
	}
	if a.TransferType == TransferRental && a.RentalExpiry <= ctx.Now {
		return MemBAD_EXPIRATION
	}

	id, err := nextID(ctx.View, counterOffer)
	if err != nil {
		return MefINTERNAL
	}

	offer := &Offer{
		ID:           id,
		Offeror:      a.Offeror,
		Asset:        a.Asset,
		Quantity:     a.Quantity,
		Currency:     a.Currency,
		TotalPrice:   a.TotalPrice,
		Expiration:   a.Expiration,
		TransferType: a.TransferType,
		RentalExpiry: a.RentalExpiry,
		Status:       OfferCreated,
	}
	if err := writeOffer(ctx.View, offer, true); err != nil {
		return MefINTERNAL
	}

	ctx.Emit(NewOffer{
		Offeror: a.Offeror,
		OfferID: id,
		Asset:   a.Asset,
		Offer:   *offer,
	})
	return MesSUCCESS
}

// AcceptOffer lets the current holder of transfer rights settle an offer:
// the total price is pulled from the offeror, split, and paid out, and the
// asset (or its usage right) moves to the offeror. Accepted is terminal.
type AcceptOffer struct {
	Acceptor string `json:"acceptor"`
	OfferID  uint64 `json:"offerId"`
}

// ActionType returns the action name
func (a *AcceptOffer) ActionType() string { return "AcceptOffer" }

// Actor returns the submitting account
func (a *AcceptOffer) Actor() string { return a.Acceptor }

// Validate checks structural well-formedness
func (a *AcceptOffer) Validate() error {
	if a.Acceptor == "" {
		return ErrMissingActor
	}
	return nil
}

// Apply executes the acceptance
func (a *AcceptOffer) Apply(ctx *ApplyContext) Result {
	offer, err := readOffer(ctx.View, a.OfferID)
	if err != nil {
		return MefINTERNAL
	}
	if offer == nil {
		return MecNO_ENTRY
	}
	if offer.Status != OfferCreated || ctx.Now > offer.Expiration {
		return MecOFFER_NOT_ACTIVE
	}

	asset, err := ReadAsset(ctx.View, offer.Asset)
	if err != nil {
		return MefINTERNAL
	}
	if asset == nil {
		return MecASSET_NOT_FOUND
	}
	switch offer.TransferType {
	case TransferSale:
		if asset.Owner != a.Acceptor {
			return MecNO_PERMISSION
		}
	case TransferRental:
		if asset.CurrentUsageHolder(ctx.Now) != a.Acceptor {
			return MecNO_PERMISSION
		}
	}

	// lazy funds check: pull the full price from the offeror now
	if res := ctx.collectFunds(offer.Offeror, offer.Currency, offer.TotalPrice, Payment{}); res != MesSUCCESS {
		return res
	}

	// settle through the same split/transfer path as listings
	listing := &Listing{
		Asset:        offer.Asset,
		Quantity:     offer.Quantity,
		Currency:     offer.Currency,
		TransferType: offer.TransferType,
		RentalExpiry: offer.RentalExpiry,
	}
	if res := settleSale(ctx, listing, a.Acceptor, offer.Offeror, offer.TotalPrice); res != MesSUCCESS {
		return res
	}

	offer.Status = OfferAccepted
	if err := writeOffer(ctx.View, offer, false); err != nil {
		return MefINTERNAL
	}

	ctx.Emit(AcceptedOffer{
		Offeror:    offer.Offeror,
		OfferID:    offer.ID,
		Asset:      offer.Asset,
		TokenID:    offer.Asset.TokenID,
		Acceptor:   a.Acceptor,
		Quantity:   offer.Quantity,
		TotalPrice: offer.TotalPrice,
	})
	return MesSUCCESS
}

// CancelOffer withdraws an offer while it is still in Created state. No
// funds move; none were escrowed. Cancelled is terminal.
type CancelOffer struct {
	Sender  string `json:"sender"`
	OfferID uint64 `json:"offerId"`
}

// ActionType returns the action name
func (a *CancelOffer) ActionType() string { return "CancelOffer" }

// Actor returns the submitting account
func (a *CancelOffer) Actor() string { return a.Sender }

// Validate checks structural well-formedness
func (a *CancelOffer) Validate() error {
	if a.Sender == "" {
		return ErrMissingActor
	}
	return nil
}

// Apply executes the cancellation
func (a *CancelOffer) Apply(ctx *ApplyContext) Result {
	offer, err := readOffer(ctx.View, a.OfferID)
	if err != nil {
		return MefINTERNAL
	}
	if offer == nil {
		return MecNO_ENTRY
	}
	if offer.Offeror != a.Sender {
		return MecNOT_OFFEROR
	}
	if offer.Status != OfferCreated {
		return MecOFFER_NOT_ACTIVE
	}

	offer.Status = OfferCancelled
	if err := writeOffer(ctx.View, offer, false); err != nil {
		return MefINTERNAL
	}

	ctx.Emit(CancelledOffer{
		Offeror: offer.Offeror,
		OfferID: offer.ID,
	})
	return MesSUCCESS
}
