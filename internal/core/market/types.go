package market

// MaxBps is the basis-point denominator used by all fee and increment math.
const MaxBps = 10000

// UnitQuantity is the only quantity a non-fungible listing may carry.
const UnitQuantity = 1

// NativeCurrency is the distinguished native-value currency code.
// Paying a listing denominated in another currency with native value routes
// through the swap adapter.
const NativeCurrency = "NATIVE"

// TransferType distinguishes full ownership transfer from a time-bounded
// usage-right assignment.
type TransferType uint8

const (
	TransferSale TransferType = iota
	TransferRental
)

// String returns the transfer type name
func (t TransferType) String() string {
	switch t {
	case TransferSale:
		return "Sale"
	case TransferRental:
		return "Rental"
	default:
		return "Unknown"
	}
}

// ListingType distinguishes fixed-price listings from English auctions.
type ListingType uint8

const (
	ListingDirect ListingType = iota
	ListingAuction
)

// String returns the listing type name
func (t ListingType) String() string {
	switch t {
	case ListingDirect:
		return "Direct"
	case ListingAuction:
		return "Auction"
	default:
		return "Unknown"
	}
}

// OfferStatus is the lifecycle state of an Offer.
// Accepted and Cancelled are terminal.
type OfferStatus uint8

const (
	OfferCreated OfferStatus = iota
	OfferAccepted
	OfferCancelled
)

// String returns the offer status name
func (s OfferStatus) String() string {
	switch s {
	case OfferCreated:
		return "Created"
	case OfferAccepted:
		return "Accepted"
	case OfferCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// AssetRef identifies a non-fungible asset by contract and token id.
type AssetRef struct {
	Contract string `codec:"c" json:"contract"`
	TokenID  uint64 `codec:"t" json:"tokenId"`
}

// Listing is a published intent to sell or rent an asset under stated terms.
// The registry exclusively owns the record for its lifetime.
type Listing struct {
	ID               uint64       `codec:"i" json:"id"`
	Lister           string       `codec:"l" json:"lister"`
	Asset            AssetRef     `codec:"a" json:"asset"`
	Quantity         uint64       `codec:"q" json:"quantity"`
	Currency         string       `codec:"c" json:"currency"`
	ReservePrice     uint64       `codec:"r" json:"reservePrice"` // per unit
	BuyoutPrice      uint64       `codec:"b" json:"buyoutPrice"`  // per unit, 0 = no buyout
	TransferType     TransferType `codec:"tt" json:"transferType"`
	RentalExpiry     int64        `codec:"re" json:"rentalExpiry"` // only meaningful for Rental
	Type             ListingType  `codec:"lt" json:"listingType"`
	StartTime        int64        `codec:"s" json:"startTime"`
	EndTime          int64        `codec:"e" json:"endTime"`
	// Escrow is the market's running escrowed balance for this listing, in
	// the listing currency. Non-zero only for auctions with a bid.
	Escrow uint64 `codec:"es" json:"escrow"`
}

// HasBuyout reports whether the listing carries a buyout bound.
func (l *Listing) HasBuyout() bool { return l.BuyoutPrice > 0 }

// WinningBid is the standing highest bid on an auction listing.
// Absent (no record) means no bid yet.
type WinningBid struct {
	ListingID    uint64 `codec:"i" json:"listingId"`
	Bidder       string `codec:"b" json:"bidder"`
	PricePerUnit uint64 `codec:"p" json:"pricePerUnit"`
}

// Offer is a standing, non-escrowed purchase or rental proposal a
// rights-holder may accept at will before expiration.
type Offer struct {
	ID           uint64       `codec:"i" json:"id"`
	Offeror      string       `codec:"o" json:"offeror"`
	Asset        AssetRef     `codec:"a" json:"asset"`
	Quantity     uint64       `codec:"q" json:"quantity"`
	Currency     string       `codec:"c" json:"currency"`
	TotalPrice   uint64       `codec:"p" json:"totalPrice"`
	Expiration   int64        `codec:"e" json:"expiration"`
	TransferType TransferType `codec:"tt" json:"transferType"`
	RentalExpiry int64        `codec:"re" json:"rentalExpiry"`
	Status       OfferStatus  `codec:"s" json:"status"`
}

// Asset is the ledger-side record of a non-fungible asset: who owns it,
// whether it supports rental delegation, the current usage-right holder,
// and the royalty terms attached by its collection.
type Asset struct {
	Ref              AssetRef `codec:"a" json:"asset"`
	Owner            string   `codec:"o" json:"owner"`
	Rentable         bool     `codec:"r" json:"rentable"`
	UsageHolder      string   `codec:"u" json:"usageHolder,omitempty"`
	UsageExpiry      int64    `codec:"ue" json:"usageExpiry,omitempty"`
	RoyaltyRecipient string   `codec:"rr" json:"royaltyRecipient,omitempty"`
	RoyaltyBps       uint64   `codec:"rb" json:"royaltyBps,omitempty"`
}

// CurrentUsageHolder returns the account currently holding usage rights:
// the active renter if a delegation is live at the given time, otherwise
// the owner.
func (a *Asset) CurrentUsageHolder(now int64) string {
	if a.UsageHolder != "" && now <= a.UsageExpiry {
		return a.UsageHolder
	}
	return a.Owner
}
