package market

// Event is a point-in-time notification emitted by a successfully applied
// action. Events are values on the ApplyResult, distinct from persisted
// state, so callers and tests can assert on both independently.
type Event interface {
	// EventType returns the notification name
	EventType() string
}

// ListingAdded is emitted when a listing is created.
type ListingAdded struct {
	ListingID uint64   `json:"listingId"`
	Asset     AssetRef `json:"asset"`
	Lister    string   `json:"lister"`
	Listing   Listing  `json:"listing"`
}

func (ListingAdded) EventType() string { return "ListingAdded" }

// ListingUpdated is emitted when a direct listing's terms change.
type ListingUpdated struct {
	ListingID uint64  `json:"listingId"`
	Lister    string  `json:"lister"`
	Listing   Listing `json:"listing"`
}

func (ListingUpdated) EventType() string { return "ListingUpdated" }

// ListingRemoved is emitted when a listing is cancelled or fulfilled.
type ListingRemoved struct {
	ListingID uint64 `json:"listingId"`
	Lister    string `json:"lister"`
}

func (ListingRemoved) EventType() string { return "ListingRemoved" }

// NewBid is emitted for every accepted bid.
type NewBid struct {
	ListingID       uint64 `json:"listingId"`
	Quantity        uint64 `json:"quantity"`
	Bidder          string `json:"bidder"`
	PricePerUnit    uint64 `json:"pricePerUnit"`
	PreviousBidder  string `json:"previousBidder,omitempty"`
	RefundBonus     uint64 `json:"refundBonus"`
	Currency        string `json:"currency"`
	EndTime         int64  `json:"endTime"`
}

func (NewBid) EventType() string { return "NewBid" }

// AuctionClosed is emitted when an auction reaches a terminal state,
// whether by buyout, manual close after expiry, or lister cancellation.
type AuctionClosed struct {
	ListingID   uint64 `json:"listingId"`
	Closer      string `json:"closer"`
	IsCancelled bool   `json:"isCancelled"`
	Lister      string `json:"lister"`
	Winner      string `json:"winner,omitempty"`
}

func (AuctionClosed) EventType() string { return "AuctionClosed" }

// NewSale is emitted on every settlement: direct buy, auction close with a
// winner, or offer acceptance.
type NewSale struct {
	ListingID  uint64   `json:"listingId,omitempty"`
	Asset      AssetRef `json:"asset"`
	Seller     string   `json:"seller"`
	Buyer      string   `json:"buyer"`
	Quantity   uint64   `json:"quantity"`
	TotalPrice uint64   `json:"totalPrice"`
	Currency   string   `json:"currency"`
	Split      FeeSplit `json:"split"`
}

func (NewSale) EventType() string { return "NewSale" }

// NewOffer is emitted when an offer is created.
type NewOffer struct {
	Offeror string   `json:"offeror"`
	OfferID uint64   `json:"offerId"`
	Asset   AssetRef `json:"asset"`
	Offer   Offer    `json:"offer"`
}

func (NewOffer) EventType() string { return "NewOffer" }

// AcceptedOffer is emitted when a rights-holder accepts an offer.
type AcceptedOffer struct {
	Offeror    string   `json:"offeror"`
	OfferID    uint64   `json:"offerId"`
	Asset      AssetRef `json:"asset"`
	TokenID    uint64   `json:"tokenId"`
	Acceptor   string   `json:"acceptor"`
	Quantity   uint64   `json:"quantity"`
	TotalPrice uint64   `json:"totalPrice"`
}

func (AcceptedOffer) EventType() string { return "AcceptedOffer" }

// CancelledOffer is emitted when an offeror withdraws an offer.
type CancelledOffer struct {
	Offeror string `json:"offeror"`
	OfferID uint64 `json:"offerId"`
}

func (CancelledOffer) EventType() string { return "CancelledOffer" }
