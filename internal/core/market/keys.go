package market

import (
	"encoding/binary"
	"fmt"
)

// Record key prefixes. Every engine-owned record lives under one of these
// namespaces in the backing view.
const (
	prefixListing = 'l'
	prefixBid     = 'w'
	prefixOffer   = 'o'
	prefixAsset   = 'a'
	prefixBalance = 'f'
	prefixCounter = 'c'
)

// ListingKey returns the record key for a listing id.
func ListingKey(id uint64) []byte {
	return u64Key(prefixListing, id)
}

// BidKey returns the record key for the winning bid of a listing.
func BidKey(listingID uint64) []byte {
	return u64Key(prefixBid, listingID)
}

// OfferKey returns the record key for an offer id.
func OfferKey(id uint64) []byte {
	return u64Key(prefixOffer, id)
}

// AssetKey returns the record key for an asset reference.
func AssetKey(ref AssetRef) []byte {
	k := make([]byte, 0, 1+len(ref.Contract)+1+8)
	k = append(k, prefixAsset)
	k = append(k, ref.Contract...)
	k = append(k, 0x00)
	k = binary.BigEndian.AppendUint64(k, ref.TokenID)
	return k
}

// BalanceKey returns the record key for an account's balance in a currency.
func BalanceKey(account, currency string) []byte {
	k := make([]byte, 0, 1+len(account)+1+len(currency))
	k = append(k, prefixBalance)
	k = append(k, account...)
	k = append(k, 0x00)
	k = append(k, currency...)
	return k
}

// CounterKey returns the record key for a monotonic id counter.
func CounterKey(name string) []byte {
	return append([]byte{prefixCounter}, name...)
}

// ListingPrefix returns the key prefix shared by all listing records.
func ListingPrefix() []byte { return []byte{prefixListing} }

// OfferPrefix returns the key prefix shared by all offer records.
func OfferPrefix() []byte { return []byte{prefixOffer} }

func u64Key(prefix byte, id uint64) []byte {
	k := make([]byte, 9)
	k[0] = prefix
	binary.BigEndian.PutUint64(k[1:], id)
	return k
}

// KeyString renders a record key for logging.
func KeyString(k []byte) string {
	if len(k) == 0 {
		return ""
	}
	return fmt.Sprintf("%c/%x", k[0], k[1:])
}
