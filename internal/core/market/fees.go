package market

import "math/bits"

// FeeSplit is the three-way division of a gross settlement amount.
// SellerAmount + RoyaltyAmount + ProtocolAmount always equals the input
// total: the seller share is computed subtractively so any rounding
// remainder from the bps floors stays with the seller.
type FeeSplit struct {
	SellerAmount   uint64 `json:"sellerAmount"`
	RoyaltyAmount  uint64 `json:"royaltyAmount"`
	ProtocolAmount uint64 `json:"protocolAmount"`
}

// Total returns the gross amount the split was computed from.
func (s FeeSplit) Total() uint64 {
	return s.SellerAmount + s.RoyaltyAmount + s.ProtocolAmount
}

// SplitProceeds divides a gross amount into seller, royalty and protocol
// shares. Both fee shares floor toward zero; at small totals they may both
// be zero and the seller receives everything.
func SplitProceeds(total, royaltyBps, protocolBps uint64) FeeSplit {
	royalty := MulBps(total, royaltyBps)
	protocol := MulBps(total, protocolBps)
	return FeeSplit{
		SellerAmount:   total - royalty - protocol,
		RoyaltyAmount:  royalty,
		ProtocolAmount: protocol,
	}
}

// MulBps computes amount * bps / 10000 with a 128-bit intermediate so the
// multiply cannot overflow. Division truncates toward zero.
func MulBps(amount, bps uint64) uint64 {
	hi, lo := bits.Mul64(amount, bps)
	q, _ := bits.Div64(hi, lo, MaxBps)
	return q
}

// MinimumNextBid returns the lowest acceptable next bid per unit: the
// reserve for a first bid, otherwise the previous bid raised by the
// configured increment, floored at the reserve. Bidding exactly at the
// returned amount is accepted.
func MinimumNextBid(reserve, previousBid, increaseBps uint64) uint64 {
	if previousBid == 0 {
		return reserve
	}
	raised := previousBid + MulBps(previousBid, increaseBps)
	if raised < reserve {
		return reserve
	}
	return raised
}
