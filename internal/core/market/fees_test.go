package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSplitProceedsConservation checks the no-leakage invariant: the three
// shares always sum back to the input total, with any rounding remainder
// staying with the seller.
func TestSplitProceedsConservation(t *testing.T) {
	tests := []struct {
		name        string
		total       uint64
		royaltyBps  uint64
		protocolBps uint64
		royalty     uint64
		protocol    uint64
		seller      uint64
	}{
		{
			name:  "zero total",
			total: 0,
		},
		{
			// both fee shares floor to zero at the minimal amount
			name:        "one unit",
			total:       1,
			royaltyBps:  100,
			protocolBps: 400,
			royalty:     0,
			protocol:    0,
			seller:      1,
		},
		{
			// 60.0 units at six decimals: royalty 0.6, protocol 2.4, seller 57.0
			name:        "buyout at sixty units",
			total:       60_000_000,
			royaltyBps:  100,
			protocolBps: 400,
			royalty:     600_000,
			protocol:    2_400_000,
			seller:      57_000_000,
		},
		{
			name:        "remainder stays with seller",
			total:       999,
			royaltyBps:  150,
			protocolBps: 250,
			royalty:     14, // floor(999*0.015)
			protocol:    24, // floor(999*0.025)
			seller:      961,
		},
		{
			name:        "no fees configured",
			total:       12345,
			royaltyBps:  0,
			protocolBps: 0,
			seller:      12345,
		},
		{
			name:        "full fee capture",
			total:       10000,
			royaltyBps:  5000,
			protocolBps: 5000,
			royalty:     5000,
			protocol:    5000,
			seller:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split := SplitProceeds(tt.total, tt.royaltyBps, tt.protocolBps)
			require.Equal(t, tt.royalty, split.RoyaltyAmount)
			require.Equal(t, tt.protocol, split.ProtocolAmount)
			require.Equal(t, tt.seller, split.SellerAmount)
			require.Equal(t, tt.total, split.Total(), "shares must sum to the total")
		})
	}
}

// TestSplitProceedsExhaustiveSmallTotals sweeps every total below 1000
// against a few fee configurations; conservation must hold at every point.
func TestSplitProceedsExhaustiveSmallTotals(t *testing.T) {
	configs := []struct{ royalty, protocol uint64 }{
		{0, 0}, {1, 1}, {100, 400}, {250, 250}, {9999, 1},
	}
	for _, cfg := range configs {
		for total := uint64(0); total < 1000; total++ {
			split := SplitProceeds(total, cfg.royalty, cfg.protocol)
			require.Equal(t, total, split.Total(),
				"leak at total=%d royalty=%d protocol=%d", total, cfg.royalty, cfg.protocol)
		}
	}
}

func TestMulBpsNoOverflow(t *testing.T) {
	// amount * bps would overflow 64 bits; the 128-bit intermediate must not
	got := MulBps(math.MaxUint64, 100)
	require.Equal(t, uint64(math.MaxUint64/100), got)

	require.Equal(t, uint64(0), MulBps(0, 10000))
	require.Equal(t, uint64(math.MaxUint64), MulBps(math.MaxUint64, 10000))
}

func TestMinimumNextBid(t *testing.T) {
	tests := []struct {
		name        string
		reserve     uint64
		previous    uint64
		increaseBps uint64
		want        uint64
	}{
		{"first bid is the reserve", 15_000_000, 0, 500, 15_000_000},
		{"five percent raise", 15_000_000, 15_000_000, 500, 15_750_000},
		{"raise floored at reserve", 20_000_000, 15_000_000, 500, 20_000_000},
		{"zero increase repeats previous", 10, 12, 0, 12},
		{"truncating raise", 100, 33, 500, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, MinimumNextBid(tt.reserve, tt.previous, tt.increaseBps))
		})
	}
}
