// Package markettest provides a test environment for exercising the market
// engine: funded accounts, minted assets, a manual clock, and assertion
// helpers for action results and balances.
package markettest

import (
	"testing"

	"go.uber.org/zap"

	"github.com/tidemark/marketd/internal/core/market"
)

// GenesisTime is where the test clock starts.
const GenesisTime int64 = 1_700_000_000

// Env manages a market engine over an in-memory view for testing.
type Env struct {
	t      *testing.T
	View   *market.MapView
	Clock  *ManualClock
	Config market.EngineConfig
	Engine *market.Engine
}

// New creates an environment with the default engine configuration.
func New(t *testing.T) *Env {
	t.Helper()
	return NewWithConfig(t, market.DefaultEngineConfig())
}

// NewWithConfig creates an environment with a custom engine configuration.
func NewWithConfig(t *testing.T, cfg market.EngineConfig) *Env {
	t.Helper()
	view := market.NewMapView()
	clock := NewManualClock(GenesisTime)
	return &Env{
		t:      t,
		View:   view,
		Clock:  clock,
		Config: cfg,
		Engine: market.NewEngine(view, cfg, clock, zap.NewNop()),
	}
}

// Now returns the current test time.
func (e *Env) Now() int64 { return e.Clock.Now() }

// Advance moves the test clock forward.
func (e *Env) Advance(seconds int64) { e.Clock.Advance(seconds) }

// Fund seeds an account balance in the base view.
func (e *Env) Fund(account, currency string, amount uint64) {
	e.t.Helper()
	if err := market.FundAccount(e.View, account, currency, amount); err != nil {
		e.t.Fatalf("fund %s: %v", account, err)
	}
}

// Mint registers an asset owned by the given account.
func (e *Env) Mint(asset market.Asset) {
	e.t.Helper()
	if err := market.MintAsset(e.View, &asset); err != nil {
		e.t.Fatalf("mint %s/%d: %v", asset.Ref.Contract, asset.Ref.TokenID, err)
	}
}

// Submit applies an action and returns its result.
func (e *Env) Submit(a market.Action) *market.ApplyResult {
	e.t.Helper()
	return e.Engine.Apply(a)
}

// Balance reads an account balance from the base view.
func (e *Env) Balance(account, currency string) uint64 {
	e.t.Helper()
	balance, err := market.Balance(e.View, account, currency)
	if err != nil {
		e.t.Fatalf("balance %s: %v", account, err)
	}
	return balance
}

// MarketBalance reads the market escrow account's balance.
func (e *Env) MarketBalance(currency string) uint64 {
	return e.Balance(e.Config.MarketAccount, currency)
}

// Asset reads an asset record from the base view, failing the test if it
// is unknown.
func (e *Env) Asset(ref market.AssetRef) *market.Asset {
	e.t.Helper()
	asset, err := market.ReadAsset(e.View, ref)
	if err != nil {
		e.t.Fatalf("read asset: %v", err)
	}
	if asset == nil {
		e.t.Fatalf("unknown asset %s/%d", ref.Contract, ref.TokenID)
	}
	return asset
}

// Listing reads a listing record, or nil if absent.
func (e *Env) Listing(id uint64) *market.Listing {
	e.t.Helper()
	data, err := e.View.Read(market.ListingKey(id))
	if err != nil {
		e.t.Fatalf("read listing: %v", err)
	}
	if data == nil {
		return nil
	}
	l, err := market.DecodeListing(data)
	if err != nil {
		e.t.Fatalf("decode listing: %v", err)
	}
	return l
}

// Offer reads an offer record, or nil if absent.
func (e *Env) Offer(id uint64) *market.Offer {
	e.t.Helper()
	data, err := e.View.Read(market.OfferKey(id))
	if err != nil {
		e.t.Fatalf("read offer: %v", err)
	}
	if data == nil {
		return nil
	}
	o, err := market.DecodeOffer(data)
	if err != nil {
		e.t.Fatalf("decode offer: %v", err)
	}
	return o
}

// WinningBid reads the standing bid for a listing, or nil if none.
func (e *Env) WinningBid(listingID uint64) *market.WinningBid {
	e.t.Helper()
	data, err := e.View.Read(market.BidKey(listingID))
	if err != nil {
		e.t.Fatalf("read bid: %v", err)
	}
	if data == nil {
		return nil
	}
	b, err := market.DecodeWinningBid(data)
	if err != nil {
		e.t.Fatalf("decode bid: %v", err)
	}
	return b
}

// StubSwap is a fixed-rate swap adapter: every unit of target currency
// costs Rate native units. Fail, when set, makes every swap error.
type StubSwap struct {
	Rate uint64
	Fail bool

	// Calls counts SwapToExact invocations
	Calls int
}

// Quote returns the native value required for amountOut.
func (s *StubSwap) Quote(currency string, amountOut uint64) (uint64, error) {
	if s.Fail {
		return 0, market.ErrSwapUnavailable
	}
	return amountOut * s.Rate, nil
}

// SwapToExact consumes native value for exactly amountOut.
func (s *StubSwap) SwapToExact(currency string, amountOut, maxNativeIn uint64) (uint64, error) {
	s.Calls++
	if s.Fail {
		return 0, market.ErrSwapUnavailable
	}
	need := amountOut * s.Rate
	if need > maxNativeIn {
		return 0, market.ErrSwapUnavailable
	}
	return need, nil
}
