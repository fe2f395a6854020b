package market

import "errors"

// ErrSwapUnavailable is returned by swap adapters that cannot serve the
// requested pair at all.
var ErrSwapUnavailable = errors.New("swap route unavailable")

// SwapQuoter is the external price oracle/router used when a payer supplies
// native value for a listing settled in another currency. Implementations
// must deliver exactly amountOut of the target currency or fail; partial
// fills are an error (slippage), never a short delivery.
type SwapQuoter interface {
	// Quote returns the native value required to acquire amountOut of the
	// target currency.
	Quote(currency string, amountOut uint64) (nativeIn uint64, err error)

	// SwapToExact spends up to maxNativeIn native value to acquire exactly
	// amountOut of the target currency, returning the native value actually
	// consumed.
	SwapToExact(currency string, amountOut, maxNativeIn uint64) (nativeSpent uint64, err error)
}

// Payment describes how a payer funds a required settlement amount: either
// directly in the settlement currency, or with a native-value budget to be
// swapped for it.
type Payment struct {
	// Native, when true, pays with native value even if the settlement
	// currency differs; the router swaps and refunds any excess budget.
	Native bool `json:"native,omitempty"`

	// NativeBudget caps the native value the payer is willing to spend on
	// the swap path. Ignored for direct payments.
	NativeBudget uint64 `json:"nativeBudget,omitempty"`
}

// collectFunds pulls `amount` of `currency` from the payer into the market
// escrow account. For the swap path only the native value actually consumed
// is debited, so any budget excess stays with the payer.
func (ctx *ApplyContext) collectFunds(payer, currency string, amount uint64, pay Payment) Result {
	if amount == 0 {
		return MesSUCCESS
	}

	if pay.Native && currency != NativeCurrency {
		return ctx.collectViaSwap(payer, currency, amount, pay.NativeBudget)
	}

	ok, err := debit(ctx.View, payer, currency, amount)
	if err != nil {
		return MefINTERNAL
	}
	if !ok {
		return MecINSUFFICIENT_FUNDS
	}
	if err := credit(ctx.View, ctx.Config.MarketAccount, currency, amount); err != nil {
		return MefINTERNAL
	}
	return MesSUCCESS
}

// collectViaSwap routes native value through the swap adapter to acquire
// exactly the required settlement amount for the market escrow account.
func (ctx *ApplyContext) collectViaSwap(payer, currency string, amount, budget uint64) Result {
	quoter := ctx.Config.Swap
	if quoter == nil {
		return MecSWAP_FAILED
	}

	native, err := Balance(ctx.View, payer, NativeCurrency)
	if err != nil {
		return MefINTERNAL
	}
	if budget == 0 || budget > native {
		budget = native
	}

	spent, err := quoter.SwapToExact(currency, amount, budget)
	if err != nil || spent > budget {
		// insufficient output or slippage; surfaced as a swap failure so
		// callers can distinguish it from a plain balance shortfall
		return MecSWAP_FAILED
	}

	ok, err := debit(ctx.View, payer, NativeCurrency, spent)
	if err != nil {
		return MefINTERNAL
	}
	if !ok {
		return MecINSUFFICIENT_FUNDS
	}
	if err := credit(ctx.View, ctx.Config.MarketAccount, currency, amount); err != nil {
		return MefINTERNAL
	}
	return MesSUCCESS
}

// payOut moves funds from the market escrow account to a recipient.
// A zero amount or empty recipient is a no-op.
func (ctx *ApplyContext) payOut(recipient, currency string, amount uint64) Result {
	if amount == 0 || recipient == "" {
		return MesSUCCESS
	}
	ok, err := debit(ctx.View, ctx.Config.MarketAccount, currency, amount)
	if err != nil {
		return MefINTERNAL
	}
	if !ok {
		// escrow accounting is broken if this ever triggers
		return MefINTERNAL
	}
	if err := credit(ctx.View, recipient, currency, amount); err != nil {
		return MefINTERNAL
	}
	return MesSUCCESS
}

// settleSplit pays a fee split out of market escrow: seller, royalty
// recipient, then protocol treasury.
func (ctx *ApplyContext) settleSplit(seller, royaltyRecipient, currency string, split FeeSplit) Result {
	if res := ctx.payOut(royaltyRecipient, currency, split.RoyaltyAmount); res != MesSUCCESS {
		return res
	}
	if res := ctx.payOut(ctx.Config.ProtocolFeeRecipient, currency, split.ProtocolAmount); res != MesSUCCESS {
		return res
	}
	return ctx.payOut(seller, currency, split.SellerAmount)
}
