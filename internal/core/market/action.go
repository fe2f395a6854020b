package market

import "errors"

// Common validation errors
var (
	ErrMissingActor    = errors.New("actor account is required")
	ErrMissingContract = errors.New("asset contract is required")
	ErrMissingCurrency = errors.New("currency is required")
	ErrBadQuantity     = errors.New("quantity must be exactly 1")
	ErrBadTimeWindow   = errors.New("start time must precede end time")
	ErrBadExpiration   = errors.New("expiration must be in the future")
	ErrZeroPrice       = errors.New("price must be positive")

	errBuyoutBelowReserve = errors.New("buyout price must not be below the reserve price")
)

// Action is the interface all state-changing market actions implement.
type Action interface {
	// ActionType returns the action name
	ActionType() string

	// Actor returns the account submitting the action
	Actor() string

	// Validate checks structural well-formedness. State-dependent checks
	// belong in Apply.
	Validate() error

	// Apply executes the action against the buffered view in the context.
	// Any non-success result discards every buffered change.
	Apply(ctx *ApplyContext) Result
}

// EngineConfig holds the engine's economic constants and collaborators.
type EngineConfig struct {
	// MarketAccount is the account holding all escrowed funds and, for
	// auctions, custodial assets.
	MarketAccount string

	// BidIncreaseBps is the minimal raise over the standing bid, in basis
	// points.
	BidIncreaseBps uint64

	// BonusRefundBps is the outbid compensation rate, in basis points of
	// the displaced bid total.
	BonusRefundBps uint64

	// ProtocolFeeBps and ProtocolFeeRecipient configure the platform's
	// share of every settlement.
	ProtocolFeeBps       uint64
	ProtocolFeeRecipient string

	// Swap acquires settlement currency for native value. Nil disables the
	// swap path.
	Swap SwapQuoter
}

// DefaultEngineConfig returns the engine defaults used when the daemon
// config does not override them.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MarketAccount:        "market",
		BidIncreaseBps:       500,
		BonusRefundBps:       100,
		ProtocolFeeBps:       400,
		ProtocolFeeRecipient: "treasury",
	}
}

// ApplyContext provides the state and helpers an action needs to apply
// itself. View is the buffered apply table; nothing written through it is
// visible outside the action until the engine commits.
type ApplyContext struct {
	// View provides read/write access to buffered market state
	View MarketView

	// Config holds the engine configuration
	Config EngineConfig

	// Now is the action timestamp (unix seconds)
	Now int64

	// Assets resolves asset capabilities against the buffered view
	Assets *AssetAdapter

	// events accumulates notifications emitted by the action
	events []Event
}

// Emit appends a notification to the action's result.
func (ctx *ApplyContext) Emit(ev Event) {
	ctx.events = append(ctx.events, ev)
}

// ApplyResult contains the outcome of applying an action.
type ApplyResult struct {
	// Result is the action result code
	Result Result

	// Applied indicates whether state was mutated
	Applied bool

	// Events are the notifications emitted by the action, in order
	Events []Event

	// Message is a human-readable result message
	Message string
}
