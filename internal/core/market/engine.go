package market

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Engine applies market actions against a base view, one at a time.
//
// Execution is strictly serialized: a mutex admits one action per session,
// and a separate in-progress flag rejects reentrant submission from inside
// an in-flight action (a collaborator called during settlement must not be
// able to re-enter the engine and observe or corrupt half-settled state).
// Every action is atomic: its writes are buffered in an apply table and
// committed only on mesSUCCESS.
type Engine struct {
	mu     sync.Mutex
	base   MarketView
	config EngineConfig
	clock  Clock
	log    *zap.Logger

	inProgress atomic.Bool
}

// Clock supplies the engine's notion of now.
type Clock interface {
	Now() int64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() int64

// Now returns the current time.
func (f ClockFunc) Now() int64 { return f() }

// NewEngine creates an engine over the given base view.
func NewEngine(base MarketView, config EngineConfig, clock Clock, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		base:   base,
		config: config,
		clock:  clock,
		log:    log,
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// View returns the base view for read-only queries. Callers must not write
// through it while actions are in flight.
func (e *Engine) View() MarketView {
	return e.base
}

// ReadView runs fn against the base view under the engine lock, so queries
// never observe a half-committed action.
func (e *Engine) ReadView(fn func(MarketView) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.base)
}

// Apply validates and applies one action. The returned ApplyResult is
// always non-nil; infrastructure failures surface as mef codes, never as a
// partial application.
func (e *Engine) Apply(action Action) *ApplyResult {
	// Reentrancy guard: set before the mutex so a nested call from within
	// an in-flight action fails fast instead of deadlocking on the lock.
	if !e.inProgress.CompareAndSwap(false, true) {
		return &ApplyResult{
			Result:  MefREENTRY,
			Message: MefREENTRY.Message(),
		}
	}
	defer e.inProgress.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	if action.Actor() == "" {
		return failure(MemBAD_ACCOUNT)
	}
	if err := action.Validate(); err != nil {
		e.log.Debug("action rejected",
			zap.String("action", action.ActionType()),
			zap.String("actor", action.Actor()),
			zap.Error(err))
		return &ApplyResult{
			Result:  MemMALFORMED,
			Message: err.Error(),
		}
	}

	table := newApplyStateTable(e.base)
	ctx := &ApplyContext{
		View:   table,
		Config: e.config,
		Now:    e.clock.Now(),
		Assets: NewAssetAdapter(table),
	}

	result := action.Apply(ctx)
	if result != MesSUCCESS {
		// discard the apply table; nothing reaches the base view
		e.log.Debug("action failed",
			zap.String("action", action.ActionType()),
			zap.String("actor", action.Actor()),
			zap.String("result", result.String()))
		return failure(result)
	}

	if err := table.commit(); err != nil {
		e.log.Error("commit failed",
			zap.String("action", action.ActionType()),
			zap.Error(err))
		return failure(MefINTERNAL)
	}

	e.log.Info("action applied",
		zap.String("action", action.ActionType()),
		zap.String("actor", action.Actor()),
		zap.Int("events", len(ctx.events)))

	return &ApplyResult{
		Result:  MesSUCCESS,
		Applied: true,
		Events:  ctx.events,
		Message: MesSUCCESS.Message(),
	}
}

func failure(r Result) *ApplyResult {
	return &ApplyResult{
		Result:  r,
		Message: r.Message(),
	}
}

// readListing loads a listing record through a view, or nil if absent.
func readListing(view MarketView, id uint64) (*Listing, error) {
	data, err := view.Read(ListingKey(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return DecodeListing(data)
}

func writeListing(view MarketView, l *Listing, isNew bool) error {
	data, err := encodeRecord(l)
	if err != nil {
		return err
	}
	if isNew {
		return view.Insert(ListingKey(l.ID), data)
	}
	return view.Update(ListingKey(l.ID), data)
}

// readWinningBid loads the standing bid for a listing, or nil if no bid.
func readWinningBid(view MarketView, listingID uint64) (*WinningBid, error) {
	data, err := view.Read(BidKey(listingID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return DecodeWinningBid(data)
}

func writeWinningBid(view MarketView, b *WinningBid) error {
	data, err := encodeRecord(b)
	if err != nil {
		return err
	}
	key := BidKey(b.ListingID)
	exists, err := view.Exists(key)
	if err != nil {
		return err
	}
	if exists {
		return view.Update(key, data)
	}
	return view.Insert(key, data)
}

// readOffer loads an offer record through a view, or nil if absent.
func readOffer(view MarketView, id uint64) (*Offer, error) {
	data, err := view.Read(OfferKey(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return DecodeOffer(data)
}

func writeOffer(view MarketView, o *Offer, isNew bool) error {
	data, err := encodeRecord(o)
	if err != nil {
		return err
	}
	if isNew {
		return view.Insert(OfferKey(o.ID), data)
	}
	return view.Update(OfferKey(o.ID), data)
}
