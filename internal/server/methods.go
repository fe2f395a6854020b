package server

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tidemark/marketd/internal/core/market"
)

func (s *Server) registerMethods() {
	s.methods = map[string]handlerFunc{
		"market_createListing": s.actionHandler(func() market.Action { return &market.CreateListing{} }),
		"market_updateListing": s.actionHandler(func() market.Action { return &market.UpdateListing{} }),
		"market_cancelListing": s.actionHandler(func() market.Action { return &market.CancelListing{} }),
		"market_buy":           s.actionHandler(func() market.Action { return &market.BuyListing{} }),
		"market_bid":           s.actionHandler(func() market.Action { return &market.PlaceBid{} }),
		"market_closeAuction":  s.actionHandler(func() market.Action { return &market.CloseAuction{} }),
		"market_makeOffer":     s.actionHandler(func() market.Action { return &market.MakeOffer{} }),
		"market_acceptOffer":   s.actionHandler(func() market.Action { return &market.AcceptOffer{} }),
		"market_cancelOffer":   s.actionHandler(func() market.Action { return &market.CancelOffer{} }),

		"market_getListing":   s.getListing,
		"market_getBid":       s.getBid,
		"market_getOffer":     s.getOffer,
		"market_getAsset":     s.getAsset,
		"market_getBalance":   s.getBalance,
		"market_listListings": s.listListings,
		"market_trades":       s.trades,
		"market_info":         s.info,
		"ping":                s.ping,
	}
}

// actionResponse is the wire form of an ApplyResult.
type actionResponse struct {
	Result  int             `json:"result"`
	Name    string          `json:"name"`
	Applied bool            `json:"applied"`
	Message string          `json:"message"`
	Events  []eventEnvelope `json:"events,omitempty"`
}

type eventEnvelope struct {
	Type string       `json:"type"`
	Data market.Event `json:"data"`
}

// actionHandler builds a handler that decodes params into a fresh action
// and runs it through the engine.
func (s *Server) actionHandler(newAction func() market.Action) handlerFunc {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		action := newAction()
		if err := json.Unmarshal(nonEmpty(params), action); err != nil {
			return nil, badParams("decode params: %v", err)
		}
		return s.submit(ctx, action)
	}
}

func (s *Server) submit(ctx context.Context, action market.Action) (any, error) {
	res := s.engine.Apply(action)

	if res.Applied {
		now := s.clock.Now()
		if s.journal != nil {
			if err := s.journal.Append(res.Events, now); err != nil {
				s.log.Error("journal append failed", zap.Error(err))
			}
		}
		if s.history != nil {
			if err := s.history.RecordEvents(ctx, res.Events, now); err != nil {
				s.log.Error("history record failed", zap.Error(err))
			}
		}
	}

	events := make([]eventEnvelope, 0, len(res.Events))
	for _, ev := range res.Events {
		events = append(events, eventEnvelope{Type: ev.EventType(), Data: ev})
	}
	return actionResponse{
		Result:  int(res.Result),
		Name:    res.Result.String(),
		Applied: res.Applied,
		Message: res.Message,
		Events:  events,
	}, nil
}

type listingParams struct {
	ListingID uint64 `json:"listingId"`
}

func (s *Server) getListing(ctx context.Context, params json.RawMessage) (any, error) {
	var p listingParams
	if err := json.Unmarshal(nonEmpty(params), &p); err != nil {
		return nil, badParams("decode params: %v", err)
	}

	var listing *market.Listing
	err := s.engine.ReadView(func(view market.MarketView) error {
		data, err := view.Read(market.ListingKey(p.ListingID))
		if err != nil || data == nil {
			return err
		}
		listing, err = market.DecodeListing(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, badParams("listing %d not found", p.ListingID)
	}
	return listing, nil
}

func (s *Server) getBid(ctx context.Context, params json.RawMessage) (any, error) {
	var p listingParams
	if err := json.Unmarshal(nonEmpty(params), &p); err != nil {
		return nil, badParams("decode params: %v", err)
	}

	var bid *market.WinningBid
	err := s.engine.ReadView(func(view market.MarketView) error {
		data, err := view.Read(market.BidKey(p.ListingID))
		if err != nil || data == nil {
			return err
		}
		bid, err = market.DecodeWinningBid(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	if bid == nil {
		return nil, badParams("no standing bid for listing %d", p.ListingID)
	}
	return bid, nil
}

func (s *Server) getOffer(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		OfferID uint64 `json:"offerId"`
	}
	if err := json.Unmarshal(nonEmpty(params), &p); err != nil {
		return nil, badParams("decode params: %v", err)
	}

	var offer *market.Offer
	err := s.engine.ReadView(func(view market.MarketView) error {
		data, err := view.Read(market.OfferKey(p.OfferID))
		if err != nil || data == nil {
			return err
		}
		offer, err = market.DecodeOffer(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, badParams("offer %d not found", p.OfferID)
	}
	return offer, nil
}

func (s *Server) getAsset(ctx context.Context, params json.RawMessage) (any, error) {
	var ref market.AssetRef
	if err := json.Unmarshal(nonEmpty(params), &ref); err != nil {
		return nil, badParams("decode params: %v", err)
	}
	if ref.Contract == "" {
		return nil, badParams("contract is required")
	}

	var asset *market.Asset
	err := s.engine.ReadView(func(view market.MarketView) error {
		var err error
		asset, err = market.ReadAsset(view, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, badParams("asset %s/%d not found", ref.Contract, ref.TokenID)
	}
	return asset, nil
}

func (s *Server) getBalance(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Account  string `json:"account"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(nonEmpty(params), &p); err != nil {
		return nil, badParams("decode params: %v", err)
	}
	if p.Account == "" || p.Currency == "" {
		return nil, badParams("account and currency are required")
	}

	var balance uint64
	err := s.engine.ReadView(func(view market.MarketView) error {
		var err error
		balance, err = market.Balance(view, p.Account, p.Currency)
		return err
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"account":  p.Account,
		"currency": p.Currency,
		"balance":  balance,
	}, nil
}

func (s *Server) listListings(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Lister string `json:"lister,omitempty"`
		Limit  int    `json:"limit,omitempty"`
	}
	if err := json.Unmarshal(nonEmpty(params), &p); err != nil {
		return nil, badParams("decode params: %v", err)
	}
	if p.Limit <= 0 || p.Limit > 500 {
		p.Limit = 100
	}

	listings := make([]*market.Listing, 0)
	var decodeErr error
	err := s.engine.ReadView(func(view market.MarketView) error {
		return view.ForEach(market.ListingPrefix(), func(key, data []byte) bool {
			listing, err := market.DecodeListing(data)
			if err != nil {
				decodeErr = fmt.Errorf("decode listing %s: %w", market.KeyString(key), err)
				return false
			}
			if p.Lister != "" && listing.Lister != p.Lister {
				return true
			}
			listings = append(listings, listing)
			return len(listings) < p.Limit
		})
	})
	if err == nil {
		err = decodeErr
	}
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *Server) trades(ctx context.Context, params json.RawMessage) (any, error) {
	if s.history == nil {
		return nil, fmt.Errorf("trade history is not enabled")
	}

	var p struct {
		Contract string `json:"contract,omitempty"`
		TokenID  uint64 `json:"tokenId,omitempty"`
		Account  string `json:"account,omitempty"`
		Limit    int    `json:"limit,omitempty"`
	}
	if err := json.Unmarshal(nonEmpty(params), &p); err != nil {
		return nil, badParams("decode params: %v", err)
	}
	if p.Limit <= 0 || p.Limit > 500 {
		p.Limit = 100
	}

	switch {
	case p.Contract != "":
		return s.history.ByAsset(ctx, market.AssetRef{Contract: p.Contract, TokenID: p.TokenID}, p.Limit)
	case p.Account != "":
		return s.history.ByAccount(ctx, p.Account, p.Limit)
	default:
		return s.history.Recent(ctx, p.Limit)
	}
}

func (s *Server) info(ctx context.Context, params json.RawMessage) (any, error) {
	cfg := s.engine.Config()
	info := map[string]any{
		"time":                 s.clock.Now(),
		"marketAccount":        cfg.MarketAccount,
		"bidIncreaseBps":       cfg.BidIncreaseBps,
		"bonusRefundBps":       cfg.BonusRefundBps,
		"protocolFeeBps":       cfg.ProtocolFeeBps,
		"protocolFeeRecipient": cfg.ProtocolFeeRecipient,
		"swapEnabled":          cfg.Swap != nil,
	}
	if s.journal != nil {
		info["journaledEvents"] = s.journal.Size()
	}
	if s.history != nil {
		count, err := s.history.Count(ctx)
		if err != nil {
			return nil, err
		}
		info["recordedTrades"] = count
	}
	return info, nil
}

func (s *Server) ping(ctx context.Context, params json.RawMessage) (any, error) {
	return map[string]any{"status": "success"}, nil
}

// nonEmpty substitutes an empty params field with an empty object so
// parameterless calls decode cleanly.
func nonEmpty(params json.RawMessage) json.RawMessage {
	if len(params) == 0 {
		return json.RawMessage("{}")
	}
	return params
}
