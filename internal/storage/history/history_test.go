package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidemark/marketd/internal/core/market"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSale(listingID uint64, seller, buyer string, total uint64) market.NewSale {
	return market.NewSale{
		ListingID:  listingID,
		Asset:      market.AssetRef{Contract: "gallery", TokenID: 7},
		Seller:     seller,
		Buyer:      buyer,
		Quantity:   1,
		TotalPrice: total,
		Currency:   "TOK",
		Split:      market.SplitProceeds(total, 100, 400),
	}
}

func TestRecordAndQueryTrades(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordSale(ctx, sampleSale(1, "alice", "bob", 60_000_000), 1000))
	require.NoError(t, store.RecordSale(ctx, sampleSale(2, "bob", "carol", 80_000_000), 2000))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	trades, err := store.ByAsset(ctx, market.AssetRef{Contract: "gallery", TokenID: 7}, 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	// newest first
	require.Equal(t, "carol", trades[0].Buyer)
	require.EqualValues(t, 2000, trades[0].ExecutedAt)

	split := market.SplitProceeds(60_000_000, 100, 400)
	require.Equal(t, split.SellerAmount, trades[1].SellerAmount)
	require.Equal(t, split.RoyaltyAmount, trades[1].RoyaltyAmount)
	require.Equal(t, split.ProtocolAmount, trades[1].ProtocolAmount)
}

func TestByAccountMatchesBothSides(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordSale(ctx, sampleSale(1, "alice", "bob", 10), 1))
	require.NoError(t, store.RecordSale(ctx, sampleSale(2, "bob", "carol", 20), 2))
	require.NoError(t, store.RecordSale(ctx, sampleSale(3, "carol", "dave", 30), 3))

	trades, err := store.ByAccount(ctx, "bob", 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	trades, err = store.ByAccount(ctx, "nobody", 10)
	require.NoError(t, err)
	require.Empty(t, trades)
}

func TestRecordEventsSkipsNonSettlements(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	events := []market.Event{
		market.ListingAdded{ListingID: 1},
		sampleSale(1, "alice", "bob", 100),
		market.ListingRemoved{ListingID: 1},
	}
	require.NoError(t, store.RecordEvents(ctx, events, 500))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestVolume(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordSale(ctx, sampleSale(1, "alice", "bob", 100), 1))
	require.NoError(t, store.RecordSale(ctx, sampleSale(2, "alice", "bob", 250), 2))

	volume, err := store.Volume(ctx, "TOK")
	require.NoError(t, err)
	require.EqualValues(t, 350, volume)

	volume, err = store.Volume(ctx, "OTHER")
	require.NoError(t, err)
	require.Zero(t, volume)
}

func TestClosedStoreErrors(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Close())

	err := store.RecordSale(context.Background(), sampleSale(1, "a", "b", 1), 1)
	require.ErrorIs(t, err, ErrClosed)
	_, err = store.Recent(context.Background(), 1)
	require.ErrorIs(t, err, ErrClosed)
}
