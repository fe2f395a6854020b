package journal

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidemark/marketd/internal/core/market"
)

func TestAppendAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	events := []market.Event{
		market.ListingAdded{ListingID: 1, Lister: "alice"},
		market.NewBid{ListingID: 1, Bidder: "bob", PricePerUnit: 15},
		market.NewSale{ListingID: 1, Seller: "alice", Buyer: "bob", TotalPrice: 15},
	}
	require.NoError(t, j.Append(events, 1000))
	require.NoError(t, j.Flush())

	var got []Entry
	require.NoError(t, j.Replay(func(e Entry) error {
		got = append(got, e)
		return nil
	}))

	require.Len(t, got, 3)
	require.EqualValues(t, 1, got[0].Seq)
	require.EqualValues(t, 3, got[2].Seq)
	require.Equal(t, "NewSale", got[2].Type)
	require.EqualValues(t, 1000, got[0].Time)

	var sale market.NewSale
	require.NoError(t, json.Unmarshal(got[2].Payload, &sale))
	require.Equal(t, "bob", sale.Buyer)
}

func TestSequenceResumesAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append([]market.Event{market.ListingAdded{ListingID: 1}}, 1))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	require.EqualValues(t, 1, j.Size())

	require.NoError(t, j.Append([]market.Event{market.ListingRemoved{ListingID: 1}}, 2))
	require.NoError(t, j.Flush())

	var seqs []uint64
	require.NoError(t, j.Replay(func(e Entry) error {
		seqs = append(seqs, e.Seq)
		return nil
	}))
	require.Equal(t, []uint64{1, 2}, seqs)
}

// Large payloads cross the compression threshold; they must survive the
// round trip intact.
func TestLargeEntryCompression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	lister := strings.Repeat("compressible-account-name-", 32)
	require.NoError(t, j.Append([]market.Event{
		market.ListingAdded{ListingID: 1, Lister: lister},
	}, 1))
	require.NoError(t, j.Flush())

	var entries int
	require.NoError(t, j.Replay(func(e Entry) error {
		entries++
		var added market.ListingAdded
		require.NoError(t, json.Unmarshal(e.Payload, &added))
		require.Equal(t, lister, added.Lister)
		return nil
	}))
	require.Equal(t, 1, entries)
}

func TestAppendAfterCloseFails(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "events.log"))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	err = j.Append([]market.Event{market.ListingAdded{}}, 1)
	require.ErrorIs(t, err, ErrJournalClosed)
	require.NoError(t, j.Close(), "double close is a no-op")
}

func TestWriteFailureDoesNotBlockAppends(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "events.log"))
	require.NoError(t, err)

	// Sever the file under the writer so every queued write fails.
	require.NoError(t, j.file.Close())

	events := make([]market.Event, 32)
	for i := range events {
		events[i] = market.ListingAdded{ListingID: uint64(i + 1)}
	}
	// Enqueue well past the queue capacity; the writer must keep
	// draining after the failure or these appends would block.
	for i := 0; i < 12; i++ {
		require.NoError(t, j.Append(events, 1))
	}

	require.Error(t, j.Flush(), "sync on the severed file")

	err = j.Close()
	require.Error(t, err)
	require.Contains(t, err.Error(), "append journal entry")
}

func TestReplayEmptyJournal(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "events.log"))
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Replay(func(Entry) error {
		t.Fatal("unexpected entry")
		return nil
	}))
}
