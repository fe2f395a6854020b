package market

import "encoding/binary"

// Counter names for the registry-owned monotonic id allocators.
const (
	counterListing = "listing"
	counterOffer   = "offer"
)

// nextID allocates the next id from a named counter. The counter record is
// part of the view, so a rolled-back action also rolls back the
// allocation — ids stay dense and monotonic without shared globals.
func nextID(view MarketView, name string) (uint64, error) {
	key := CounterKey(name)
	data, err := view.Read(key)
	if err != nil {
		return 0, err
	}

	var next uint64 = 1
	if data != nil {
		next = binary.BigEndian.Uint64(data) + 1
	}

	buf := binary.BigEndian.AppendUint64(nil, next)
	if data == nil {
		err = view.Insert(key, buf)
	} else {
		err = view.Update(key, buf)
	}
	if err != nil {
		return 0, err
	}
	return next, nil
}
