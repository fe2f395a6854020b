package market

import "fmt"

// TransferableAsset is the minimal capability every listed asset must
// support: full custody transfer.
type TransferableAsset interface {
	// OwnerOf returns the current owner of the asset
	OwnerOf(ref AssetRef) (string, error)

	// TransferOwnership moves custody of the asset between accounts
	TransferOwnership(ref AssetRef, from, to string) error
}

// RentableAsset extends TransferableAsset with delegated, time-bounded
// usage rights.
type RentableAsset interface {
	TransferableAsset

	// CurrentUsageHolder returns the account holding usage rights now
	CurrentUsageHolder(ref AssetRef, now int64) (string, error)

	// TransferUsageRight assigns usage rights to an account until expiry
	TransferUsageRight(ref AssetRef, to string, expiry int64) error
}

// AssetAdapter resolves an asset reference to its capabilities against a
// view. The rental capability is probed once, at listing/offer creation
// time; settlement never re-checks it.
type AssetAdapter struct {
	view MarketView
}

// NewAssetAdapter creates an adapter over the given view.
func NewAssetAdapter(view MarketView) *AssetAdapter {
	return &AssetAdapter{view: view}
}

// SupportsRental reports whether the asset can carry rental delegations.
// Unknown assets report false.
func (a *AssetAdapter) SupportsRental(ref AssetRef) (bool, error) {
	asset, err := ReadAsset(a.view, ref)
	if err != nil {
		return false, err
	}
	if asset == nil {
		return false, nil
	}
	return asset.Rentable, nil
}

// OwnerOf returns the current owner of the asset.
func (a *AssetAdapter) OwnerOf(ref AssetRef) (string, error) {
	asset, err := a.read(ref)
	if err != nil {
		return "", err
	}
	return asset.Owner, nil
}

// CurrentUsageHolder returns the account holding usage rights at the given
// time: the active renter if a delegation is live, otherwise the owner.
func (a *AssetAdapter) CurrentUsageHolder(ref AssetRef, now int64) (string, error) {
	asset, err := a.read(ref)
	if err != nil {
		return "", err
	}
	return asset.CurrentUsageHolder(now), nil
}

// TransferOwnership moves custody of the asset. Any live usage delegation
// is cleared: the new owner takes the asset whole.
func (a *AssetAdapter) TransferOwnership(ref AssetRef, from, to string) error {
	asset, err := a.read(ref)
	if err != nil {
		return err
	}
	if asset.Owner != from {
		return fmt.Errorf("asset %s/%d not owned by %s", ref.Contract, ref.TokenID, from)
	}
	asset.Owner = to
	asset.UsageHolder = ""
	asset.UsageExpiry = 0
	return writeAsset(a.view, asset)
}

// TransferUsageRight assigns usage rights until expiry. Ownership is
// unchanged.
func (a *AssetAdapter) TransferUsageRight(ref AssetRef, to string, expiry int64) error {
	asset, err := a.read(ref)
	if err != nil {
		return err
	}
	if !asset.Rentable {
		return fmt.Errorf("asset %s/%d is not rentable", ref.Contract, ref.TokenID)
	}
	asset.UsageHolder = to
	asset.UsageExpiry = expiry
	return writeAsset(a.view, asset)
}

// Royalty returns the royalty terms attached to the asset.
func (a *AssetAdapter) Royalty(ref AssetRef) (recipient string, bps uint64, err error) {
	asset, err := a.read(ref)
	if err != nil {
		return "", 0, err
	}
	return asset.RoyaltyRecipient, asset.RoyaltyBps, nil
}

func (a *AssetAdapter) read(ref AssetRef) (*Asset, error) {
	asset, err := ReadAsset(a.view, ref)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("unknown asset %s/%d", ref.Contract, ref.TokenID)
	}
	return asset, nil
}
