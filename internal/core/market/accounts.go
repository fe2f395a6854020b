package market

import (
	"encoding/binary"
	"fmt"
)

// Balance reads an account's balance in a currency from a view.
// Absent records read as zero.
func Balance(view MarketView, account, currency string) (uint64, error) {
	data, err := view.Read(BalanceKey(account, currency))
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}
	return binary.BigEndian.Uint64(data), nil
}

func writeBalance(view MarketView, account, currency string, amount uint64) error {
	key := BalanceKey(account, currency)
	exists, err := view.Exists(key)
	if err != nil {
		return err
	}
	if amount == 0 && exists {
		return view.Erase(key)
	}
	if amount == 0 {
		return nil
	}
	buf := binary.BigEndian.AppendUint64(nil, amount)
	if exists {
		return view.Update(key, buf)
	}
	return view.Insert(key, buf)
}

// credit adds amount to an account's balance.
func credit(view MarketView, account, currency string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	balance, err := Balance(view, account, currency)
	if err != nil {
		return err
	}
	return writeBalance(view, account, currency, balance+amount)
}

// debit removes amount from an account's balance. Returns false without
// modifying anything when the balance cannot cover the amount.
func debit(view MarketView, account, currency string, amount uint64) (bool, error) {
	if amount == 0 {
		return true, nil
	}
	balance, err := Balance(view, account, currency)
	if err != nil {
		return false, err
	}
	if balance < amount {
		return false, nil
	}
	return true, writeBalance(view, account, currency, balance-amount)
}

// FundAccount seeds an account balance directly in a base view. Intended
// for genesis setup and tests, not for use inside an applied action.
func FundAccount(view MarketView, account, currency string, amount uint64) error {
	return credit(view, account, currency, amount)
}

// ReadAsset reads an asset record from a view, or nil if unknown.
func ReadAsset(view MarketView, ref AssetRef) (*Asset, error) {
	data, err := view.Read(AssetKey(ref))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return DecodeAsset(data)
}

func writeAsset(view MarketView, asset *Asset) error {
	data, err := encodeRecord(asset)
	if err != nil {
		return err
	}
	key := AssetKey(asset.Ref)
	exists, err := view.Exists(key)
	if err != nil {
		return err
	}
	if exists {
		return view.Update(key, data)
	}
	return view.Insert(key, data)
}

// MintAsset registers an asset in a base view. Intended for genesis setup
// and tests; issuance itself belongs to the external pricing/minting
// subsystem.
func MintAsset(view MarketView, asset *Asset) error {
	if asset.RoyaltyBps > MaxBps {
		return fmt.Errorf("royalty bps %d exceeds %d", asset.RoyaltyBps, MaxBps)
	}
	return writeAsset(view, asset)
}
