// Package history persists settlement records to a relational store so
// trade activity can be queried without replaying market state.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/tidemark/marketd/internal/core/market"
)

// ErrClosed indicates an operation on a closed history store.
var ErrClosed = errors.New("history store is closed")

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    seq             INTEGER PRIMARY KEY AUTOINCREMENT,
    listing_id      INTEGER NOT NULL DEFAULT 0,
    contract        TEXT    NOT NULL,
    token_id        INTEGER NOT NULL,
    seller          TEXT    NOT NULL,
    buyer           TEXT    NOT NULL,
    quantity        INTEGER NOT NULL,
    currency        TEXT    NOT NULL,
    total_price     INTEGER NOT NULL,
    seller_amount   INTEGER NOT NULL,
    royalty_amount  INTEGER NOT NULL,
    protocol_amount INTEGER NOT NULL,
    executed_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS trades_asset   ON trades (contract, token_id);
CREATE INDEX IF NOT EXISTS trades_seller  ON trades (seller);
CREATE INDEX IF NOT EXISTS trades_buyer   ON trades (buyer);
`

// Trade is one settled sale or rental.
type Trade struct {
	Seq            int64
	ListingID      uint64
	Asset          market.AssetRef
	Seller         string
	Buyer          string
	Quantity       uint64
	Currency       string
	TotalPrice     uint64
	SellerAmount   uint64
	RoyaltyAmount  uint64
	ProtocolAmount uint64
	ExecutedAt     int64
}

// Store records trades in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) a history database at path. Use
// ":memory:" for an ephemeral store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, err)
	}
	// the sqlite driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent recorders
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// RecordSale persists one settlement event.
func (s *Store) RecordSale(ctx context.Context, sale market.NewSale, executedAt int64) error {
	if s.db == nil {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (listing_id, contract, token_id, seller, buyer,
		                    quantity, currency, total_price, seller_amount,
		                    royalty_amount, protocol_amount, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ListingID, sale.Asset.Contract, sale.Asset.TokenID,
		sale.Seller, sale.Buyer, sale.Quantity, sale.Currency,
		sale.TotalPrice, sale.Split.SellerAmount,
		sale.Split.RoyaltyAmount, sale.Split.ProtocolAmount, executedAt)
	if err != nil {
		return fmt.Errorf("record sale: %w", err)
	}
	return nil
}

// RecordEvents persists every settlement in an event batch, ignoring
// non-settlement events.
func (s *Store) RecordEvents(ctx context.Context, events []market.Event, executedAt int64) error {
	for _, event := range events {
		sale, ok := event.(market.NewSale)
		if !ok {
			continue
		}
		if err := s.RecordSale(ctx, sale, executedAt); err != nil {
			return err
		}
	}
	return nil
}

// ByAsset returns the newest trades for one asset.
func (s *Store) ByAsset(ctx context.Context, ref market.AssetRef, limit int) ([]Trade, error) {
	return s.query(ctx, `SELECT `+tradeColumns+` FROM trades
		WHERE contract = ? AND token_id = ?
		ORDER BY seq DESC LIMIT ?`, ref.Contract, ref.TokenID, limit)
}

// ByAccount returns the newest trades where the account was seller or buyer.
func (s *Store) ByAccount(ctx context.Context, account string, limit int) ([]Trade, error) {
	return s.query(ctx, `SELECT `+tradeColumns+` FROM trades
		WHERE seller = ? OR buyer = ?
		ORDER BY seq DESC LIMIT ?`, account, account, limit)
}

// Recent returns the newest trades across all assets.
func (s *Store) Recent(ctx context.Context, limit int) ([]Trade, error) {
	return s.query(ctx, `SELECT `+tradeColumns+` FROM trades
		ORDER BY seq DESC LIMIT ?`, limit)
}

// Count returns the total number of recorded trades.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return count, nil
}

// Volume returns the summed total price for one currency.
func (s *Store) Volume(ctx context.Context, currency string) (uint64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(total_price) FROM trades WHERE currency = ?`, currency).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum trade volume: %w", err)
	}
	return uint64(total.Int64), nil
}

const tradeColumns = `seq, listing_id, contract, token_id, seller, buyer,
	quantity, currency, total_price, seller_amount, royalty_amount,
	protocol_amount, executed_at`

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Trade, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.Seq, &t.ListingID, &t.Asset.Contract,
			&t.Asset.TokenID, &t.Seller, &t.Buyer, &t.Quantity, &t.Currency,
			&t.TotalPrice, &t.SellerAmount, &t.RoyaltyAmount,
			&t.ProtocolAmount, &t.ExecutedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
