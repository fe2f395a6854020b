package market

import (
	"fmt"

	"github.com/ugorji/go/codec"
)

// Records are stored CBOR-encoded with short field keys (see the codec
// struct tags on the record types). CBOR keeps records compact and
// deterministic enough for the key-value store without a schema migration
// step.
var cborHandle = func() *codec.CborHandle {
	h := &codec.CborHandle{}
	h.Canonical = true
	return h
}()

// encodeRecord serializes a record for storage.
func encodeRecord(v any) ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, cborHandle)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf, nil
}

// decodeRecord deserializes a stored record.
func decodeRecord(data []byte, v any) error {
	dec := codec.NewDecoderBytes(data, cborHandle)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

// DecodeListing decodes a stored listing record. Exposed for the RPC read
// methods and the journal replayer.
func DecodeListing(data []byte) (*Listing, error) {
	var l Listing
	if err := decodeRecord(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// DecodeOffer decodes a stored offer record.
func DecodeOffer(data []byte) (*Offer, error) {
	var o Offer
	if err := decodeRecord(data, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// DecodeWinningBid decodes a stored winning-bid record.
func DecodeWinningBid(data []byte) (*WinningBid, error) {
	var b WinningBid
	if err := decodeRecord(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// DecodeAsset decodes a stored asset record.
func DecodeAsset(data []byte) (*Asset, error) {
	var a Asset
	if err := decodeRecord(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
