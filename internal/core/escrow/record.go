// Package escrow defines the datum locked with each deposit and the actions
// a spender may request against it.
package escrow

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFeedEscrow/internal/codec/plutusdata"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/lovelace"
)

// ErrInvalidRecord is returned when a datum is not an escrow record.
var ErrInvalidRecord = errors.New("invalid escrow record")

// Record is the datum stored with a deposit.
//
// Source may refund at any time. A claim must pay FeeAmount to an output
// whose payment credential hash is FeeAddress.
type Record struct {
	Source     ledger.KeyHash
	FeeAddress ledger.Hash28
	FeeAmount  lovelace.Amount
}

// ToData returns the on-chain form Constr0[source, fee_address, fee].
func (r Record) ToData() plutusdata.Data {
	return plutusdata.NewConstr(0,
		plutusdata.Bytes(r.Source[:]),
		plutusdata.Bytes(r.FeeAddress[:]),
		plutusdata.NewInt(r.FeeAmount.Lovelace()),
	)
}

// Encode serialises the record as CBOR.
func (r Record) Encode() ([]byte, error) {
	if r.FeeAmount < 0 {
		return nil, fmt.Errorf("%w: negative fee %d", ErrInvalidRecord, r.FeeAmount)
	}
	return plutusdata.Encode(r.ToData())
}

// RecordFromData parses an escrow record.
func RecordFromData(d plutusdata.Data) (Record, error) {
	c, err := plutusdata.AsConstr(d, 0, 3)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	src, err := plutusdata.AsBytes(c.Fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("%w: source: %v", ErrInvalidRecord, err)
	}
	source, err := ledger.Hash28FromBytes(src)
	if err != nil {
		return Record{}, fmt.Errorf("%w: source: %v", ErrInvalidRecord, err)
	}

	fa, err := plutusdata.AsBytes(c.Fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("%w: fee address: %v", ErrInvalidRecord, err)
	}
	feeAddress, err := ledger.Hash28FromBytes(fa)
	if err != nil {
		return Record{}, fmt.Errorf("%w: fee address: %v", ErrInvalidRecord, err)
	}

	fee, err := plutusdata.AsInt(c.Fields[2])
	if err != nil {
		return Record{}, fmt.Errorf("%w: fee: %v", ErrInvalidRecord, err)
	}
	if fee.Sign() < 0 || !fee.IsInt64() {
		return Record{}, fmt.Errorf("%w: fee %s out of range", ErrInvalidRecord, fee)
	}

	return Record{
		Source:     source,
		FeeAddress: feeAddress,
		FeeAmount:  lovelace.New(fee.Int64()),
	}, nil
}

// DecodeRecord parses CBOR into a Record.
func DecodeRecord(raw []byte) (Record, error) {
	d, err := plutusdata.Decode(raw)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return RecordFromData(d)
}
