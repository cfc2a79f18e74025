package escrow

import (
	"github.com/LeJamon/goFeedEscrow/internal/codec/plutusdata"
)

// Action is the redeemer attached to a spend.
//
// Only Claim and Refund are meaningful. The ledger hands redeemers over as
// untyped data, so anything else parses to Unknown and the validator rejects
// it explicitly.
type Action uint8

const (
	Claim Action = iota
	Refund
	Unknown Action = 0xff
)

func (a Action) String() string {
	switch a {
	case Claim:
		return "Claim"
	case Refund:
		return "Refund"
	default:
		return "Unknown"
	}
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Claim":
		*a = Claim
	case "Refund":
		*a = Refund
	default:
		*a = Unknown
	}
	return nil
}

// ToData returns the redeemer form: Constr0[] for Claim, Constr1[] for Refund.
func (a Action) ToData() plutusdata.Data {
	switch a {
	case Claim:
		return plutusdata.NewConstr(0)
	case Refund:
		return plutusdata.NewConstr(1)
	default:
		return plutusdata.NewConstr(uint64(a))
	}
}

// Encode serialises the redeemer as CBOR.
func (a Action) Encode() ([]byte, error) {
	return plutusdata.Encode(a.ToData())
}

// ActionFromData maps a redeemer onto an Action. Constructors other than
// 0 and 1, constructors with fields, and non-constructor data give Unknown.
func ActionFromData(d plutusdata.Data) Action {
	c, ok := d.(plutusdata.Constr)
	if !ok || len(c.Fields) != 0 {
		return Unknown
	}
	switch c.Alternative {
	case 0:
		return Claim
	case 1:
		return Refund
	default:
		return Unknown
	}
}

// DecodeAction parses a CBOR redeemer. Undecodable bytes give Unknown.
func DecodeAction(raw []byte) Action {
	d, err := plutusdata.Decode(raw)
	if err != nil {
		return Unknown
	}
	return ActionFromData(d)
}
