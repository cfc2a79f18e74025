// Package classify sorts the outputs sitting at the contract address into
// the roles the claim and refund flows need.
package classify

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFeedEscrow/internal/core/escrow"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/lovelace"
)

// DefaultMinCollateral is the smallest lovelace balance accepted as
// collateral; outputs must hold strictly more.
const DefaultMinCollateral lovelace.Amount = 3_607_615

// ErrMultipleScriptReferences means more than one output carries the
// contract's code. A correct deployment never produces this.
var ErrMultipleScriptReferences = errors.New("multiple script reference outputs")

// Diagnostic explains why an output was not given a role.
type Diagnostic string

const (
	SkippedUndecodableDatum       Diagnostic = "SkippedUndecodableDatum"
	SkippedBelowCollateralMinimum Diagnostic = "SkippedBelowCollateralMinimum"
	SkippedNativeAssets           Diagnostic = "SkippedNativeAssets"
)

// Claimable is an escrow output together with its decoded datum.
type Claimable struct {
	Record escrow.Record
	Output ledger.Output
}

// Skipped is an output left out of every role.
type Skipped struct {
	Output ledger.Output
	Reason Diagnostic
	Err    error
}

// Roles is the partition of a set of outputs. Every input output appears in
// exactly one of ScriptRef, Claimable, Collateral or Skipped.
type Roles struct {
	ScriptRef  *ledger.Output
	Claimable  []Claimable
	Collateral []ledger.Output
	Skipped    []Skipped
}

// Len counts the outputs placed in any role.
func (r *Roles) Len() int {
	n := len(r.Claimable) + len(r.Collateral) + len(r.Skipped)
	if r.ScriptRef != nil {
		n++
	}
	return n
}

// Classify partitions outputs. Decode failures of individual datums are
// recorded in Skipped and never abort classification; only a second script
// reference does.
func Classify(outputs []ledger.Output, minCollateral lovelace.Amount) (*Roles, error) {
	roles := &Roles{}
	for _, out := range outputs {
		switch {
		case out.HasScript():
			if roles.ScriptRef != nil {
				return nil, fmt.Errorf("%w: %s and %s", ErrMultipleScriptReferences, roles.ScriptRef.Ref, out.Ref)
			}
			o := out
			roles.ScriptRef = &o

		case out.HasDatum():
			if !out.Datum.IsInline() {
				roles.Skipped = append(roles.Skipped, Skipped{
					Output: out,
					Reason: SkippedUndecodableDatum,
					Err:    errors.New("datum hash without inline datum"),
				})
				continue
			}
			rec, err := escrow.DecodeRecord(out.Datum.Inline)
			if err != nil {
				roles.Skipped = append(roles.Skipped, Skipped{Output: out, Reason: SkippedUndecodableDatum, Err: err})
				continue
			}
			roles.Claimable = append(roles.Claimable, Claimable{Record: rec, Output: out})

		case len(out.Value.Assets) > 0:
			roles.Skipped = append(roles.Skipped, Skipped{Output: out, Reason: SkippedNativeAssets})

		case out.Value.Lovelace <= minCollateral:
			roles.Skipped = append(roles.Skipped, Skipped{Output: out, Reason: SkippedBelowCollateralMinimum})

		default:
			roles.Collateral = append(roles.Collateral, out)
		}
	}
	return roles, nil
}

// ClaimableBy returns the escrows whose source is key, i.e. the ones key may
// refund.
func (r *Roles) ClaimableBy(key ledger.KeyHash) []Claimable {
	var out []Claimable
	for _, c := range r.Claimable {
		if c.Record.Source == key {
			out = append(out, c)
		}
	}
	return out
}

// FirstCollateral returns the first collateral candidate, if any.
func (r *Roles) FirstCollateral() (ledger.Output, bool) {
	if len(r.Collateral) == 0 {
		return ledger.Output{}, false
	}
	return r.Collateral[0], true
}
