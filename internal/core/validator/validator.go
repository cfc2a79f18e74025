// Package validator is the spending rule of the escrow script.
//
// Evaluate is a pure function of the escrow datum, the redeemer and the
// transaction view: it reads no clock, performs no I/O and keeps no state
// between calls, so the same inputs always give the same Result.
package validator

import (
	"math/big"

	"github.com/LeJamon/goFeedEscrow/internal/core/escrow"
	"github.com/LeJamon/goFeedEscrow/internal/core/feed"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
)

// Decision is the result of one evaluation plus what the claim path looked
// at, for logging.
type Decision struct {
	Action escrow.Action
	Result Result

	// Set once the claim path gets as far as reading the oracle.
	Observation *feed.Observation
	OracleRef   *ledger.OutputRef
	// Price is the canonical price at the breaker's precision.
	Price *big.Int
}

// Accepted reports whether the spend is valid.
func (d Decision) Accepted() bool {
	return d.Result.IsAccepted()
}

// Validator holds the compiled-in contract parameters.
type Validator struct {
	params Params
}

// New returns a validator for p.
func New(p Params) *Validator {
	return &Validator{params: p}
}

// Params returns the parameters v was built with.
func (v *Validator) Params() Params {
	return v.params
}

// Evaluate runs the rules for action against tx.
func (v *Validator) Evaluate(record escrow.Record, action escrow.Action, tx ledger.TxView) Decision {
	d := Decision{Action: action}
	switch action {
	case escrow.Refund:
		d.Result = ValidateRefund(record, tx)
	case escrow.Claim:
		v.claim(&d, record, tx)
	default:
		d.Result = UnknownAction
	}
	return d
}

// EvaluateRedeemer decodes an untyped redeemer before evaluating, so
// malformed redeemers surface as UnknownAction.
func (v *Validator) EvaluateRedeemer(record escrow.Record, redeemer []byte, tx ledger.TxView) Decision {
	return v.Evaluate(record, escrow.DecodeAction(redeemer), tx)
}

func (v *Validator) claim(d *Decision, record escrow.Record, tx ledger.TxView) {
	if d.Result = ValidateFee(record, tx); d.Result.IsRejected() {
		return
	}

	refs, res := ValidateOracle(tx, v.params.AuthPolicy)
	if d.Result = res; res.IsRejected() {
		return
	}

	obs, from, res := ValidateFeed(refs, v.params.ExpectedFeed)
	if d.Result = res; res.IsRejected() {
		return
	}
	d.Observation = obs
	ref := from.Ref
	d.OracleRef = &ref

	d.Price, d.Result = ValidateCircuitBreaker(obs, v.params)
}

// Evaluate runs the deployed contract's rules.
func Evaluate(record escrow.Record, action escrow.Action, tx ledger.TxView) Decision {
	return New(DefaultParams()).Evaluate(record, action, tx)
}
