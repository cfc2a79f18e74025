// Package protocol describes the transactions that drive an escrow through
// its life: deploy, deposit, claim, refund and undeploy.
//
// A Plan lists what a transaction must contain; it is handed to whichever
// ledger client balances, signs and submits it. Check reports how a plan
// departs from the protocol. Only the violations marked OnChainChecked make
// the validator reject the submitted transaction; the rest are off-chain
// conventions that the script cannot see.
package protocol

import (
	"fmt"

	"github.com/LeJamon/goFeedEscrow/internal/core/escrow"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/lovelace"
)

// Kind is the purpose of a planned transaction.
type Kind uint8

const (
	KindDeploy Kind = iota
	KindDeposit
	KindClaim
	KindRefund
	KindUndeploy
)

func (k Kind) String() string {
	switch k {
	case KindDeploy:
		return "deploy"
	case KindDeposit:
		return "deposit"
	case KindClaim:
		return "claim"
	case KindRefund:
		return "refund"
	case KindUndeploy:
		return "undeploy"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParseKind reads a kind name as used on the command line.
func ParseKind(s string) (Kind, error) {
	for k := KindDeploy; k <= KindUndeploy; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown plan kind %q", s)
}

// ScriptInput is a contract output spent with a redeemer.
type ScriptInput struct {
	Output   ledger.Output `json:"output"`
	Redeemer escrow.Action `json:"redeemer"`
}

// Payment is an output the transaction must create.
type Payment struct {
	Address ledger.Address    `json:"address"`
	Amount  lovelace.Amount   `json:"amount"`
	Datum   []byte            `json:"datum,omitempty"`
	Script  *ledger.ScriptRef `json:"script,omitempty"`
}

// Plan is the shape of one transaction.
type Plan struct {
	Kind            Kind             `json:"kind"`
	ReferenceInputs []ledger.Output  `json:"reference_inputs,omitempty"`
	ScriptInputs    []ScriptInput    `json:"script_inputs,omitempty"`
	Collateral      []ledger.Output  `json:"collateral,omitempty"`
	Outputs         []Payment        `json:"outputs,omitempty"`
	RequiredSigners []ledger.KeyHash `json:"required_signers,omitempty"`
	ChangeAddress   ledger.Address   `json:"change_address"`

	// Validity interval in slots. Zero TTL means unbounded.
	ValidityStart uint64 `json:"validity_start"`
	TTL           uint64 `json:"ttl"`

	Metadata Metadata `json:"metadata,omitempty"`
}

// Escrows returns the records of the script inputs that decode as escrows.
func (p *Plan) Escrows() ([]escrow.Record, error) {
	out := make([]escrow.Record, 0, len(p.ScriptInputs))
	for _, in := range p.ScriptInputs {
		if !in.Output.Datum.IsInline() {
			return nil, fmt.Errorf("script input %s has no inline datum", in.Output.Ref)
		}
		rec, err := escrow.DecodeRecord(in.Output.Datum.Inline)
		if err != nil {
			return nil, fmt.Errorf("script input %s: %w", in.Output.Ref, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// View is the part of the planned transaction a spending script would see.
// Signatories are the required signers.
func (p *Plan) View() ledger.TxView {
	view := ledger.TxView{
		ReferenceInputs: p.ReferenceInputs,
		Signatories:     p.RequiredSigners,
	}
	for _, pay := range p.Outputs {
		view.Outputs = append(view.Outputs, ledger.Output{
			Address: pay.Address,
			Value:   ledger.NewValue(pay.Amount),
		})
	}
	return view
}

func (p *Plan) signedBy(key ledger.KeyHash) bool {
	for _, s := range p.RequiredSigners {
		if s == key {
			return true
		}
	}
	return false
}
