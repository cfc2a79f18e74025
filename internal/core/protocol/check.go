package protocol

import (
	"fmt"

	"github.com/LeJamon/goFeedEscrow/internal/core/escrow"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/lovelace"
)

// DefaultValidityWindow is the TTL distance from the validity start, in slots.
const DefaultValidityWindow uint64 = 3600

// Code names a protocol violation.
type Code string

const (
	ScriptRefNotReferenced Code = "ScriptRefNotReferenced"
	ScriptRefSpent         Code = "ScriptRefSpent"
	NoScriptInputs         Code = "NoScriptInputs"
	UndecodableEscrow      Code = "UndecodableEscrow"
	WrongRedeemer          Code = "WrongRedeemer"
	CollateralCount        Code = "CollateralCount"
	CollateralTooSmall     Code = "CollateralTooSmall"
	OracleNotReferenced    Code = "OracleNotReferenced"
	FeeOutputMissing       Code = "FeeOutputMissing"
	ValidityBeforeTip      Code = "ValidityBeforeTip"
	ValidityWindow         Code = "ValidityWindow"
	SpenderNotSigner       Code = "SpenderNotSigner"
	SourceNotSigner        Code = "SourceNotSigner"
	MissingContractOutput  Code = "MissingContractOutput"
	MetadataTooLong        Code = "MetadataTooLong"
)

// onChain lists the codes the validator itself enforces.
var onChain = map[Code]bool{
	WrongRedeemer:       true,
	OracleNotReferenced: true,
	FeeOutputMissing:    true,
	SourceNotSigner:     true,
}

// OnChainChecked reports whether the validator rejects transactions with
// this violation.
func (c Code) OnChainChecked() bool {
	return onChain[c]
}

// Violation is one departure from the protocol.
type Violation struct {
	Code   Code   `json:"code"`
	Detail string `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Detail)
}

// Rules are the protocol constants a plan is checked against.
type Rules struct {
	AuthPolicy    ledger.PolicyID
	MaxWindow     uint64
	MinCollateral lovelace.Amount
	// Spender must be among the required signers of claim and refund plans.
	// A zero hash skips the check.
	Spender ledger.KeyHash
}

// Checker validates plans against fixed rules.
type Checker struct {
	rules Rules
}

// NewChecker returns a checker. A zero MaxWindow means DefaultValidityWindow.
func NewChecker(r Rules) *Checker {
	if r.MaxWindow == 0 {
		r.MaxWindow = DefaultValidityWindow
	}
	return &Checker{rules: r}
}

// Check lists every violation in p relative to the chain tip. An empty
// result means the plan follows the protocol.
func (c *Checker) Check(p *Plan, tip ledger.Tip) []Violation {
	var vs []Violation
	add := func(code Code, format string, args ...interface{}) {
		vs = append(vs, Violation{Code: code, Detail: fmt.Sprintf(format, args...)})
	}

	if err := p.Metadata.Validate(); err != nil {
		add(MetadataTooLong, "%v", err)
	}

	switch p.Kind {
	case KindDeploy, KindDeposit:
		c.checkCreate(p, add)
		return vs
	}

	c.checkValidity(p, tip, add)
	c.checkCollateral(p, add)

	if len(p.ScriptInputs) == 0 {
		add(NoScriptInputs, "%s spends no contract outputs", p.Kind)
	}

	want := escrow.Refund
	if p.Kind == KindClaim {
		want = escrow.Claim
	}
	for _, in := range p.ScriptInputs {
		if in.Redeemer != want {
			add(WrongRedeemer, "%s spent with %s, want %s", in.Output.Ref, in.Redeemer, want)
		}
	}

	if p.Kind != KindUndeploy {
		c.checkScriptRef(p, add)
	}

	records, err := p.Escrows()
	if err != nil {
		add(UndecodableEscrow, "%v", err)
	}

	if !c.rules.Spender.IsZero() && !p.signedBy(c.rules.Spender) {
		add(SpenderNotSigner, "spender %s is not a required signer", c.rules.Spender)
	}

	switch p.Kind {
	case KindClaim:
		c.checkOracle(p, add)
		checkFees(p, records, add)
	case KindRefund, KindUndeploy:
		for _, rec := range records {
			if !p.signedBy(rec.Source) {
				add(SourceNotSigner, "escrow source %s is not a required signer", rec.Source)
			}
		}
	}
	return vs
}

func (c *Checker) checkCreate(p *Plan, add func(Code, string, ...interface{})) {
	for _, out := range p.Outputs {
		if out.Address.Payment.Kind != ledger.ScriptCredential || len(out.Datum) == 0 {
			continue
		}
		if p.Kind == KindDeploy && out.Script == nil {
			continue
		}
		return
	}
	add(MissingContractOutput, "%s creates no contract output with a datum", p.Kind)
}

func (c *Checker) checkValidity(p *Plan, tip ledger.Tip, add func(Code, string, ...interface{})) {
	if p.ValidityStart < tip.Slot {
		add(ValidityBeforeTip, "validity start %d is before tip slot %d", p.ValidityStart, tip.Slot)
	}
	if p.TTL <= p.ValidityStart || p.TTL-p.ValidityStart > c.rules.MaxWindow {
		add(ValidityWindow, "ttl %d is not within (%d, %d]", p.TTL, p.ValidityStart, p.ValidityStart+c.rules.MaxWindow)
	}
}

func (c *Checker) checkCollateral(p *Plan, add func(Code, string, ...interface{})) {
	if len(p.Collateral) != 1 {
		add(CollateralCount, "want exactly one collateral input, got %d", len(p.Collateral))
		return
	}
	if col := p.Collateral[0]; col.Value.Lovelace <= c.rules.MinCollateral {
		add(CollateralTooSmall, "collateral %s holds %s, need more than %s", col.Ref, col.Value.Lovelace, c.rules.MinCollateral)
	}
}

func (c *Checker) checkScriptRef(p *Plan, add func(Code, string, ...interface{})) {
	referenced := false
	for _, ref := range p.ReferenceInputs {
		if ref.HasScript() {
			referenced = true
		}
	}
	if !referenced {
		add(ScriptRefNotReferenced, "no reference input carries the contract script")
	}
	for _, in := range p.ScriptInputs {
		if in.Output.HasScript() {
			add(ScriptRefSpent, "%s carries the contract script and must only be referenced", in.Output.Ref)
		}
	}
}

func (c *Checker) checkOracle(p *Plan, add func(Code, string, ...interface{})) {
	for _, ref := range p.ReferenceInputs {
		if !ref.HasScript() && ref.Datum.IsInline() && ref.Value.HasPositive(c.rules.AuthPolicy) {
			return
		}
	}
	add(OracleNotReferenced, "no reference input holds a token under %s", c.rules.AuthPolicy)
}

// checkFees pairs every escrow with its own fee output, largest fee first.
func checkFees(p *Plan, records []escrow.Record, add func(Code, string, ...interface{})) {
	used := make([]bool, len(p.Outputs))
	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && records[order[j]].FeeAmount > records[order[j-1]].FeeAmount; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	for _, i := range order {
		rec := records[i]
		best := -1
		for k, out := range p.Outputs {
			if used[k] || out.Address.Payment.Hash != rec.FeeAddress || out.Amount < rec.FeeAmount {
				continue
			}
			if best < 0 || out.Amount < p.Outputs[best].Amount {
				best = k
			}
		}
		if best < 0 {
			add(FeeOutputMissing, "no output pays %s to %s", rec.FeeAmount, rec.FeeAddress)
			continue
		}
		used[best] = true
	}
}

// Check runs p against r.
func Check(p *Plan, tip ledger.Tip, r Rules) []Violation {
	return NewChecker(r).Check(p, tip)
}

// Rejected filters vs to the violations the validator enforces.
func Rejected(vs []Violation) []Violation {
	var out []Violation
	for _, v := range vs {
		if v.Code.OnChainChecked() {
			out = append(out, v)
		}
	}
	return out
}
