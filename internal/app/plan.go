package app

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/LeJamon/goFeedEscrow/internal/chain"
	"github.com/LeJamon/goFeedEscrow/internal/codec/address"
	"github.com/LeJamon/goFeedEscrow/internal/core/classify"
	"github.com/LeJamon/goFeedEscrow/internal/core/escrow"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/lovelace"
	"github.com/LeJamon/goFeedEscrow/internal/core/protocol"
	"github.com/LeJamon/goFeedEscrow/internal/oracle"
	"github.com/LeJamon/goFeedEscrow/internal/wallet"
)

// PlanDocument is the printed form of a protocol.Plan.
type PlanDocument struct {
	Kind            string               `json:"kind"`
	ReferenceInputs []chain.UTxO         `json:"reference_inputs,omitempty"`
	ScriptInputs    []PlanInput          `json:"script_inputs,omitempty"`
	Collateral      []chain.UTxO         `json:"collateral,omitempty"`
	Outputs         []PlanOutput         `json:"outputs,omitempty"`
	RequiredSigners []ledger.KeyHash     `json:"required_signers,omitempty"`
	ChangeAddress   string               `json:"change_address"`
	ValidityStart   uint64               `json:"validity_start"`
	TTL             uint64               `json:"ttl"`
	Metadata        protocol.Metadata    `json:"metadata,omitempty"`
	Violations      []protocol.Violation `json:"violations"`
	Decisions       []DecisionDocument   `json:"decisions,omitempty"`
}

// PlanInput is a contract output and the redeemer it is spent with.
type PlanInput struct {
	UTxO     chain.UTxO    `json:"utxo"`
	Redeemer escrow.Action `json:"redeemer"`
}

// PlanOutput is an output the transaction must create.
type PlanOutput struct {
	Address  string `json:"address"`
	Lovelace int64  `json:"lovelace"`
	Datum    string `json:"datum,omitempty"`
	Script   string `json:"script,omitempty"`
}

// addressText prefers bech32, falling back to the credential form.
func addressText(addr ledger.Address) string {
	if addr.Text != "" {
		return addr.Text
	}
	if s, err := address.Encode(addr); err == nil {
		return s
	}
	return addr.String()
}

func newPlanDocument(p *protocol.Plan, vs []protocol.Violation) PlanDocument {
	doc := PlanDocument{
		Kind:            p.Kind.String(),
		RequiredSigners: p.RequiredSigners,
		ChangeAddress:   addressText(p.ChangeAddress),
		ValidityStart:   p.ValidityStart,
		TTL:             p.TTL,
		Metadata:        p.Metadata,
		Violations:      vs,
	}
	if doc.Violations == nil {
		doc.Violations = []protocol.Violation{}
	}
	for _, o := range p.ReferenceInputs {
		doc.ReferenceInputs = append(doc.ReferenceInputs, chain.FromOutput(o))
	}
	for _, in := range p.ScriptInputs {
		doc.ScriptInputs = append(doc.ScriptInputs, PlanInput{UTxO: chain.FromOutput(in.Output), Redeemer: in.Redeemer})
	}
	for _, o := range p.Collateral {
		doc.Collateral = append(doc.Collateral, chain.FromOutput(o))
	}
	for _, pay := range p.Outputs {
		out := PlanOutput{
			Address:  addressText(pay.Address),
			Lovelace: pay.Amount.Lovelace(),
			Datum:    hex.EncodeToString(pay.Datum),
		}
		if pay.Script != nil {
			out.Script = hex.EncodeToString(pay.Script.CBOR)
		}
		doc.Outputs = append(doc.Outputs, out)
	}
	return doc
}

// Plan derives the transaction of the given kind from chain state, checks
// it against the protocol and prints it. Claim plans are also run through
// the validator, one decision per escrow.
func (a *App) Plan(ctx context.Context, kind protocol.Kind) error {
	w, err := a.wallet()
	if err != nil {
		return err
	}
	scriptAddr, err := a.scriptAddress()
	if err != nil {
		return err
	}
	builder := protocol.NewBuilder(scriptAddr, a.Config.Tx.ValidityWindow)

	var (
		plan *protocol.Plan
		tip  ledger.Tip
	)
	switch kind {
	case protocol.KindDeploy, protocol.KindDeposit:
		plan, err = a.planCreate(builder, kind, w)
	default:
		plan, tip, err = a.planSpend(ctx, builder, kind, w)
	}
	if err != nil {
		return err
	}

	rules, err := a.Config.Rules(w.KeyHash())
	if err != nil {
		return err
	}
	violations := protocol.NewChecker(rules).Check(plan, tip)
	doc := newPlanDocument(plan, violations)

	if kind == protocol.KindClaim {
		decisions, err := a.validateClaim(ctx, plan)
		if err != nil {
			return err
		}
		doc.Decisions = decisions
	}

	log := a.Logger.Info()
	if len(violations) > 0 {
		log = a.Logger.Warn()
	}
	log.Str("kind", kind.String()).
		Int("script_inputs", len(plan.ScriptInputs)).
		Int("violations", len(violations)).
		Uint64("ttl", plan.TTL).
		Msg("planned")
	return a.writeJSON(doc)
}

func (a *App) planCreate(b *protocol.Builder, kind protocol.Kind, w wallet.Wallet) (*protocol.Plan, error) {
	fee, err := a.feeCredential(w)
	if err != nil {
		return nil, err
	}
	record := escrow.Record{
		Source:     w.KeyHash(),
		FeeAddress: fee,
		FeeAmount:  lovelace.New(a.Config.Tx.Fee),
	}
	if kind == protocol.KindDeposit {
		return b.Deposit(record, lovelace.New(a.Config.Tx.DepositAmount), w)
	}
	script, err := a.script()
	if err != nil {
		return nil, err
	}
	return b.Deploy(script, record, lovelace.New(a.Config.Tx.DeployAmount), w)
}

func (a *App) planSpend(ctx context.Context, b *protocol.Builder, kind protocol.Kind, w wallet.Wallet) (*protocol.Plan, ledger.Tip, error) {
	c, closeChain, err := a.openChain()
	if err != nil {
		return nil, ledger.Tip{}, err
	}
	defer closeChain()

	src, err := a.newOracle(c)
	if err != nil {
		return nil, ledger.Tip{}, err
	}
	view, err := src.Gather(ctx, b.ScriptAddress)
	if err != nil {
		return nil, ledger.Tip{}, err
	}

	minCollateral := lovelace.New(a.Config.Tx.MinCollateral)
	roles, err := classify.Classify(view.ScriptOutputs, minCollateral)
	if err != nil {
		return nil, ledger.Tip{}, err
	}
	for _, s := range roles.Skipped {
		a.Logger.Debug().Str("utxo", s.Output.Ref.String()).Str("reason", string(s.Reason)).Msg("skipped contract output")
	}

	walletOutputs, err := c.Utxos(ctx, w.Address)
	if err != nil {
		return nil, ledger.Tip{}, fmt.Errorf("wallet utxos: %w", err)
	}
	collateral, err := protocol.Collateral(walletOutputs, minCollateral)
	if err != nil {
		return nil, ledger.Tip{}, err
	}

	var plan *protocol.Plan
	switch kind {
	case protocol.KindClaim:
		if view.Latest == nil {
			return nil, ledger.Tip{}, oracle.ErrNoFeed
		}
		plan, err = b.Claim(roles, view.Latest.Output, view.Latest.Observation, collateral, w, view.Tip)
	case protocol.KindRefund:
		plan, err = b.Refund(roles, collateral, w, view.Tip)
	case protocol.KindUndeploy:
		plan, err = b.Undeploy(roles, collateral, w, view.Tip)
	default:
		err = fmt.Errorf("cannot plan %s from chain state", kind)
	}
	return plan, view.Tip, err
}

// validateClaim evaluates every escrow of a claim plan against the
// transaction the plan describes.
func (a *App) validateClaim(ctx context.Context, plan *protocol.Plan) ([]DecisionDocument, error) {
	v, err := a.newValidator()
	if err != nil {
		return nil, err
	}
	records, err := plan.Escrows()
	if err != nil {
		return nil, err
	}
	log, closeLog, err := a.openDecisionLog(ctx)
	if err != nil {
		return nil, err
	}
	defer closeLog()

	tx := plan.View()
	out := make([]DecisionDocument, 0, len(records))
	for i, rec := range records {
		d := v.Evaluate(rec, escrow.Claim, tx)
		ref := plan.ScriptInputs[i].Output.Ref.String()
		a.record(ctx, log, "plan claim", ref, d)
		out = append(out, newDecisionDocument(d))
	}
	return out, nil
}
