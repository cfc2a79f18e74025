package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/LeJamon/goFeedEscrow/internal/chain"
	"github.com/LeJamon/goFeedEscrow/internal/core/escrow"
	"github.com/LeJamon/goFeedEscrow/internal/core/validator"
)

// EvaluateOptions name the inputs of one validator run.
type EvaluateOptions struct {
	// TxFile is a JSON transaction view (chain.TxView).
	TxFile string
	// Datum is the escrow datum as hex.
	Datum string
	// Redeemer is "claim", "refund" or hex redeemer data.
	Redeemer string
	// EscrowRef labels the decision in the log.
	EscrowRef string
}

// DecisionDocument is the printed form of a decision.
type DecisionDocument struct {
	Action       string `json:"action"`
	Result       string `json:"result"`
	Code         int    `json:"code"`
	Message      string `json:"message"`
	OracleRef    string `json:"oracle_ref,omitempty"`
	Feed         string `json:"feed,omitempty"`
	Price        string `json:"price,omitempty"`
	BreakerPrice string `json:"breaker_price,omitempty"`
}

func newDecisionDocument(d validator.Decision) DecisionDocument {
	doc := DecisionDocument{
		Action:  d.Action.String(),
		Result:  d.Result.String(),
		Code:    int(d.Result),
		Message: d.Result.Message(),
	}
	if d.OracleRef != nil {
		doc.OracleRef = d.OracleRef.String()
	}
	if d.Observation != nil {
		doc.Feed = d.Observation.Name()
		doc.Price = d.Observation.Values[0].String()
	}
	if d.Price != nil {
		doc.BreakerPrice = d.Price.String()
	}
	return doc
}

// Evaluate runs the validator against a transaction view.
func (a *App) Evaluate(ctx context.Context, opts EvaluateOptions) error {
	raw, err := os.ReadFile(opts.TxFile)
	if err != nil {
		return fmt.Errorf("read tx view: %w", err)
	}
	tx, err := chain.ParseTxView(raw)
	if err != nil {
		return err
	}
	datum, err := hex.DecodeString(strings.TrimSpace(opts.Datum))
	if err != nil {
		return fmt.Errorf("datum: %w", err)
	}
	record, err := escrow.DecodeRecord(datum)
	if err != nil {
		return err
	}
	redeemer, err := parseRedeemer(opts.Redeemer)
	if err != nil {
		return err
	}

	v, err := a.newValidator()
	if err != nil {
		return err
	}
	log, closeLog, err := a.openDecisionLog(ctx)
	if err != nil {
		return err
	}
	defer closeLog()

	d := v.EvaluateRedeemer(record, redeemer, tx)
	a.record(ctx, log, "evaluate", opts.EscrowRef, d)

	return a.writeJSON(newDecisionDocument(d))
}

// parseRedeemer maps action names to their encoding; anything else is taken
// as hex redeemer data.
func parseRedeemer(s string) ([]byte, error) {
	var action escrow.Action
	switch strings.ToLower(s) {
	case "claim":
		action = escrow.Claim
	case "refund":
		action = escrow.Refund
	default:
		raw, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("redeemer %q is neither claim, refund nor hex", s)
		}
		return raw, nil
	}
	return action.Encode()
}
