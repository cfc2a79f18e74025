package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/LeJamon/goFeedEscrow/internal/core/classify"
	"github.com/LeJamon/goFeedEscrow/internal/core/lovelace"
)

// Classify prints the roles of the outputs at the contract address.
func (a *App) Classify(ctx context.Context) error {
	c, closeChain, err := a.openChain()
	if err != nil {
		return err
	}
	defer closeChain()

	addr, err := a.scriptAddress()
	if err != nil {
		return err
	}
	outs, err := c.Utxos(ctx, addr)
	if err != nil {
		return err
	}
	roles, err := classify.Classify(outs, lovelace.New(a.Config.Tx.MinCollateral))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UTxO\tRole\tLovelace\tDetail")
	if roles.ScriptRef != nil {
		fmt.Fprintf(w, "%s\tscript-ref\t%d\t%s\n", roles.ScriptRef.Ref, roles.ScriptRef.Value.Lovelace, roles.ScriptRef.Script.Language)
	}
	for _, cl := range roles.Claimable {
		fmt.Fprintf(w, "%s\tclaimable\t%d\tsource=%s fee=%d\n", cl.Output.Ref, cl.Output.Value.Lovelace, cl.Record.Source, cl.Record.FeeAmount)
	}
	for _, o := range roles.Collateral {
		fmt.Fprintf(w, "%s\tcollateral\t%d\t\n", o.Ref, o.Value.Lovelace)
	}
	for _, s := range roles.Skipped {
		detail := string(s.Reason)
		if s.Err != nil {
			detail += ": " + s.Err.Error()
		}
		fmt.Fprintf(w, "%s\tskipped\t%d\t%s\n", s.Output.Ref, s.Output.Value.Lovelace, detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	a.Logger.Debug().
		Str("address", addr.String()).
		Int("claimable", len(roles.Claimable)).
		Int("collateral", len(roles.Collateral)).
		Int("skipped", len(roles.Skipped)).
		Bool("script_ref", roles.ScriptRef != nil).
		Msg("classified")
	return nil
}
