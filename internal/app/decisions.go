package app

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"
)

// ErrDecisionLogDisabled is returned when reading a log that is not
// configured.
var ErrDecisionLogDisabled = errors.New("decision_log.enabled is false")

// Decisions prints the most recent entries of the decision log.
func (a *App) Decisions(ctx context.Context, limit int) error {
	log, closeLog, err := a.openDecisionLog(ctx)
	if err != nil {
		return err
	}
	defer closeLog()
	if log == nil {
		return ErrDecisionLogDisabled
	}

	entries, err := log.Recent(ctx, limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Recorded\tSource\tEscrow\tAction\tResult\tPrice\tBreaker")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.RecordedAt.Format(time.RFC3339), e.Source, e.EscrowRef, e.Action, e.Result, e.Price, e.BreakerPrice)
	}
	return w.Flush()
}
