package metrics

import (
	"context"

	"github.com/LeJamon/goFeedEscrow/internal/chain"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
)

type instrumented struct {
	inner chain.Context
	m     *Metrics
}

// Chain wraps inner so every query is counted.
func (m *Metrics) Chain(inner chain.Context) chain.Context {
	if m == nil {
		return inner
	}
	return &instrumented{inner: inner, m: m}
}

func (i *instrumented) Utxos(ctx context.Context, addr ledger.Address) ([]ledger.Output, error) {
	outs, err := i.inner.Utxos(ctx, addr)
	i.m.ObserveQuery(err)
	return outs, err
}

func (i *instrumented) Tip(ctx context.Context) (ledger.Tip, error) {
	tip, err := i.inner.Tip(ctx)
	i.m.ObserveQuery(err)
	return tip, err
}
