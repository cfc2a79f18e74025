package app

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/LeJamon/goFeedEscrow/internal/codec/plutusdata"
	"github.com/LeJamon/goFeedEscrow/internal/core/feed"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/validator"
	"github.com/LeJamon/goFeedEscrow/internal/oracle"
)

// FeedDocument is the display form of an observation, with the property map
// in canonical order.
type FeedDocument struct {
	UTxO           string            `json:"utxo,omitempty"`
	Context        string            `json:"@context,omitempty"`
	Type           string            `json:"type,omitempty"`
	Name           string            `json:"name"`
	Value          []string          `json:"value"`
	ValueReference map[string]string `json:"valueReference"`
	Identifier     feed.FeedID       `json:"identifier"`
	ContentSig     string            `json:"_:contentSignature"`
	Internal       string            `json:"internal_identifier"`
	Expiry         string            `json:"expiry"`
	Signature      string            `json:"signature"`
	Prices         map[string]string `json:"prices"`
	Breaker        string            `json:"breaker,omitempty"`
	CanonicalCBOR  string            `json:"canonical_cbor,omitempty"`
}

func newFeedDocument(obs *feed.Observation) FeedDocument {
	doc := FeedDocument{
		Context: obs.Context,
		Type:    obs.Type,
		Name:    obs.Name(),
		ValueReference: map[string]string{
			"validFrom":    obs.ValidFromTime().Format(time.RFC3339Nano),
			"validThrough": obs.ValidThroughTime().Format(time.RFC3339Nano),
		},
		Identifier: obs.FeedID,
		ContentSig: string(obs.ContentSignature),
		Internal:   string(obs.Identifier),
		Expiry:     obs.ExpiryTime().Format(time.RFC3339Nano),
		Signature:  hex.EncodeToString(obs.Signature),
		Prices:     map[string]string{},
	}
	for i, label := range obs.PairLabels {
		doc.Value = append(doc.Value, obs.Values[i].String())
		doc.Prices[label] = obs.Values[i].String()
	}
	return doc
}

// readDatum accepts hex text or a path to a file holding hex or raw CBOR.
func readDatum(input string) ([]byte, error) {
	if raw, err := hex.DecodeString(strings.TrimSpace(input)); err == nil {
		return raw, nil
	}
	content, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("datum is neither hex nor a readable file: %w", err)
	}
	if raw, err := hex.DecodeString(strings.TrimSpace(string(content))); err == nil {
		return raw, nil
	}
	return content, nil
}

// FeedDecode prints a feed datum given as hex or file.
func (a *App) FeedDecode(input string) error {
	raw, err := readDatum(input)
	if err != nil {
		return err
	}
	d, err := plutusdata.Decode(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", feed.ErrMalformedObservation, err)
	}
	obs, err := feed.DecodeData(d)
	if err != nil {
		return err
	}
	canonical, err := feed.Canonical(d)
	if err != nil {
		return err
	}
	canonicalRaw, err := plutusdata.Encode(canonical)
	if err != nil {
		return err
	}

	doc := newFeedDocument(obs)
	doc.CanonicalCBOR = hex.EncodeToString(canonicalRaw)
	return a.writeJSON(doc)
}

// FeedLatest prints the latest authenticated feed and what the breaker
// would make of it.
func (a *App) FeedLatest(ctx context.Context) error {
	c, closeChain, err := a.openChain()
	if err != nil {
		return err
	}
	defer closeChain()

	src, err := a.newOracle(c)
	if err != nil {
		return err
	}
	v, err := a.newValidator()
	if err != nil {
		return err
	}

	latest, err := src.Latest(ctx)
	if err != nil {
		return err
	}
	_, breaker := validator.ValidateCircuitBreaker(latest.Observation, v.Params())
	a.metrics.ObserveFeed(latest.Observation, breaker)

	doc := newFeedDocument(latest.Observation)
	doc.UTxO = latest.Output.Ref.String()
	doc.Breaker = breaker.String()
	return a.writeJSON(doc)
}

// FeedWatch polls the oracle address every interval and logs each new
// observation until interrupted. Metrics are served when enabled.
func (a *App) FeedWatch(ctx context.Context, interval time.Duration) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if interval <= 0 {
		interval = a.Config.Ogmios.PollInterval
	}

	c, closeChain, err := a.openChain()
	if err != nil {
		return err
	}
	defer closeChain()

	src, err := a.newOracle(c)
	if err != nil {
		return err
	}
	v, err := a.newValidator()
	if err != nil {
		return err
	}

	metricsErr := make(chan error, 1)
	if a.metrics != nil {
		go func() {
			metricsErr <- a.metrics.Serve(ctx, a.Config.Metrics.Listen, a.Logger)
		}()
	}

	a.Logger.Info().
		Str("oracle", src.Address().String()).
		Dur("interval", interval).
		Msg("watching feed")

	var last ledger.OutputRef
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		last = a.pollFeed(ctx, src, v.Params(), last)
		select {
		case <-ctx.Done():
			a.Logger.Info().Msg("feed watch stopped")
			return nil
		case err := <-metricsErr:
			if err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
		case <-ticker.C:
		}
	}
}

func (a *App) pollFeed(ctx context.Context, src *oracle.Source, params validator.Params, last ledger.OutputRef) ledger.OutputRef {
	latest, err := src.Latest(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			a.Logger.Warn().Err(err).Msg("feed poll failed")
		}
		return last
	}
	price, breaker := validator.ValidateCircuitBreaker(latest.Observation, params)
	a.metrics.ObserveFeed(latest.Observation, breaker)
	if latest.Output.Ref == last {
		return last
	}

	obs := latest.Observation
	a.Logger.Info().
		Str("utxo", latest.Output.Ref.String()).
		Str(obs.PairLabels[0], obs.Values[0].String()).
		Str(obs.PairLabels[1], obs.Values[1].String()).
		Str("breaker_price", price.String()).
		Str("breaker", breaker.String()).
		Time("valid_from", obs.ValidFromTime()).
		Time("expiry", obs.ExpiryTime()).
		Msg("new observation")
	return latest.Output.Ref
}
