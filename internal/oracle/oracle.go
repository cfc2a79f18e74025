// Package oracle locates the most recent authenticated price feed at the
// oracle's address.
package oracle

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goFeedEscrow/internal/chain"
	"github.com/LeJamon/goFeedEscrow/internal/core/feed"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/validator"
)

// DefaultCacheSize bounds the decoded-datum cache.
const DefaultCacheSize = 256

// ErrNoFeed is returned when no output at the oracle address carries a
// usable observation.
var ErrNoFeed = errors.New("no oracle feed found")

// Options parameterise a Source.
type Options struct {
	Address    ledger.Address
	AuthPolicy ledger.PolicyID
	// FeedName filters observations by pair name. Empty accepts any.
	FeedName  string
	CacheSize int
}

// Feed is an oracle output with its decoded observation.
type Feed struct {
	Output      ledger.Output
	Observation *feed.Observation
}

type entry struct {
	obs *feed.Observation
	err error
}

// Source reads feeds through a chain.Context. Decoded datums are cached by
// output reference since an output never changes once created.
type Source struct {
	chain  chain.Context
	opts   Options
	cache  *lru.Cache[string, entry]
	logger zerolog.Logger
}

// New builds a Source.
func New(c chain.Context, opts Options, logger zerolog.Logger) (*Source, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("oracle cache: %w", err)
	}
	return &Source{
		chain:  c,
		opts:   opts,
		cache:  cache,
		logger: logger.With().Str("component", "oracle").Logger(),
	}, nil
}

// Address is the oracle address this source reads.
func (s *Source) Address() ledger.Address {
	return s.opts.Address
}

// Candidates returns every authenticated output at the oracle address whose
// datum decodes, in reference order.
func (s *Source) Candidates(ctx context.Context) ([]Feed, error) {
	outs, err := s.chain.Utxos(ctx, s.opts.Address)
	if err != nil {
		return nil, fmt.Errorf("oracle utxos: %w", err)
	}
	return s.candidates(outs), nil
}

// Latest returns the candidate with the greatest expiry. Ties go to the
// first in reference order.
func (s *Source) Latest(ctx context.Context) (*Feed, error) {
	feeds, err := s.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	latest := SelectLatest(feeds)
	if latest == nil {
		return nil, ErrNoFeed
	}
	s.logger.Debug().
		Str("utxo", latest.Output.Ref.String()).
		Str("feed", latest.Observation.Name()).
		Str("price", latest.Observation.Values[0].String()).
		Time("expiry", latest.Observation.ExpiryTime()).
		Msg("latest feed")
	return latest, nil
}

// SelectLatest picks the feed with the greatest expiry, or nil.
func SelectLatest(feeds []Feed) *Feed {
	var latest *Feed
	for i := range feeds {
		if latest == nil || feeds[i].Observation.Expiry > latest.Observation.Expiry {
			latest = &feeds[i]
		}
	}
	return latest
}

func (s *Source) candidates(outs []ledger.Output) []Feed {
	auth := validator.Authenticated(ledger.TxView{ReferenceInputs: outs}, s.opts.AuthPolicy)
	feeds := make([]Feed, 0, len(auth))
	for _, o := range auth {
		obs, err := s.decode(o)
		if err != nil {
			s.logger.Debug().Err(err).Str("utxo", o.Ref.String()).Msg("skipping undecodable datum")
			continue
		}
		if s.opts.FeedName != "" && obs.Name() != s.opts.FeedName {
			continue
		}
		feeds = append(feeds, Feed{Output: o, Observation: obs})
	}
	return feeds
}

// decode returns a private copy of the cached observation.
func (s *Source) decode(o ledger.Output) (*feed.Observation, error) {
	key := o.Ref.String()
	e, ok := s.cache.Get(key)
	if !ok {
		obs, err := feed.Decode(o.Datum.Inline)
		e = entry{obs: obs, err: err}
		s.cache.Add(key, e)
	}
	if e.err != nil {
		return nil, e.err
	}
	cp := *e.obs
	cp.AuthPolicyPresent = true
	return &cp, nil
}

// View is everything a claim or refund plan is derived from.
type View struct {
	Tip           ledger.Tip
	ScriptOutputs []ledger.Output
	Latest        *Feed
}

// Gather reads the script address, the latest feed and the tip
// concurrently. A missing feed is not an error; View.Latest stays nil.
func (s *Source) Gather(ctx context.Context, script ledger.Address) (*View, error) {
	var v View
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		outs, err := s.chain.Utxos(gctx, script)
		if err != nil {
			return fmt.Errorf("script utxos: %w", err)
		}
		v.ScriptOutputs = outs
		return nil
	})
	g.Go(func() error {
		latest, err := s.Latest(gctx)
		if errors.Is(err, ErrNoFeed) {
			return nil
		}
		v.Latest = latest
		return err
	})
	g.Go(func() error {
		tip, err := s.chain.Tip(gctx)
		if err != nil {
			return fmt.Errorf("tip: %w", err)
		}
		v.Tip = tip
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &v, nil
}
