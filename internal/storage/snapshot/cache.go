package snapshot

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/LeJamon/goFeedEscrow/internal/chain"
	"github.com/LeJamon/goFeedEscrow/internal/codec/address"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
)

var (
	keyTip      = []byte("tip")
	prefixUtxos = "utxos/"
)

// ErrStale is returned when the node is unavailable and the stored copy is
// older than the configured maximum age.
var ErrStale = errors.New("stored snapshot is stale")

// Options parameterise a Cache.
type Options struct {
	Compress bool
	// MaxAge bounds how old a fallback copy may be. Zero means any age.
	MaxAge time.Duration
}

type record struct {
	FetchedAt time.Time    `json:"fetched_at"`
	Tip       *ledger.Tip  `json:"tip,omitempty"`
	UTxOs     []chain.UTxO `json:"utxos,omitempty"`
}

// Cache is a chain.Context that records every answer from inner in a Store
// and replays the stored answer when inner reports chain.ErrUnavailable.
type Cache struct {
	inner  chain.Context
	store  Store
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

var _ chain.Context = (*Cache)(nil)

// NewCache wraps inner.
func NewCache(inner chain.Context, store Store, opts Options, logger zerolog.Logger) *Cache {
	return &Cache{
		inner:  inner,
		store:  store,
		opts:   opts,
		logger: logger.With().Str("component", "snapshot").Logger(),
		now:    time.Now,
	}
}

func utxoKey(addr ledger.Address) []byte {
	return []byte(prefixUtxos + hex.EncodeToString(address.Bytes(addr)))
}

func (c *Cache) Utxos(ctx context.Context, addr ledger.Address) ([]ledger.Output, error) {
	key := utxoKey(addr)
	outs, err := c.inner.Utxos(ctx, addr)
	if err == nil {
		rec := record{FetchedAt: c.now()}
		for _, o := range outs {
			rec.UTxOs = append(rec.UTxOs, chain.FromOutput(o))
		}
		c.save(key, rec)
		return outs, nil
	}
	if !errors.Is(err, chain.ErrUnavailable) {
		return nil, err
	}

	rec, loadErr := c.load(key)
	if loadErr != nil {
		return nil, fmt.Errorf("%w; stored copy: %w", err, loadErr)
	}
	stored, convErr := chain.Outputs(rec.UTxOs)
	if convErr != nil {
		return nil, fmt.Errorf("stored utxos: %w", convErr)
	}
	c.logger.Warn().Err(err).Str("address", addr.String()).Time("fetched_at", rec.FetchedAt).Msg("using stored utxos")
	return stored, nil
}

func (c *Cache) Tip(ctx context.Context) (ledger.Tip, error) {
	tip, err := c.inner.Tip(ctx)
	if err == nil {
		c.save(keyTip, record{FetchedAt: c.now(), Tip: &tip})
		return tip, nil
	}
	if !errors.Is(err, chain.ErrUnavailable) {
		return ledger.Tip{}, err
	}

	rec, loadErr := c.load(keyTip)
	if loadErr != nil {
		return ledger.Tip{}, fmt.Errorf("%w; stored copy: %w", err, loadErr)
	}
	if rec.Tip == nil {
		return ledger.Tip{}, fmt.Errorf("%w; stored copy has no tip", err)
	}
	c.logger.Warn().Err(err).Uint64("slot", rec.Tip.Slot).Time("fetched_at", rec.FetchedAt).Msg("using stored tip")
	return *rec.Tip, nil
}

func (c *Cache) save(key []byte, rec record) {
	raw, err := json.Marshal(rec)
	if err == nil {
		if c.opts.Compress {
			raw, err = compress(raw)
		} else {
			raw = encodeRaw(raw)
		}
	}
	if err == nil {
		err = c.store.Put(key, raw)
	}
	if err != nil {
		c.logger.Warn().Err(err).Bytes("key", key).Msg("snapshot write failed")
	}
}

func (c *Cache) load(key []byte) (record, error) {
	var rec record
	value, err := c.store.Get(key)
	if err != nil {
		return rec, err
	}
	raw, err := decompress(value)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", errCorruptValue, err)
	}
	if c.opts.MaxAge > 0 && c.now().Sub(rec.FetchedAt) > c.opts.MaxAge {
		return rec, fmt.Errorf("%w: fetched %s", ErrStale, rec.FetchedAt.Format(time.RFC3339))
	}
	return rec, nil
}
