package oracle

import (
	"context"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goFeedEscrow/internal/chain"
	"github.com/LeJamon/goFeedEscrow/internal/codec/address"
	"github.com/LeJamon/goFeedEscrow/internal/core/feed"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/lovelace"
	"github.com/LeJamon/goFeedEscrow/internal/core/validator"
)

const oracleAddress = "addr_test1wrtcecfy7np3sduzn99ffuv8qx2sa8v977l0xql8ca7lgkgmktuc0"

type fixture struct {
	addr   ledger.Address
	policy ledger.PolicyID
	base   *feed.Observation
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	h, err := os.ReadFile("../core/feed/testdata/ada_usd_v0.hex")
	require.NoError(t, err)
	raw, err := hex.DecodeString(strings.TrimSpace(string(h)))
	require.NoError(t, err)
	obs, err := feed.Decode(raw)
	require.NoError(t, err)

	addr, err := address.Decode(oracleAddress)
	require.NoError(t, err)
	return fixture{addr: addr, policy: validator.DefaultParams().AuthPolicy, base: obs}
}

// output returns an authenticated oracle output whose datum expires at expiry.
func (f fixture) output(t *testing.T, tx string, expiry int64) ledger.Output {
	t.Helper()
	obs := *f.base
	obs.Expiry = expiry
	datum, err := obs.Encode()
	require.NoError(t, err)
	return ledger.Output{
		Ref:     ledger.OutputRef{TxHash: tx},
		Address: f.addr,
		Value:   ledger.NewValue(lovelace.New(3_413_520)).WithAsset(f.policy, "tok", 1),
		Datum:   &ledger.Datum{Inline: datum},
	}
}

func (f fixture) source(t *testing.T, c chain.Context) *Source {
	t.Helper()
	s, err := New(c, Options{Address: f.addr, AuthPolicy: f.policy, FeedName: feed.DefaultFeedName}, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestLatest(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	mock := chain.NewMockContext(ctrl)

	withScript := f.output(t, "e1", 900)
	withScript.Script = &ledger.ScriptRef{Language: "plutus:v2", CBOR: []byte{1}}
	unauthenticated := f.output(t, "e2", 900)
	unauthenticated.Value = ledger.NewValue(lovelace.New(2_000_000))
	garbage := f.output(t, "e3", 900)
	garbage.Datum = &ledger.Datum{Inline: []byte{0x01}}
	otherFeed := *f.base
	otherFeed.PairLabels = [2]string{"BTC-USD", "USD-BTC"}
	otherFeed.Expiry = 900
	otherDatum, err := otherFeed.Encode()
	require.NoError(t, err)
	other := f.output(t, "e4", 0)
	other.Datum = &ledger.Datum{Inline: otherDatum}

	outs := []ledger.Output{
		f.output(t, "a1", 100),
		f.output(t, "a2", 300),
		f.output(t, "a3", 200),
		withScript, unauthenticated, garbage, other,
	}
	mock.EXPECT().Utxos(gomock.Any(), f.addr).Return(outs, nil).Times(2)

	s := f.source(t, mock)
	latest, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a2", latest.Output.Ref.TxHash)
	assert.Equal(t, int64(300), latest.Observation.Expiry)
	assert.True(t, latest.Observation.AuthPolicyPresent)

	candidates, err := s.Candidates(context.Background())
	require.NoError(t, err)
	assert.Len(t, candidates, 3)
	// a1..a3 plus the garbage and other-feed datums
	assert.Equal(t, 5, s.cache.Len())
}

func TestLatestTieGoesToFirst(t *testing.T) {
	f := newFixture(t)
	feeds := []Feed{
		{Output: f.output(t, "a", 5), Observation: &feed.Observation{Expiry: 5}},
		{Output: f.output(t, "b", 5), Observation: &feed.Observation{Expiry: 5}},
	}
	assert.Equal(t, "a", SelectLatest(feeds).Output.Ref.TxHash)
	assert.Nil(t, SelectLatest(nil))
}

func TestLatestNoFeed(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	mock := chain.NewMockContext(ctrl)
	mock.EXPECT().Utxos(gomock.Any(), f.addr).Return(nil, nil)

	_, err := f.source(t, mock).Latest(context.Background())
	assert.ErrorIs(t, err, ErrNoFeed)
}

func TestCachedObservationIsCopied(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	mock := chain.NewMockContext(ctrl)
	mock.EXPECT().Utxos(gomock.Any(), f.addr).Return([]ledger.Output{f.output(t, "a", 1)}, nil).Times(2)
	s := f.source(t, mock)

	first, err := s.Latest(context.Background())
	require.NoError(t, err)
	first.Observation.Expiry = 42

	second, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.Observation.Expiry)
}

func TestGather(t *testing.T) {
	f := newFixture(t)
	script := address.Script(ledger.Hash28{7}, address.Testnet)
	ctrl := gomock.NewController(t)
	mock := chain.NewMockContext(ctrl)

	escrowOut := ledger.Output{Ref: ledger.OutputRef{TxHash: "s"}, Address: script, Value: ledger.NewValue(lovelace.New(2_000_000))}
	mock.EXPECT().Utxos(gomock.Any(), script).Return([]ledger.Output{escrowOut}, nil)
	mock.EXPECT().Utxos(gomock.Any(), f.addr).Return([]ledger.Output{f.output(t, "o", 10)}, nil)
	mock.EXPECT().Tip(gomock.Any()).Return(ledger.Tip{Slot: 99, Hash: "ab"}, nil)

	v, err := f.source(t, mock).Gather(context.Background(), script)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), v.Tip.Slot)
	assert.Equal(t, []ledger.Output{escrowOut}, v.ScriptOutputs)
	require.NotNil(t, v.Latest)
	assert.Equal(t, "o", v.Latest.Output.Ref.TxHash)
}

func TestGatherWithoutFeed(t *testing.T) {
	f := newFixture(t)
	script := address.Script(ledger.Hash28{7}, address.Testnet)
	ctrl := gomock.NewController(t)
	mock := chain.NewMockContext(ctrl)
	mock.EXPECT().Utxos(gomock.Any(), script).Return(nil, nil)
	mock.EXPECT().Utxos(gomock.Any(), f.addr).Return(nil, nil)
	mock.EXPECT().Tip(gomock.Any()).Return(ledger.Tip{Slot: 1}, nil)

	v, err := f.source(t, mock).Gather(context.Background(), script)
	require.NoError(t, err)
	assert.Nil(t, v.Latest)
}

func TestGatherError(t *testing.T) {
	f := newFixture(t)
	script := address.Script(ledger.Hash28{7}, address.Testnet)
	ctrl := gomock.NewController(t)
	mock := chain.NewMockContext(ctrl)
	mock.EXPECT().Utxos(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	mock.EXPECT().Tip(gomock.Any()).Return(ledger.Tip{}, chain.ErrUnavailable)

	_, err := f.source(t, mock).Gather(context.Background(), script)
	assert.True(t, errors.Is(err, chain.ErrUnavailable))
}
