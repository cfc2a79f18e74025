package chain

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goFeedEscrow/internal/codec/address"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/lovelace"
)

func testAddress(t *testing.T, kind ledger.CredentialKind, b byte) ledger.Address {
	t.Helper()
	a := ledger.Address{Network: address.Testnet, Payment: ledger.Credential{Kind: kind, Hash: ledger.Hash28{b}}}
	s, err := address.Encode(a)
	require.NoError(t, err)
	a.Text = s
	return a
}

func testOutputs(t *testing.T) (ledger.Address, ledger.Address, []ledger.Output) {
	script := testAddress(t, ledger.ScriptCredential, 1)
	wallet := testAddress(t, ledger.KeyCredential, 2)
	policy := ledger.Hash28{9}

	outs := []ledger.Output{
		{
			Ref:     ledger.OutputRef{TxHash: "bb", Index: 1},
			Address: script,
			Value:   ledger.NewValue(lovelace.New(2_000_000)).WithAsset(policy, "OFX", 1),
			Datum:   &ledger.Datum{Inline: []byte{0xd8, 0x79, 0x80}},
		},
		{
			Ref:     ledger.OutputRef{TxHash: "aa", Index: 0},
			Address: script,
			Value:   ledger.NewValue(lovelace.New(70_000_000)),
			Script:  &ledger.ScriptRef{Language: "plutus:v2", CBOR: []byte{0x01, 0x02}},
		},
		{
			Ref:     ledger.OutputRef{TxHash: "aa", Index: 1},
			Address: wallet,
			Value:   ledger.NewValue(lovelace.New(5_000_000)),
			Datum:   &ledger.Datum{Hash: []byte{0xab}},
		},
	}
	return script, wallet, outs
}

func TestUTxORoundTrip(t *testing.T) {
	_, _, outs := testOutputs(t)
	for _, o := range outs {
		raw, err := json.Marshal(FromOutput(o))
		require.NoError(t, err)

		var u UTxO
		require.NoError(t, json.Unmarshal(raw, &u))
		back, err := u.Output()
		require.NoError(t, err)
		assert.Equal(t, o, back)
	}
}

func TestUTxOFromOgmios(t *testing.T) {
	raw := `{
		"transaction": {"id": "3a8d"},
		"index": 2,
		"address": "addr_test1wrtcecfy7np3sduzn99ffuv8qx2sa8v977l0xql8ca7lgkgmktuc0",
		"value": {
			"ada": {"lovelace": 1500000},
			"104d51dd927761bf5d50d32e1ede4b2cff477d475fe32f4f780a4b21": {"4f4658": 1}
		},
		"datum": "d87980"
	}`
	var u UTxO
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	o, err := u.Output()
	require.NoError(t, err)

	assert.Equal(t, "3a8d#2", o.Ref.String())
	assert.Equal(t, ledger.ScriptCredential, o.Address.Payment.Kind)
	assert.Equal(t, int64(1_500_000), o.Value.Lovelace.Lovelace())
	policy, err := ledger.ParseHash28("104d51dd927761bf5d50d32e1ede4b2cff477d475fe32f4f780a4b21")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), o.Value.Assets[policy]["OFX"])
	assert.True(t, o.Datum.IsInline())
	assert.Nil(t, o.Script)
}

func TestUTxOInvalid(t *testing.T) {
	tests := map[string]string{
		"bad address": `{"address": "addr_test1xyz", "value": {"ada": {"lovelace": 1}}}`,
		"bad policy":  `{"address": "addr_test1wrtcecfy7np3sduzn99ffuv8qx2sa8v977l0xql8ca7lgkgmktuc0", "value": {"ab": {"00": 1}}}`,
		"bad datum":   `{"address": "addr_test1wrtcecfy7np3sduzn99ffuv8qx2sa8v977l0xql8ca7lgkgmktuc0", "value": {}, "datum": "zz"}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			var u UTxO
			require.NoError(t, json.Unmarshal([]byte(raw), &u))
			_, err := u.Output()
			assert.Error(t, err)
		})
	}
}

func TestSnapshotUtxos(t *testing.T) {
	script, wallet, outs := testOutputs(t)
	tip := ledger.Tip{Slot: 42, Hash: "cafe"}

	raw, err := json.Marshal(NewSnapshot(tip, outs))
	require.NoError(t, err)
	snap, err := ParseSnapshot(raw)
	require.NoError(t, err)

	ctx := context.Background()
	got, err := snap.Tip(ctx)
	require.NoError(t, err)
	assert.Equal(t, tip, got)

	atScript, err := snap.Utxos(ctx, script)
	require.NoError(t, err)
	require.Len(t, atScript, 2)
	assert.Equal(t, "aa#0", atScript[0].Ref.String())
	assert.Equal(t, "bb#1", atScript[1].Ref.String())

	atWallet, err := snap.Utxos(ctx, wallet)
	require.NoError(t, err)
	assert.Len(t, atWallet, 1)

	none, err := snap.Utxos(ctx, testAddress(t, ledger.KeyCredential, 7))
	require.NoError(t, err)
	assert.Empty(t, none)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = snap.Utxos(cancelled, script)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseTxView(t *testing.T) {
	_, wallet, outs := testOutputs(t)
	view := ledger.TxView{
		Outputs:         outs[2:],
		ReferenceInputs: outs[:2],
		Signatories:     []ledger.KeyHash{wallet.Payment.Hash},
	}
	raw, err := json.Marshal(NewTxView(view))
	require.NoError(t, err)

	back, err := ParseTxView(raw)
	require.NoError(t, err)
	assert.Equal(t, view, back)
	assert.True(t, back.SignedBy(wallet.Payment.Hash))

	_, err = ParseTxView([]byte(`{"signatories": ["xyz"]}`))
	assert.Error(t, err)
}
