package app

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goFeedEscrow/internal/chain"
	"github.com/LeJamon/goFeedEscrow/internal/codec/address"
	"github.com/LeJamon/goFeedEscrow/internal/config"
	"github.com/LeJamon/goFeedEscrow/internal/core/escrow"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/lovelace"
	"github.com/LeJamon/goFeedEscrow/internal/core/protocol"
)

var testTip = ledger.Tip{Slot: 40_000_000, Hash: "9f3a"}

func testAddress(t *testing.T, kind ledger.CredentialKind, b byte) ledger.Address {
	t.Helper()
	var h ledger.Hash28
	for i := range h {
		h[i] = b
	}
	a := ledger.Address{Network: address.Testnet, Payment: ledger.Credential{Kind: kind, Hash: h}}
	s, err := address.Encode(a)
	require.NoError(t, err)
	a.Text = s
	return a
}

func feedDatum(t *testing.T) string {
	t.Helper()
	h, err := os.ReadFile("../core/feed/testdata/ada_usd_v0.hex")
	require.NoError(t, err)
	return strings.TrimSpace(string(h))
}

type testEnv struct {
	app    *App
	out    *bytes.Buffer
	wallet ledger.Address
	script ledger.Address
}

// newTestEnv writes a chain snapshot holding a deployed contract with one
// escrow, an authenticated feed and a wallet with collateral.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	script := testAddress(t, ledger.ScriptCredential, 0x5c)
	wallet := testAddress(t, ledger.KeyCredential, 0x11)
	depositor := testAddress(t, ledger.KeyCredential, 0x22)

	cfg.Contract.ScriptAddress = script.Text
	cfg.Wallet.Address = wallet.Text
	cfg.DecisionLog.DSN = filepath.Join(t.TempDir(), "decisions.db")

	oracleAddr, err := address.Decode(cfg.Oracle.Address)
	require.NoError(t, err)
	policy, err := ledger.ParseHash28(cfg.Oracle.AuthPolicy)
	require.NoError(t, err)
	datum, err := hex.DecodeString(feedDatum(t))
	require.NoError(t, err)

	deployRecord, err := escrow.Record{Source: wallet.Payment.Hash, FeeAddress: wallet.Payment.Hash, FeeAmount: lovelace.New(1_000_000)}.Encode()
	require.NoError(t, err)
	depositRecord, err := escrow.Record{Source: depositor.Payment.Hash, FeeAddress: wallet.Payment.Hash, FeeAmount: lovelace.New(1_000_000)}.Encode()
	require.NoError(t, err)

	outputs := []ledger.Output{
		{
			Ref:     ledger.OutputRef{TxHash: "a0", Index: 0},
			Address: script,
			Value:   ledger.NewValue(lovelace.New(70_000_000)),
			Datum:   &ledger.Datum{Inline: deployRecord},
			Script:  &ledger.ScriptRef{Language: "plutus:v2", CBOR: []byte{0x4e, 0x4d, 0x01}},
		},
		{
			Ref:     ledger.OutputRef{TxHash: "b0", Index: 0},
			Address: script,
			Value:   ledger.NewValue(lovelace.New(2_000_000)),
			Datum:   &ledger.Datum{Inline: depositRecord},
		},
		{
			Ref:     ledger.OutputRef{TxHash: "c0", Index: 0},
			Address: oracleAddr,
			Value:   ledger.NewValue(lovelace.New(3_413_520)).WithAsset(policy, "tok", 1),
			Datum:   &ledger.Datum{Inline: datum},
		},
		{
			Ref:     ledger.OutputRef{TxHash: "d0", Index: 1},
			Address: wallet,
			Value:   ledger.NewValue(lovelace.New(5_000_000)),
		},
	}
	raw, err := json.Marshal(chain.NewSnapshot(testTip, outputs))
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, os.WriteFile(file, raw, 0o600))

	a := NewApp(cfg, zerolog.Nop())
	out := &bytes.Buffer{}
	a.Out = out
	a.ChainFile = file
	return testEnv{app: a, out: out, wallet: wallet, script: script}
}

func TestFeedDecode(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.app.FeedDecode(feedDatum(t)))

	var doc FeedDocument
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &doc))
	assert.Equal(t, "ADA-USD|USD-ADA", doc.Name)
	assert.NotEmpty(t, doc.CanonicalCBOR)
}

func TestFeedLatest(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.app.FeedLatest(context.Background()))

	var doc FeedDocument
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &doc))
	assert.Equal(t, "c0#0", doc.UTxO)
	assert.NotEmpty(t, doc.Breaker)
}

func TestClassify(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.app.Classify(context.Background()))

	out := env.out.String()
	assert.Contains(t, out, "a0#0")
	assert.Contains(t, out, "script-ref")
	assert.Contains(t, out, "b0#0")
	assert.Contains(t, out, "claimable")
}

func TestPlanClaimRecordsDecisions(t *testing.T) {
	env := newTestEnv(t)
	env.app.Config.DecisionLog.Enabled = true
	require.NoError(t, env.app.Plan(context.Background(), protocol.KindClaim))

	var doc PlanDocument
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &doc))
	assert.Equal(t, "claim", doc.Kind)
	require.Len(t, doc.ScriptInputs, 1)
	assert.Equal(t, "b0", doc.ScriptInputs[0].UTxO.Transaction.ID)
	require.Len(t, doc.Collateral, 1)
	assert.Equal(t, "d0", doc.Collateral[0].Transaction.ID)
	require.Len(t, doc.ReferenceInputs, 2)
	assert.Equal(t, testTip.Slot, doc.ValidityStart)
	assert.Equal(t, testTip.Slot+3600, doc.TTL)
	require.Len(t, doc.Decisions, 1)
	assert.Equal(t, escrow.Claim.String(), doc.Decisions[0].Action)

	env.out.Reset()
	require.NoError(t, env.app.Decisions(context.Background(), 10))
	assert.Contains(t, env.out.String(), "plan claim")
	assert.Contains(t, env.out.String(), "b0#0")
}

func TestPlanRefundWithoutOwnEscrow(t *testing.T) {
	env := newTestEnv(t)
	err := env.app.Plan(context.Background(), protocol.KindRefund)
	assert.ErrorIs(t, err, protocol.ErrNoEscrows)
}

func TestPlanDeposit(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.app.Plan(context.Background(), protocol.KindDeposit))

	var doc PlanDocument
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &doc))
	require.Len(t, doc.Outputs, 1)
	assert.Equal(t, env.script.Text, doc.Outputs[0].Address)
	assert.Equal(t, int64(2_000_000), doc.Outputs[0].Lovelace)
	assert.Empty(t, doc.Violations)

	raw, err := hex.DecodeString(doc.Outputs[0].Datum)
	require.NoError(t, err)
	rec, err := escrow.DecodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, env.wallet.Payment.Hash, rec.Source)
}

func TestPlanWithoutWallet(t *testing.T) {
	env := newTestEnv(t)
	env.app.Config.Wallet.Address = ""
	assert.ErrorIs(t, env.app.Plan(context.Background(), protocol.KindClaim), ErrNoWallet)
}

func TestEvaluateRefund(t *testing.T) {
	env := newTestEnv(t)
	depositor := testAddress(t, ledger.KeyCredential, 0x22)
	rec, err := escrow.Record{Source: depositor.Payment.Hash, FeeAddress: env.wallet.Payment.Hash, FeeAmount: lovelace.New(1_000_000)}.Encode()
	require.NoError(t, err)

	tx, err := json.Marshal(chain.NewTxView(ledger.TxView{Signatories: []ledger.KeyHash{depositor.Payment.Hash}}))
	require.NoError(t, err)
	txFile := filepath.Join(t.TempDir(), "tx.json")
	require.NoError(t, os.WriteFile(txFile, tx, 0o600))

	require.NoError(t, env.app.Evaluate(context.Background(), EvaluateOptions{
		TxFile:   txFile,
		Datum:    hex.EncodeToString(rec),
		Redeemer: "refund",
	}))
	var doc DecisionDocument
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &doc))
	assert.Equal(t, escrow.Refund.String(), doc.Action)
	assert.Equal(t, 0, doc.Code)
}

func TestParseRedeemer(t *testing.T) {
	claim, err := parseRedeemer("claim")
	require.NoError(t, err)
	assert.Equal(t, escrow.Claim, escrow.DecodeAction(claim))

	raw, err := parseRedeemer("d87a80")
	require.NoError(t, err)
	assert.Equal(t, escrow.Refund, escrow.DecodeAction(raw))

	_, err = parseRedeemer("withdraw")
	assert.Error(t, err)
}
