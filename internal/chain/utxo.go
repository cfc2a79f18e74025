package chain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/LeJamon/goFeedEscrow/internal/codec/address"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/lovelace"
)

// UTxO is the JSON form of an unspent output as Ogmios v6 returns it. The
// snapshot file and transaction views use the same shape.
type UTxO struct {
	Transaction struct {
		ID string `json:"id"`
	} `json:"transaction"`
	Index     uint32                       `json:"index"`
	Address   string                       `json:"address"`
	Value     map[string]map[string]uint64 `json:"value"`
	DatumHash string                       `json:"datumHash,omitempty"`
	Datum     string                       `json:"datum,omitempty"`
	Script    *Script                      `json:"script,omitempty"`
}

// Script is an attached reference script.
type Script struct {
	Language string `json:"language"`
	CBOR     string `json:"cbor,omitempty"`
}

const adaKey = "ada"

// Output converts u to the ledger model. Asset names are hex in JSON and raw
// bytes in the model.
func (u UTxO) Output() (ledger.Output, error) {
	ref := ledger.OutputRef{TxHash: u.Transaction.ID, Index: u.Index}
	addr, err := address.Decode(u.Address)
	if err != nil {
		return ledger.Output{}, fmt.Errorf("utxo %s: %w", ref, err)
	}

	out := ledger.Output{Ref: ref, Address: addr}
	for policy, assets := range u.Value {
		if policy == adaKey {
			out.Value.Lovelace = lovelace.New(int64(assets["lovelace"]))
			continue
		}
		pid, err := ledger.ParseHash28(policy)
		if err != nil {
			return ledger.Output{}, fmt.Errorf("utxo %s: policy: %w", ref, err)
		}
		for name, qty := range assets {
			raw, err := hex.DecodeString(name)
			if err != nil {
				return ledger.Output{}, fmt.Errorf("utxo %s: asset name %q: %w", ref, name, err)
			}
			out.Value = out.Value.WithAsset(pid, string(raw), qty)
		}
	}

	if u.Datum != "" || u.DatumHash != "" {
		out.Datum = &ledger.Datum{}
		if out.Datum.Inline, err = decodeHex(u.Datum); err != nil {
			return ledger.Output{}, fmt.Errorf("utxo %s: datum: %w", ref, err)
		}
		if out.Datum.Hash, err = decodeHex(u.DatumHash); err != nil {
			return ledger.Output{}, fmt.Errorf("utxo %s: datum hash: %w", ref, err)
		}
	}

	if u.Script != nil {
		code, err := hex.DecodeString(u.Script.CBOR)
		if err != nil {
			return ledger.Output{}, fmt.Errorf("utxo %s: script: %w", ref, err)
		}
		out.Script = &ledger.ScriptRef{Language: u.Script.Language, CBOR: code}
	}
	return out, nil
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

// FromOutput is the inverse of UTxO.Output.
func FromOutput(o ledger.Output) UTxO {
	var u UTxO
	u.Transaction.ID = o.Ref.TxHash
	u.Index = o.Ref.Index
	u.Address = o.Address.String()
	if o.Address.Text == "" {
		if s, err := address.Encode(o.Address); err == nil {
			u.Address = s
		}
	}
	u.Value = map[string]map[string]uint64{adaKey: {"lovelace": uint64(o.Value.Lovelace.Lovelace())}}
	for _, policy := range o.Value.Policies() {
		assets := make(map[string]uint64, len(o.Value.Assets[policy]))
		for name, qty := range o.Value.Assets[policy] {
			assets[hex.EncodeToString([]byte(name))] = qty
		}
		u.Value[policy.String()] = assets
	}
	if o.Datum != nil {
		u.Datum = hex.EncodeToString(o.Datum.Inline)
		u.DatumHash = hex.EncodeToString(o.Datum.Hash)
	}
	if o.Script != nil {
		u.Script = &Script{Language: o.Script.Language, CBOR: hex.EncodeToString(o.Script.CBOR)}
	}
	return u
}

// Outputs converts a list, failing on the first bad entry.
func Outputs(us []UTxO) ([]ledger.Output, error) {
	out := make([]ledger.Output, 0, len(us))
	for _, u := range us {
		o, err := u.Output()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// SortOutputs orders outputs by reference so results do not depend on the
// order a node happened to return them in.
func SortOutputs(outs []ledger.Output) {
	sort.Slice(outs, func(i, j int) bool {
		if outs[i].Ref.TxHash != outs[j].Ref.TxHash {
			return outs[i].Ref.TxHash < outs[j].Ref.TxHash
		}
		return outs[i].Ref.Index < outs[j].Ref.Index
	})
}

// TxView is the JSON form of ledger.TxView accepted by the evaluate command.
type TxView struct {
	Outputs         []UTxO           `json:"outputs"`
	ReferenceInputs []UTxO           `json:"reference_inputs"`
	Signatories     []ledger.KeyHash `json:"signatories"`
}

// View converts v to the ledger model.
func (v TxView) View() (ledger.TxView, error) {
	outs, err := Outputs(v.Outputs)
	if err != nil {
		return ledger.TxView{}, fmt.Errorf("outputs: %w", err)
	}
	refs, err := Outputs(v.ReferenceInputs)
	if err != nil {
		return ledger.TxView{}, fmt.Errorf("reference inputs: %w", err)
	}
	return ledger.TxView{Outputs: outs, ReferenceInputs: refs, Signatories: v.Signatories}, nil
}

// ParseTxView decodes a JSON transaction view.
func ParseTxView(raw []byte) (ledger.TxView, error) {
	var v TxView
	if err := json.Unmarshal(raw, &v); err != nil {
		return ledger.TxView{}, fmt.Errorf("parse tx view: %w", err)
	}
	return v.View()
}

// NewTxView converts a ledger view to JSON form.
func NewTxView(tx ledger.TxView) TxView {
	v := TxView{Signatories: tx.Signatories}
	for _, o := range tx.Outputs {
		v.Outputs = append(v.Outputs, FromOutput(o))
	}
	for _, o := range tx.ReferenceInputs {
		v.ReferenceInputs = append(v.ReferenceInputs, FromOutput(o))
	}
	return v
}
