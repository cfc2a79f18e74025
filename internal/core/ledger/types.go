// Package ledger holds the read-only view of ledger state that the validator
// and the off-chain tooling operate on.
package ledger

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/LeJamon/goFeedEscrow/internal/core/lovelace"
)

// HashSize is the width of key, script and policy hashes (blake2b-224).
const HashSize = 28

// Hash28 is a blake2b-224 digest.
type Hash28 [HashSize]byte

// KeyHash identifies a verification key.
type KeyHash = Hash28

// PolicyID identifies a minting policy.
type PolicyID = Hash28

// ParseHash28 decodes a 56-character hex digest.
func ParseHash28(s string) (Hash28, error) {
	var h Hash28
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("decode hash %q: %w", s, err)
	}
	return Hash28FromBytes(b)
}

// Hash28FromBytes copies a 28-byte slice.
func Hash28FromBytes(b []byte) (Hash28, error) {
	var h Hash28
	if len(b) != HashSize {
		return h, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash28) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash28) IsZero() bool {
	return h == Hash28{}
}

func (h Hash28) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash28) UnmarshalText(b []byte) error {
	parsed, err := ParseHash28(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// CredentialKind tells whether a credential is a key or a script hash.
type CredentialKind uint8

const (
	KeyCredential CredentialKind = iota
	ScriptCredential
)

func (k CredentialKind) String() string {
	if k == ScriptCredential {
		return "script"
	}
	return "key"
}

// Credential is a payment or stake credential.
type Credential struct {
	Kind CredentialKind
	Hash Hash28
}

// Address is a decoded Shelley address.
type Address struct {
	Network byte
	Payment Credential
	Stake   *Credential
	// Text is the bech32 form the address was parsed from, if any.
	Text string
}

func (a Address) String() string {
	if a.Text != "" {
		return a.Text
	}
	return fmt.Sprintf("%s:%s", a.Payment.Kind, a.Payment.Hash)
}

// OutputRef points at a transaction output.
type OutputRef struct {
	TxHash string `json:"tx_hash"`
	Index  uint32 `json:"output_index"`
}

func (r OutputRef) String() string {
	return fmt.Sprintf("%s#%d", r.TxHash, r.Index)
}

// Value is lovelace plus native assets, keyed by policy then asset name.
type Value struct {
	Lovelace lovelace.Amount
	Assets   map[PolicyID]map[string]uint64
}

// NewValue returns a lovelace-only value.
func NewValue(amount lovelace.Amount) Value {
	return Value{Lovelace: amount}
}

// WithAsset returns a copy of v holding qty of policy.name in addition.
func (v Value) WithAsset(policy PolicyID, name string, qty uint64) Value {
	out := Value{Lovelace: v.Lovelace, Assets: make(map[PolicyID]map[string]uint64, len(v.Assets)+1)}
	for p, names := range v.Assets {
		inner := make(map[string]uint64, len(names))
		for n, q := range names {
			inner[n] = q
		}
		out.Assets[p] = inner
	}
	if out.Assets[policy] == nil {
		out.Assets[policy] = make(map[string]uint64)
	}
	out.Assets[policy][name] += qty
	return out
}

// HasPositive reports whether any asset under policy has a positive quantity.
func (v Value) HasPositive(policy PolicyID) bool {
	for _, qty := range v.Assets[policy] {
		if qty > 0 {
			return true
		}
	}
	return false
}

// Policies lists the policies held, sorted for stable output.
func (v Value) Policies() []PolicyID {
	out := make([]PolicyID, 0, len(v.Assets))
	for p := range v.Assets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// Datum is the data attached to an output: inline CBOR or only a hash.
type Datum struct {
	Inline []byte
	Hash   []byte
}

// IsInline reports whether the datum content is carried by the output.
func (d *Datum) IsInline() bool {
	return d != nil && len(d.Inline) > 0
}

// ScriptRef is executable code attached to an output.
type ScriptRef struct {
	Language string
	CBOR     []byte
}

// Output is a resolved transaction output.
type Output struct {
	Ref     OutputRef
	Address Address
	Value   Value
	Datum   *Datum
	Script  *ScriptRef
}

// HasScript reports whether the output carries executable code.
func (o Output) HasScript() bool {
	return o.Script != nil
}

// HasDatum reports whether the output carries any datum.
func (o Output) HasDatum() bool {
	return o.Datum != nil && (len(o.Datum.Inline) > 0 || len(o.Datum.Hash) > 0)
}

// TxView is the part of a pending transaction a spending script can see.
type TxView struct {
	Outputs         []Output
	ReferenceInputs []Output
	Signatories     []KeyHash
}

// SignedBy reports whether key is among the transaction's signatories.
func (t TxView) SignedBy(key KeyHash) bool {
	for _, s := range t.Signatories {
		if s == key {
			return true
		}
	}
	return false
}

// Tip is the chain position used to anchor validity intervals.
type Tip struct {
	Slot   uint64 `json:"slot"`
	Hash   string `json:"id"`
	Height uint64 `json:"height,omitempty"`
}
