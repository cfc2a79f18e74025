// Package address converts Shelley-era bech32 addresses to and from the
// ledger model, and derives the blake2b-224 hashes that identify keys and
// scripts.
package address

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"

	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
)

// Network ids carried in the low nibble of the header byte.
const (
	Testnet byte = 0
	Mainnet byte = 1
)

const (
	hrpMainnet = "addr"
	hrpTestnet = "addr_test"
)

// Header types (high nibble).
const (
	typeBaseKeyKey       = 0
	typeBaseScriptKey    = 1
	typeBaseKeyScript    = 2
	typeBaseScriptScript = 3
	typePointerKey       = 4
	typePointerScript    = 5
	typeEnterpriseKey    = 6
	typeEnterpriseScript = 7
)

// Script language tags prefixed to the script bytes before hashing.
const (
	PlutusV1 byte = 1
	PlutusV2 byte = 2
	PlutusV3 byte = 3
)

var (
	ErrInvalidAddress     = errors.New("invalid address")
	ErrUnsupportedAddress = errors.New("unsupported address type")
)

// Decode parses a bech32 payment address.
//
// Pointer addresses keep their payment credential only; the pointer itself
// is dropped.
func Decode(s string) (ledger.Address, error) {
	// Base addresses exceed the 90 character limit of BIP-173.
	hrp, data5, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return ledger.Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	raw, err := bech32.ConvertBits(data5, 5, 8, false)
	if err != nil {
		return ledger.Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	addr, err := FromBytes(raw)
	if err != nil {
		return ledger.Address{}, err
	}
	if want := hrpFor(addr.Network); hrp != want {
		return ledger.Address{}, fmt.Errorf("%w: prefix %q does not match network %d", ErrInvalidAddress, hrp, addr.Network)
	}
	addr.Text = s
	return addr, nil
}

// FromBytes parses the raw header-prefixed address bytes.
func FromBytes(raw []byte) (ledger.Address, error) {
	if len(raw) == 0 {
		return ledger.Address{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	header := raw[0]
	kind := header >> 4
	addr := ledger.Address{Network: header & 0x0f}
	body := raw[1:]

	cred := func(b []byte, script bool) ledger.Credential {
		c := ledger.Credential{Kind: ledger.KeyCredential}
		if script {
			c.Kind = ledger.ScriptCredential
		}
		copy(c.Hash[:], b)
		return c
	}

	switch kind {
	case typeBaseKeyKey, typeBaseScriptKey, typeBaseKeyScript, typeBaseScriptScript:
		if len(body) != 2*ledger.HashSize {
			return ledger.Address{}, fmt.Errorf("%w: base address body is %d bytes", ErrInvalidAddress, len(body))
		}
		addr.Payment = cred(body[:ledger.HashSize], kind&1 == 1)
		stake := cred(body[ledger.HashSize:], kind&2 == 2)
		addr.Stake = &stake
	case typePointerKey, typePointerScript:
		if len(body) <= ledger.HashSize {
			return ledger.Address{}, fmt.Errorf("%w: pointer address body is %d bytes", ErrInvalidAddress, len(body))
		}
		addr.Payment = cred(body[:ledger.HashSize], kind == typePointerScript)
	case typeEnterpriseKey, typeEnterpriseScript:
		if len(body) != ledger.HashSize {
			return ledger.Address{}, fmt.Errorf("%w: enterprise address body is %d bytes", ErrInvalidAddress, len(body))
		}
		addr.Payment = cred(body, kind == typeEnterpriseScript)
	default:
		return ledger.Address{}, fmt.Errorf("%w: header type %d", ErrUnsupportedAddress, kind)
	}
	return addr, nil
}

// Bytes serialises addr. Only base and enterprise forms are produced.
func Bytes(addr ledger.Address) []byte {
	var kind byte
	if addr.Stake == nil {
		kind = typeEnterpriseKey
		if addr.Payment.Kind == ledger.ScriptCredential {
			kind = typeEnterpriseScript
		}
		out := make([]byte, 0, 1+ledger.HashSize)
		out = append(out, kind<<4|addr.Network&0x0f)
		return append(out, addr.Payment.Hash[:]...)
	}
	if addr.Payment.Kind == ledger.ScriptCredential {
		kind |= 1
	}
	if addr.Stake.Kind == ledger.ScriptCredential {
		kind |= 2
	}
	out := make([]byte, 0, 1+2*ledger.HashSize)
	out = append(out, kind<<4|addr.Network&0x0f)
	out = append(out, addr.Payment.Hash[:]...)
	return append(out, addr.Stake.Hash[:]...)
}

// Encode renders addr in bech32, ignoring addr.Text.
func Encode(addr ledger.Address) (string, error) {
	data5, err := bech32.ConvertBits(Bytes(addr), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return bech32.Encode(hrpFor(addr.Network), data5)
}

// Script returns the enterprise address of a script hash.
func Script(hash ledger.Hash28, network byte) ledger.Address {
	addr := ledger.Address{
		Network: network,
		Payment: ledger.Credential{Kind: ledger.ScriptCredential, Hash: hash},
	}
	if s, err := Encode(addr); err == nil {
		addr.Text = s
	}
	return addr
}

// KeyHash hashes a verification key.
func KeyHash(vkey []byte) ledger.KeyHash {
	return hash224(vkey)
}

// ScriptHash hashes a serialised script under its language tag.
func ScriptHash(language byte, script []byte) ledger.Hash28 {
	buf := make([]byte, 0, len(script)+1)
	buf = append(buf, language)
	return hash224(append(buf, script...))
}

func hash224(b []byte) ledger.Hash28 {
	h, err := blake2b.New(ledger.HashSize, nil)
	if err != nil {
		panic(err)
	}
	h.Write(b)
	var out ledger.Hash28
	copy(out[:], h.Sum(nil))
	return out
}

func hrpFor(network byte) string {
	if network == Mainnet {
		return hrpMainnet
	}
	return hrpTestnet
}
