package address

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
)

const (
	paymentHex = "9493315cd92eb5d8c4304e67b7e16ae36d61d34502694657811a2c8e"
	stakeHex   = "337b62cfff6403a06a3acbc34f8c46003c69fe79a3628cefa9c47251"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		network  byte
		payment  string
		kind     ledger.CredentialKind
		stake    string
		stakeKey bool
	}{
		{
			name:    "base key/key",
			addr:    "addr1qx2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzer3n0d3vllmyqwsx5wktcd8cc3sq835lu7drv2xwl2wywfgse35a3x",
			network: Mainnet,
			payment: paymentHex,
			kind:    ledger.KeyCredential,
			stake:   stakeHex,
		},
		{
			name:    "base script/key",
			addr:    "addr1z8phkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gten0d3vllmyqwsx5wktcd8cc3sq835lu7drv2xwl2wywfgs9yc0hh",
			network: Mainnet,
			payment: "c37b1b5dc0669f1d3c61a6fddb2e8fde96be87b881c60bce8e8d542f",
			kind:    ledger.ScriptCredential,
			stake:   stakeHex,
		},
		{
			name:    "enterprise key",
			addr:    "addr1vx2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzers66hrl8",
			network: Mainnet,
			payment: paymentHex,
			kind:    ledger.KeyCredential,
		},
		{
			name:    "oracle script address",
			addr:    "addr_test1wrtcecfy7np3sduzn99ffuv8qx2sa8v977l0xql8ca7lgkgmktuc0",
			network: Testnet,
			payment: "d78ce124f4c3183782994a94f18701950e9d85f7bef303e7c77df459",
			kind:    ledger.ScriptCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := Decode(tt.addr)
			require.NoError(t, err)
			assert.Equal(t, tt.network, addr.Network)
			assert.Equal(t, tt.payment, addr.Payment.Hash.String())
			assert.Equal(t, tt.kind, addr.Payment.Kind)
			assert.Equal(t, tt.addr, addr.String())
			if tt.stake == "" {
				assert.Nil(t, addr.Stake)
			} else {
				require.NotNil(t, addr.Stake)
				assert.Equal(t, tt.stake, addr.Stake.Hash.String())
			}

			enc, err := Encode(addr)
			require.NoError(t, err)
			assert.Equal(t, tt.addr, enc)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	_, err := Decode("not an address")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	// Reward addresses carry no payment credential.
	_, err = Decode("stake1uyehkck0lajq8gr28t9uxnuvgcqrc6070x3k9r8048z8y5gh6ffgw")
	assert.ErrorIs(t, err, ErrUnsupportedAddress)

	// Checksum broken in the last character.
	_, err = Decode("addr_test1wrtcecfy7np3sduzn99ffuv8qx2sa8v977l0xql8ca7lgkgmktuc2")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = FromBytes([]byte{0x60, 0x01})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestScriptAddress(t *testing.T) {
	h, err := ledger.ParseHash28("d78ce124f4c3183782994a94f18701950e9d85f7bef303e7c77df459")
	require.NoError(t, err)
	addr := Script(h, Testnet)
	assert.Equal(t, "addr_test1wrtcecfy7np3sduzn99ffuv8qx2sa8v977l0xql8ca7lgkgmktuc0", addr.Text)
}

func TestHashes(t *testing.T) {
	// blake2b-224 of the empty string.
	assert.Equal(t, "836cc68931c2e4e3e838602eca1902591d216837bafddfe6f0c8cb07", KeyHash(nil).String())

	a := ScriptHash(PlutusV2, []byte{0x01})
	b := ScriptHash(PlutusV1, []byte{0x01})
	assert.NotEqual(t, a, b)

	raw, _ := hex.DecodeString("02" + "01")
	assert.Equal(t, KeyHash(raw), a)
}
