package plutusdata

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDecodeKnownEncodings(t *testing.T) {
	tests := []struct {
		name string
		hex  string
		want Data
	}{
		{
			name: "empty constructor 0",
			hex:  "d87980",
			want: NewConstr(0),
		},
		{
			name: "indefinite constructor 1 with int",
			hex:  "d87a9f1b0000018abc648d05ff",
			want: NewConstr(1, NewUint(0x18abc648d05)),
		},
		{
			name: "value pair with biased exponent",
			hex:  "d87c9f195f9b1bfffffffffffffffbff",
			want: NewConstr(3, NewUint(24475), NewUint(0xfffffffffffffffb)),
		},
		{
			name: "negative integer",
			hex:  "29",
			want: NewInt(-10),
		},
		{
			name: "byte string",
			hex:  "43010203",
			want: Bytes{1, 2, 3},
		},
		{
			name: "large alternative",
			hex:  "d905009f01ff",
			want: NewConstr(7, NewUint(1)),
		},
		{
			name: "general constructor",
			hex:  "d86682190100 80",
			want: NewConstr(256),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := mustHex(t, stripSpaces(tt.hex))
			got, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecodeNested(t *testing.T) {
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	negHuge := new(big.Int).Neg(huge)

	orig := NewConstr(0,
		Map{Pairs: []Pair{
			{Key: Bytes("name"), Value: Bytes("ADA-USD|USD-ADA")},
			{Key: Bytes("value"), Value: NewList(
				NewConstr(3, NewUint(24475), NewUint(0xfffffffffffffffb)),
			)},
		}},
		Int{Value: huge},
		Int{Value: negHuge},
		NewConstr(9),
		NewConstr(300, Bytes{}),
	)

	raw, err := Encode(orig)
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, orig, got)
}

func TestMapLookup(t *testing.T) {
	m := Map{Pairs: []Pair{
		{Key: Bytes("a"), Value: NewInt(1)},
		{Key: Bytes("b"), Value: NewInt(2)},
		{Key: Bytes("a"), Value: NewInt(3)},
	}}

	v, n := m.Lookup("b")
	assert.Equal(t, 1, n)
	assert.Equal(t, NewInt(2), v)

	v, n = m.Lookup("a")
	assert.Equal(t, 2, n)
	assert.Equal(t, NewInt(1), v)

	_, n = m.Lookup("missing")
	assert.Zero(t, n)
}

func TestDecodeKeepsMapEntries(t *testing.T) {
	tests := []struct {
		name string
		hex  string
		want Data
	}{
		{
			name: "repeated key",
			hex:  "a2416101416102",
			want: Map{Pairs: []Pair{
				{Key: Bytes("a"), Value: NewUint(1)},
				{Key: Bytes("a"), Value: NewUint(2)},
			}},
		},
		{
			name: "stream order",
			hex:  "a2416202416101",
			want: Map{Pairs: []Pair{
				{Key: Bytes("b"), Value: NewUint(2)},
				{Key: Bytes("a"), Value: NewUint(1)},
			}},
		},
		{
			name: "list key",
			hex:  "a18001",
			want: Map{Pairs: []Pair{{Key: NewList(), Value: NewUint(1)}}},
		},
		{
			name: "constructor key",
			hex:  "a1d8798001",
			want: Map{Pairs: []Pair{{Key: NewConstr(0), Value: NewUint(1)}}},
		},
		{
			name: "indefinite map",
			hex:  "bf416101416102ff",
			want: Map{Pairs: []Pair{
				{Key: Bytes("a"), Value: NewUint(1)},
				{Key: Bytes("a"), Value: NewUint(2)},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(mustHex(t, tt.hex))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			m := got.(Map)
			raw, err := Encode(m)
			require.NoError(t, err)
			again, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, h := range []string{"", "f6", "d8ff80", "fb3ff0000000000000", "d87980ff", "d87aa0", "c243010203" + "00"} {
		_, err := Decode(mustHex(t, h))
		assert.ErrorIs(t, err, ErrInvalidData, "input %q", h)
	}
}

func TestAssertions(t *testing.T) {
	c := NewConstr(1, NewInt(5))

	_, err := AsConstr(c, 0, 1)
	assert.Error(t, err)
	_, err = AsConstr(c, 1, 2)
	assert.Error(t, err)
	got, err := AsConstr(c, 1, 1)
	require.NoError(t, err)
	assert.Len(t, got.Fields, 1)

	_, err = AsBytes(NewInt(1))
	assert.Error(t, err)
	_, err = AsInt(Bytes("x"))
	assert.Error(t, err)
	_, err = AsList(NewInt(1))
	assert.Error(t, err)
	_, err = AsMap(NewList())
	assert.Error(t, err)
	assert.Equal(t, "nothing", Kind(nil))
}

func stripSpaces(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
