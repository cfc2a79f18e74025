package feed

import (
	"encoding/hex"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goFeedEscrow/internal/codec/plutusdata"
	"github.com/LeJamon/goFeedEscrow/internal/core/scaled"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	h, err := os.ReadFile("testdata/ada_usd_v0.hex")
	require.NoError(t, err)
	raw, err := hex.DecodeString(strings.TrimSpace(string(h)))
	require.NoError(t, err)
	return raw
}

func TestDecodePublishedDatum(t *testing.T) {
	obs, err := Decode(loadFixture(t))
	require.NoError(t, err)

	assert.Equal(t, "https://schema.org", obs.Context)
	assert.Equal(t, "PropertyValue", obs.Type)
	assert.Equal(t, [2]string{"ADA-USD", "USD-ADA"}, obs.PairLabels)
	assert.Equal(t, DefaultFeedName, obs.Name())

	assert.Equal(t, scaled.Decimal{Significand: 24475, Exponent: -5}, obs.Values[0])
	assert.Equal(t, scaled.Decimal{Significand: 4085801838610827, Exponent: -15}, obs.Values[1])
	assert.Equal(t, "0.24475", obs.Values[0].String())

	assert.Equal(t, int64(0x18abc2d9e85), obs.ValidFrom)
	assert.Equal(t, int64(0x18abc648d05), obs.ValidThrough)
	assert.Equal(t, int64(0x18abc648d05), obs.Expiry)

	assert.Equal(t, "Arkly Identifier", obs.FeedID.PropertyID)
	assert.Equal(t, "urn:orcfax:d72786af-d8fa-4488-8f53-d4578b2f6f23", obs.FeedID.Value)
	assert.Equal(t, "04CA0001HAY2VBEC6PP7P1DSEA2V2VHY", string(obs.Identifier))
	assert.Len(t, obs.Signature, 28)
	assert.Len(t, obs.ContentSignature, 64)
	assert.False(t, obs.AuthPolicyPresent)

	price, ok := obs.Price("usd-ada")
	require.True(t, ok)
	assert.Equal(t, obs.Values[1], price)
	_, ok = obs.Price("BTC-USD")
	assert.False(t, ok)
}

func TestEncodeRoundTrip(t *testing.T) {
	obs, err := Decode(loadFixture(t))
	require.NoError(t, err)

	raw, err := obs.Encode()
	require.NoError(t, err)

	again, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, obs, again)
}

func TestKeyOrderDoesNotMatter(t *testing.T) {
	obs, err := Decode(loadFixture(t))
	require.NoError(t, err)

	d, err := obs.ToData()
	require.NoError(t, err)
	top := d.(plutusdata.Constr)
	props := top.Fields[0].(plutusdata.Map)

	reversed := plutusdata.Map{}
	for i := len(props.Pairs) - 1; i >= 0; i-- {
		reversed.Pairs = append(reversed.Pairs, props.Pairs[i])
	}
	shuffled := plutusdata.NewConstr(0, reversed, top.Fields[1], top.Fields[2], top.Fields[3])

	fromShuffled, err := DecodeData(shuffled)
	require.NoError(t, err)
	assert.Equal(t, obs, fromShuffled)

	raw, err := plutusdata.Encode(shuffled)
	require.NoError(t, err)
	fromBytes, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, obs, fromBytes)

	c1, err := Canonical(shuffled)
	require.NoError(t, err)
	c2, err := Canonical(d)
	require.NoError(t, err)
	assert.Equal(t, c2, c1)
	assert.Equal(t, d, c1)

	c3, err := Canonical(c1)
	require.NoError(t, err)
	assert.Equal(t, c1, c3)
}

func TestCanonicalKeyOrder(t *testing.T) {
	d, err := plutusdata.Decode(loadFixture(t))
	require.NoError(t, err)

	c, err := Canonical(d)
	require.NoError(t, err)

	props := c.(plutusdata.Constr).Fields[0].(plutusdata.Map)
	var keys []string
	for _, p := range props.Pairs {
		keys = append(keys, string(p.Key.(plutusdata.Bytes)))
	}
	assert.Equal(t, CanonicalKeys, keys)
}

// mutate decodes the fixture, lets fn edit the property map and returns the
// rebuilt datum.
func mutate(t *testing.T, fn func(m *plutusdata.Map, top *plutusdata.Constr)) plutusdata.Data {
	t.Helper()
	obs, err := Decode(loadFixture(t))
	require.NoError(t, err)
	d, err := obs.ToData()
	require.NoError(t, err)
	top := d.(plutusdata.Constr)
	m := top.Fields[0].(plutusdata.Map)
	fn(&m, &top)
	top.Fields[0] = m
	return top
}

func set(m *plutusdata.Map, key string, v plutusdata.Data) {
	for i, p := range m.Pairs {
		if string(p.Key.(plutusdata.Bytes)) == key {
			m.Pairs[i].Value = v
		}
	}
}

func drop(m *plutusdata.Map, key string) {
	out := m.Pairs[:0]
	for _, p := range m.Pairs {
		if string(p.Key.(plutusdata.Bytes)) != key {
			out = append(out, p)
		}
	}
	m.Pairs = out
}

func TestDecodeMalformed(t *testing.T) {
	pair := plutusdata.NewConstr(ValuePairConstr, plutusdata.NewInt(1), plutusdata.NewUint(^uint64(0)))

	tests := []struct {
		name string
		data plutusdata.Data
	}{
		{"not a constructor", plutusdata.NewList()},
		{"three outer fields", mutate(t, func(_ *plutusdata.Map, top *plutusdata.Constr) {
			top.Fields = top.Fields[:3]
		})},
		{"name without separator", mutate(t, func(m *plutusdata.Map, _ *plutusdata.Constr) {
			set(m, KeyName, plutusdata.Bytes("ADA-USD"))
		})},
		{"name with three labels", mutate(t, func(m *plutusdata.Map, _ *plutusdata.Constr) {
			set(m, KeyName, plutusdata.Bytes("A|B|C"))
		})},
		{"empty label", mutate(t, func(m *plutusdata.Map, _ *plutusdata.Constr) {
			set(m, KeyName, plutusdata.Bytes("ADA-USD|"))
		})},
		{"one value", mutate(t, func(m *plutusdata.Map, _ *plutusdata.Constr) {
			set(m, KeyValue, plutusdata.NewList(pair))
		})},
		{"three values", mutate(t, func(m *plutusdata.Map, _ *plutusdata.Constr) {
			set(m, KeyValue, plutusdata.NewList(pair, pair, pair))
		})},
		{"value pair wrong constructor", mutate(t, func(m *plutusdata.Map, _ *plutusdata.Constr) {
			set(m, KeyValue, plutusdata.NewList(pair, plutusdata.NewConstr(0, plutusdata.NewInt(1), plutusdata.NewInt(1))))
		})},
		{"exponent below bias range", mutate(t, func(m *plutusdata.Map, _ *plutusdata.Constr) {
			set(m, KeyValue, plutusdata.NewList(pair, plutusdata.NewConstr(ValuePairConstr, plutusdata.NewInt(1), plutusdata.NewInt(5))))
		})},
		{"missing valueReference", mutate(t, func(m *plutusdata.Map, _ *plutusdata.Constr) {
			drop(m, KeyValueReference)
		})},
		{"missing content signature", mutate(t, func(m *plutusdata.Map, _ *plutusdata.Constr) {
			drop(m, KeyContentSignature)
		})},
		{"duplicate name", mutate(t, func(m *plutusdata.Map, _ *plutusdata.Constr) {
			m.Pairs = append(m.Pairs, plutusdata.Pair{Key: plutusdata.Bytes(KeyName), Value: plutusdata.Bytes("X|Y")})
		})},
		{"valueReference without validThrough", mutate(t, func(m *plutusdata.Map, _ *plutusdata.Constr) {
			set(m, KeyValueReference, plutusdata.NewList(reference(refValidFrom, 1), reference(refValidFrom, 2)))
		})},
		{"expiry wrong constructor", mutate(t, func(_ *plutusdata.Map, top *plutusdata.Constr) {
			top.Fields[2] = plutusdata.NewConstr(0, plutusdata.NewInt(1))
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeData(tt.data)
			assert.ErrorIs(t, err, ErrMalformedObservation)
		})
	}
}

func TestDecodeRejectsRepeatedNameInCBOR(t *testing.T) {
	obs, err := Decode(loadFixture(t))
	require.NoError(t, err)
	d, err := obs.ToData()
	require.NoError(t, err)

	top := d.(plutusdata.Constr)
	props := top.Fields[0].(plutusdata.Map)
	props.Pairs = append(props.Pairs, plutusdata.Pair{Key: plutusdata.Bytes(KeyName), Value: plutusdata.Bytes("BTC-USD|USD-BTC")})
	top.Fields[0] = props

	raw, err := plutusdata.Encode(top)
	require.NoError(t, err)
	_, err = Decode(raw)
	assert.ErrorIs(t, err, ErrMalformedObservation)

	_, err = Canonical(top)
	assert.ErrorIs(t, err, ErrMalformedObservation)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrMalformedObservation)
	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrMalformedObservation)
}

func TestValueReferenceOrderIndependent(t *testing.T) {
	d := mutate(t, func(m *plutusdata.Map, _ *plutusdata.Constr) {
		set(m, KeyValueReference, plutusdata.NewList(reference(refValidThrough, 20), reference(refValidFrom, 10)))
	})
	obs, err := DecodeData(d)
	require.NoError(t, err)
	assert.Equal(t, int64(10), obs.ValidFrom)
	assert.Equal(t, int64(20), obs.ValidThrough)
}
