package feed

import (
	"errors"
	"fmt"
	"strings"

	"github.com/LeJamon/goFeedEscrow/internal/codec/plutusdata"
	"github.com/LeJamon/goFeedEscrow/internal/core/scaled"
)

// ErrMalformedObservation is returned for any structural problem in a feed
// datum. The wrapped message names the offending field.
var ErrMalformedObservation = errors.New("malformed observation")

func malformed(field string, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedObservation, field, fmt.Sprintf(format, args...))
}

// Decode parses a CBOR feed datum.
func Decode(raw []byte) (*Observation, error) {
	d, err := plutusdata.Decode(raw)
	if err != nil {
		return nil, malformed("datum", "%v", err)
	}
	return DecodeData(d)
}

// DecodeData parses an already decoded feed datum:
//
//	Constr0[ {property map}, identifier, Constr1[expiry], signature ]
//
// The property map is read by key, so publisher key order does not matter.
func DecodeData(d plutusdata.Data) (*Observation, error) {
	top, err := plutusdata.AsConstr(d, 0, DatumFields)
	if err != nil {
		return nil, malformed("datum", "%v", err)
	}

	props, err := plutusdata.AsMap(top.Fields[0])
	if err != nil {
		return nil, malformed("properties", "%v", err)
	}

	obs := &Observation{}

	if obs.Identifier, err = plutusdata.AsBytes(top.Fields[1]); err != nil {
		return nil, malformed("identifier", "%v", err)
	}

	expiry, err := plutusdata.AsConstr(top.Fields[2], ExpiryConstr, 1)
	if err != nil {
		return nil, malformed("expiry", "%v", err)
	}
	if obs.Expiry, err = timestamp(expiry.Fields[0]); err != nil {
		return nil, malformed("expiry", "%v", err)
	}

	if obs.Signature, err = plutusdata.AsBytes(top.Fields[3]); err != nil {
		return nil, malformed("signature", "%v", err)
	}

	if err := decodeProperties(props, obs); err != nil {
		return nil, err
	}
	return obs, nil
}

func decodeProperties(props plutusdata.Map, obs *Observation) error {
	get := func(key string, required bool) (plutusdata.Data, error) {
		v, n := props.Lookup(key)
		if n > 1 {
			return nil, malformed(key, "key appears %d times", n)
		}
		if n == 0 && required {
			return nil, malformed(key, "missing")
		}
		return v, nil
	}

	if v, err := get(KeyContext, false); err != nil {
		return err
	} else if v != nil {
		if obs.Context, err = text(v); err != nil {
			return malformed(KeyContext, "%v", err)
		}
	}

	if v, err := get(KeyType, false); err != nil {
		return err
	} else if v != nil {
		if obs.Type, err = text(v); err != nil {
			return malformed(KeyType, "%v", err)
		}
	}

	name, err := get(KeyName, true)
	if err != nil {
		return err
	}
	if obs.PairLabels, err = splitName(name); err != nil {
		return err
	}

	values, err := get(KeyValue, true)
	if err != nil {
		return err
	}
	if obs.Values, err = decodeValues(values); err != nil {
		return err
	}

	refs, err := get(KeyValueReference, true)
	if err != nil {
		return err
	}
	if obs.ValidFrom, obs.ValidThrough, err = decodeValueReference(refs); err != nil {
		return err
	}

	ident, err := get(KeyIdentifier, true)
	if err != nil {
		return err
	}
	if obs.FeedID, err = decodeFeedID(ident); err != nil {
		return err
	}

	sig, err := get(KeyContentSignature, true)
	if err != nil {
		return err
	}
	if obs.ContentSignature, err = plutusdata.AsBytes(sig); err != nil {
		return malformed(KeyContentSignature, "%v", err)
	}

	return nil
}

func splitName(d plutusdata.Data) ([2]string, error) {
	var labels [2]string
	name, err := text(d)
	if err != nil {
		return labels, malformed(KeyName, "%v", err)
	}
	parts := strings.Split(name, PairSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return labels, malformed(KeyName, "%q does not split into two labels on %q", name, PairSeparator)
	}
	labels[0], labels[1] = parts[0], parts[1]
	return labels, nil
}

func decodeValues(d plutusdata.Data) ([2]scaled.Decimal, error) {
	var out [2]scaled.Decimal
	items, err := plutusdata.AsList(d)
	if err != nil {
		return out, malformed(KeyValue, "%v", err)
	}
	if len(items) != 2 {
		return out, malformed(KeyValue, "expected 2 numeric pairs, got %d", len(items))
	}
	for i, item := range items {
		pair, err := plutusdata.AsConstr(item, ValuePairConstr, 2)
		if err != nil {
			return out, malformed(fmt.Sprintf("%s[%d]", KeyValue, i), "%v", err)
		}
		sig, err := plutusdata.AsInt(pair.Fields[0])
		if err != nil {
			return out, malformed(fmt.Sprintf("%s[%d].significand", KeyValue, i), "%v", err)
		}
		exp, err := plutusdata.AsInt(pair.Fields[1])
		if err != nil {
			return out, malformed(fmt.Sprintf("%s[%d].exponent", KeyValue, i), "%v", err)
		}
		if out[i], err = scaled.Decode(sig, exp); err != nil {
			return out, malformed(fmt.Sprintf("%s[%d]", KeyValue, i), "%v", err)
		}
	}
	return out, nil
}

// decodeValueReference reads the two {name, value} entries by name.
func decodeValueReference(d plutusdata.Data) (validFrom, validThrough int64, err error) {
	items, err := plutusdata.AsList(d)
	if err != nil {
		return 0, 0, malformed(KeyValueReference, "%v", err)
	}
	if len(items) != 2 {
		return 0, 0, malformed(KeyValueReference, "expected 2 entries, got %d", len(items))
	}
	seen := map[string]int64{}
	for i, item := range items {
		field := fmt.Sprintf("%s[%d]", KeyValueReference, i)
		m, err := plutusdata.AsMap(item)
		if err != nil {
			return 0, 0, malformed(field, "%v", err)
		}
		nameData, n := m.Lookup(KeyName)
		if n != 1 {
			return 0, 0, malformed(field, "expected one name, got %d", n)
		}
		name, err := text(nameData)
		if err != nil {
			return 0, 0, malformed(field, "%v", err)
		}
		valueData, n := m.Lookup(KeyValue)
		if n != 1 {
			return 0, 0, malformed(field, "expected one value, got %d", n)
		}
		ts, err := timestamp(valueData)
		if err != nil {
			return 0, 0, malformed(field, "%v", err)
		}
		if _, dup := seen[name]; dup {
			return 0, 0, malformed(field, "duplicate %q", name)
		}
		seen[name] = ts
	}
	from, okFrom := seen[refValidFrom]
	through, okThrough := seen[refValidThrough]
	if !okFrom || !okThrough {
		return 0, 0, malformed(KeyValueReference, "need %s and %s", refValidFrom, refValidThrough)
	}
	return from, through, nil
}

// decodeFeedID accepts either the structured identifier property or a bare
// byte string.
func decodeFeedID(d plutusdata.Data) (FeedID, error) {
	if b, ok := d.(plutusdata.Bytes); ok {
		return FeedID{Value: string(b)}, nil
	}
	m, err := plutusdata.AsMap(d)
	if err != nil {
		return FeedID{}, malformed(KeyIdentifier, "%v", err)
	}
	var id FeedID
	for key, dst := range map[string]*string{"propertyID": &id.PropertyID, "type": &id.Type, "value": &id.Value} {
		v, n := m.Lookup(key)
		if n > 1 {
			return FeedID{}, malformed(KeyIdentifier, "key %q appears %d times", key, n)
		}
		if n == 0 {
			continue
		}
		s, err := text(v)
		if err != nil {
			return FeedID{}, malformed(KeyIdentifier+"."+key, "%v", err)
		}
		*dst = s
	}
	if id.Value == "" {
		return FeedID{}, malformed(KeyIdentifier, "missing value")
	}
	return id, nil
}

func text(d plutusdata.Data) (string, error) {
	b, err := plutusdata.AsBytes(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func timestamp(d plutusdata.Data) (int64, error) {
	v, err := plutusdata.AsInt(d)
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 || !v.IsInt64() {
		return 0, fmt.Errorf("timestamp %s out of range", v)
	}
	return v.Int64(), nil
}
