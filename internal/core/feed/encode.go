package feed

import (
	"fmt"

	"github.com/LeJamon/goFeedEscrow/internal/codec/plutusdata"
)

const propertyValueType = "PropertyValue"

// ToData rebuilds the datum for o with the property map in canonical order.
func (o *Observation) ToData() (plutusdata.Data, error) {
	values := make([]plutusdata.Data, 0, len(o.Values))
	for i, v := range o.Values {
		sig, exp, err := v.Encode()
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		values = append(values, plutusdata.NewConstr(ValuePairConstr, plutusdata.NewInt(sig), plutusdata.NewUint(exp)))
	}

	props := map[string]plutusdata.Data{
		KeyName:             text2data(o.Name()),
		KeyValue:            plutusdata.NewList(values...),
		KeyValueReference:   plutusdata.NewList(reference(refValidFrom, o.ValidFrom), reference(refValidThrough, o.ValidThrough)),
		KeyIdentifier:       o.FeedID.toData(),
		KeyContentSignature: plutusdata.Bytes(o.ContentSignature),
	}
	if o.Context != "" {
		props[KeyContext] = text2data(o.Context)
	}
	if o.Type != "" {
		props[KeyType] = text2data(o.Type)
	}

	m := plutusdata.Map{}
	for _, k := range CanonicalKeys {
		if v, ok := props[k]; ok {
			m.Pairs = append(m.Pairs, plutusdata.Pair{Key: text2data(k), Value: v})
		}
	}

	return plutusdata.NewConstr(0,
		m,
		plutusdata.Bytes(o.Identifier),
		plutusdata.NewConstr(ExpiryConstr, plutusdata.NewInt(o.Expiry)),
		plutusdata.Bytes(o.Signature),
	), nil
}

// Encode serialises o as a feed datum.
func (o *Observation) Encode() ([]byte, error) {
	d, err := o.ToData()
	if err != nil {
		return nil, err
	}
	return plutusdata.Encode(d)
}

// Canonical reorders the property map of a raw feed datum into CanonicalKeys
// order, leaving every value untouched. Keys outside CanonicalKeys follow in
// their original order. The datum must have the feed's outer shape.
func Canonical(d plutusdata.Data) (plutusdata.Data, error) {
	top, err := plutusdata.AsConstr(d, 0, DatumFields)
	if err != nil {
		return nil, malformed("datum", "%v", err)
	}
	props, err := plutusdata.AsMap(top.Fields[0])
	if err != nil {
		return nil, malformed("properties", "%v", err)
	}

	rank := make(map[string]int, len(CanonicalKeys))
	for i, k := range CanonicalKeys {
		rank[k] = i
	}

	ordered := make([]plutusdata.Pair, len(CanonicalKeys))
	present := make([]bool, len(CanonicalKeys))
	var rest []plutusdata.Pair
	for _, p := range props.Pairs {
		k, ok := p.Key.(plutusdata.Bytes)
		if !ok {
			rest = append(rest, p)
			continue
		}
		i, known := rank[string(k)]
		if !known {
			rest = append(rest, p)
			continue
		}
		if present[i] {
			return nil, malformed(string(k), "key appears more than once")
		}
		ordered[i], present[i] = p, true
	}

	out := plutusdata.Map{}
	for i, p := range ordered {
		if present[i] {
			out.Pairs = append(out.Pairs, p)
		}
	}
	out.Pairs = append(out.Pairs, rest...)

	fields := make([]plutusdata.Data, len(top.Fields))
	copy(fields, top.Fields)
	fields[0] = out
	return plutusdata.NewConstr(0, fields...), nil
}

func (id FeedID) toData() plutusdata.Data {
	if id.PropertyID == "" && id.Type == "" {
		return text2data(id.Value)
	}
	return plutusdata.Map{Pairs: []plutusdata.Pair{
		{Key: text2data("propertyID"), Value: text2data(id.PropertyID)},
		{Key: text2data("type"), Value: text2data(id.Type)},
		{Key: text2data("value"), Value: text2data(id.Value)},
	}}
}

func reference(name string, ms int64) plutusdata.Data {
	return plutusdata.Map{Pairs: []plutusdata.Pair{
		{Key: text2data("@type"), Value: text2data(propertyValueType)},
		{Key: text2data(KeyName), Value: text2data(name)},
		{Key: text2data(KeyValue), Value: plutusdata.NewInt(ms)},
	}}
}

func text2data(s string) plutusdata.Bytes {
	return plutusdata.Bytes(s)
}
