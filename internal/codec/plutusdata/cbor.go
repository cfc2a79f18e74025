package plutusdata

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ugorji/go/codec"
)

// CBOR tags used by the ledger for constructor applications and bignums.
const (
	tagPositiveBignum = 2
	tagNegativeBignum = 3
	tagConstrGeneral  = 102
	tagConstrSmall    = 121  // alternatives 0..6
	tagConstrSmallMax = 127
	tagConstrLarge    = 1280 // alternatives 7..127
	tagConstrLargeMax = 1400

	// maxDepth bounds recursion on adversarial input.
	maxDepth = 64
)

// ErrInvalidData is returned for CBOR that is not well-formed script data.
var ErrInvalidData = errors.New("invalid plutus data")

var cborHandle = newHandle()

func newHandle() *codec.CborHandle {
	h := new(codec.CborHandle)
	h.SignedInteger = false
	h.RawToString = false
	return h
}

// CBOR major types.
const (
	majorArray = 4
	majorMap   = 5
	majorTag   = 6
)

// rawItems receives a CBOR array one undecoded item at a time.
type rawItems []codec.Raw

// rawPairs receives a CBOR map as alternating undecoded keys and values,
// keeping every entry in stream order.
type rawPairs []codec.Raw

func (rawPairs) MapBySlice() {}

// Decode parses CBOR-encoded script data. Map entries keep their stream
// order and repeated keys are all kept.
func Decode(raw []byte) (Data, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidData)
	}
	return decodeItem(raw, 0)
}

// Encode serialises d as CBOR using the ledger's tag conventions.
func Encode(d Data) ([]byte, error) {
	native, err := toNative(d, 0)
	if err != nil {
		return nil, err
	}
	var out []byte
	enc := codec.NewEncoderBytes(&out, cborHandle)
	if err := enc.Encode(native); err != nil {
		return nil, fmt.Errorf("encode plutus data: %w", err)
	}
	return out, nil
}

// decodeRaw decodes exactly one CBOR item from raw into v.
func decodeRaw(raw []byte, v interface{}) error {
	dec := codec.NewDecoderBytes(raw, cborHandle)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if n := dec.NumBytesRead(); n != len(raw) {
		return fmt.Errorf("%w: %d trailing bytes", ErrInvalidData, len(raw)-n)
	}
	return nil
}

func decodeItem(raw []byte, depth int) (Data, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrInvalidData, maxDepth)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty item", ErrInvalidData)
	}
	switch raw[0] >> 5 {
	case majorArray:
		items, err := decodeList(raw, depth)
		if err != nil {
			return nil, err
		}
		return List{Items: items}, nil
	case majorMap:
		var entries rawPairs
		if err := decodeRaw(raw, &entries); err != nil {
			return nil, err
		}
		pairs := make([]Pair, 0, len(entries)/2)
		for i := 0; i+1 < len(entries); i += 2 {
			k, err := decodeItem(entries[i], depth+1)
			if err != nil {
				return nil, err
			}
			v, err := decodeItem(entries[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, Pair{Key: k, Value: v})
		}
		return Map{Pairs: pairs}, nil
	case majorTag:
		tag, content, err := splitTag(raw)
		if err != nil {
			return nil, err
		}
		return fromTagged(tag, content, depth)
	default:
		var v interface{}
		if err := decodeRaw(raw, &v); err != nil {
			return nil, err
		}
		return fromScalar(v)
	}
}

func decodeList(raw []byte, depth int) ([]Data, error) {
	if len(raw) == 0 || raw[0]>>5 != majorArray {
		return nil, fmt.Errorf("%w: expected an array", ErrInvalidData)
	}
	var items rawItems
	if err := decodeRaw(raw, &items); err != nil {
		return nil, err
	}
	out := make([]Data, 0, len(items))
	for _, item := range items {
		d, err := decodeItem(item, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// splitTag reads a tag header and returns the tag number and the bytes of
// the tagged item.
func splitTag(raw []byte) (uint64, []byte, error) {
	info := raw[0] & 0x1f
	var size int
	switch {
	case info < 24:
		return uint64(info), raw[1:], nil
	case info == 24:
		size = 1
	case info == 25:
		size = 2
	case info == 26:
		size = 4
	case info == 27:
		size = 8
	default:
		return 0, nil, fmt.Errorf("%w: malformed tag header 0x%02x", ErrInvalidData, raw[0])
	}
	if len(raw) < 1+size {
		return 0, nil, fmt.Errorf("%w: truncated tag header", ErrInvalidData)
	}
	var tag uint64
	for _, b := range raw[1 : 1+size] {
		tag = tag<<8 | uint64(b)
	}
	return tag, raw[1+size:], nil
}

func fromScalar(v interface{}) (Data, error) {
	switch x := v.(type) {
	case uint64:
		return NewUint(x), nil
	case int64:
		return NewInt(x), nil
	case []byte:
		return Bytes(append([]byte{}, x...)), nil
	case string:
		return Bytes(x), nil
	case nil:
		return nil, fmt.Errorf("%w: null is not script data", ErrInvalidData)
	default:
		return nil, fmt.Errorf("%w: unsupported CBOR item %T", ErrInvalidData, v)
	}
}

func fromTagged(tag uint64, content []byte, depth int) (Data, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: tag %d without content", ErrInvalidData, tag)
	}
	switch {
	case tag == tagPositiveBignum || tag == tagNegativeBignum:
		var b []byte
		if content[0]>>5 != 2 {
			return nil, fmt.Errorf("%w: bignum tag %d without byte payload", ErrInvalidData, tag)
		}
		if err := decodeRaw(content, &b); err != nil {
			return nil, err
		}
		n := new(big.Int).SetBytes(b)
		if tag == tagNegativeBignum {
			n.Neg(n).Sub(n, big.NewInt(1))
		}
		return Int{Value: n}, nil
	case tag >= tagConstrSmall && tag <= tagConstrSmallMax:
		return constrFields(tag-tagConstrSmall, content, depth)
	case tag >= tagConstrLarge && tag <= tagConstrLargeMax:
		return constrFields(tag-tagConstrLarge+7, content, depth)
	case tag == tagConstrGeneral:
		var parts rawItems
		if content[0]>>5 != majorArray {
			return nil, fmt.Errorf("%w: general constructor needs [alternative, fields]", ErrInvalidData)
		}
		if err := decodeRaw(content, &parts); err != nil {
			return nil, err
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: general constructor needs [alternative, fields]", ErrInvalidData)
		}
		alt, err := decodeItem(parts[0], depth+1)
		if err != nil {
			return nil, err
		}
		n, ok := alt.(Int)
		if !ok || n.Value.Sign() < 0 || !n.Value.IsUint64() {
			return nil, fmt.Errorf("%w: general constructor alternative is %s", ErrInvalidData, Kind(alt))
		}
		return constrFields(n.Value.Uint64(), parts[1], depth)
	default:
		return nil, fmt.Errorf("%w: unexpected CBOR tag %d", ErrInvalidData, tag)
	}
}

func constrFields(alt uint64, content []byte, depth int) (Data, error) {
	fields, err := decodeList(content, depth)
	if err != nil {
		return nil, fmt.Errorf("constructor %d fields: %w", alt, err)
	}
	return Constr{Alternative: alt, Fields: fields}, nil
}

// pairSlice is encoded by the codec as a CBOR map of alternating keys and
// values, which keeps entry order and allows byte-string keys.
type pairSlice []interface{}

func (pairSlice) MapBySlice() {}

func toNative(d Data, depth int) (interface{}, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrInvalidData, maxDepth)
	}
	switch x := d.(type) {
	case Constr:
		fields := make([]interface{}, 0, len(x.Fields))
		for _, f := range x.Fields {
			n, err := toNative(f, depth+1)
			if err != nil {
				return nil, err
			}
			fields = append(fields, n)
		}
		switch {
		case x.Alternative <= 6:
			return &codec.RawExt{Tag: tagConstrSmall + x.Alternative, Value: fields}, nil
		case x.Alternative <= 127:
			return &codec.RawExt{Tag: tagConstrLarge + x.Alternative - 7, Value: fields}, nil
		default:
			return &codec.RawExt{Tag: tagConstrGeneral, Value: []interface{}{x.Alternative, fields}}, nil
		}
	case Map:
		out := make(pairSlice, 0, 2*len(x.Pairs))
		for _, p := range x.Pairs {
			k, err := toNative(p.Key, depth+1)
			if err != nil {
				return nil, err
			}
			v, err := toNative(p.Value, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, k, v)
		}
		return out, nil
	case List:
		items := make([]interface{}, 0, len(x.Items))
		for _, item := range x.Items {
			n, err := toNative(item, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, n)
		}
		return items, nil
	case Int:
		if x.Value == nil {
			return nil, fmt.Errorf("%w: nil integer", ErrInvalidData)
		}
		switch {
		case x.Value.IsInt64():
			return x.Value.Int64(), nil
		case x.Value.Sign() > 0 && x.Value.IsUint64():
			return x.Value.Uint64(), nil
		case x.Value.Sign() > 0:
			return &codec.RawExt{Tag: tagPositiveBignum, Value: x.Value.Bytes()}, nil
		default:
			n := new(big.Int).Neg(x.Value)
			n.Sub(n, big.NewInt(1))
			return &codec.RawExt{Tag: tagNegativeBignum, Value: n.Bytes()}, nil
		}
	case Bytes:
		return append([]byte{}, x...), nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %s", ErrInvalidData, Kind(d))
	}
}
