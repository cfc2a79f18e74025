// Package plutusdata models the ledger's untyped script data (datums and
// redeemers) and converts it to and from CBOR.
package plutusdata

import (
	"fmt"
	"math/big"
)

// Data is one of Constr, Map, List, Int or Bytes.
type Data interface {
	isData()
}

// Constr is a tagged constructor application.
type Constr struct {
	Alternative uint64
	Fields      []Data
}

// Pair is a single map entry.
type Pair struct {
	Key   Data
	Value Data
}

// Map is an association list in stream order. Keys may repeat; Lookup
// reports how many times a key occurs.
type Map struct {
	Pairs []Pair
}

// List is an ordered sequence.
type List struct {
	Items []Data
}

// Int is an arbitrary precision integer.
type Int struct {
	Value *big.Int
}

// Bytes is a bounded byte string.
type Bytes []byte

func (Constr) isData() {}
func (Map) isData()    {}
func (List) isData()   {}
func (Int) isData()    {}
func (Bytes) isData()  {}

// NewInt wraps an int64.
func NewInt(v int64) Int {
	return Int{Value: big.NewInt(v)}
}

// NewUint wraps a uint64.
func NewUint(v uint64) Int {
	return Int{Value: new(big.Int).SetUint64(v)}
}

// NewConstr builds a constructor application.
func NewConstr(alt uint64, fields ...Data) Constr {
	if fields == nil {
		fields = []Data{}
	}
	return Constr{Alternative: alt, Fields: fields}
}

// NewList builds a list.
func NewList(items ...Data) List {
	if items == nil {
		items = []Data{}
	}
	return List{Items: items}
}

// Lookup returns the value stored under a byte-string key. The second
// return reports how many entries matched so callers can reject duplicates.
func (m Map) Lookup(key string) (Data, int) {
	var found Data
	n := 0
	for _, p := range m.Pairs {
		k, ok := p.Key.(Bytes)
		if !ok || string(k) != key {
			continue
		}
		if n == 0 {
			found = p.Value
		}
		n++
	}
	return found, n
}

// AsConstr asserts a constructor with the expected alternative and arity.
func AsConstr(d Data, alt uint64, arity int) (Constr, error) {
	c, ok := d.(Constr)
	if !ok {
		return Constr{}, fmt.Errorf("expected constructor, got %s", Kind(d))
	}
	if c.Alternative != alt {
		return Constr{}, fmt.Errorf("expected constructor %d, got %d", alt, c.Alternative)
	}
	if arity >= 0 && len(c.Fields) != arity {
		return Constr{}, fmt.Errorf("constructor %d: expected %d fields, got %d", alt, arity, len(c.Fields))
	}
	return c, nil
}

// AsBytes asserts a byte string.
func AsBytes(d Data) ([]byte, error) {
	b, ok := d.(Bytes)
	if !ok {
		return nil, fmt.Errorf("expected bytes, got %s", Kind(d))
	}
	return []byte(b), nil
}

// AsInt asserts an integer.
func AsInt(d Data) (*big.Int, error) {
	i, ok := d.(Int)
	if !ok || i.Value == nil {
		return nil, fmt.Errorf("expected integer, got %s", Kind(d))
	}
	return i.Value, nil
}

// AsList asserts a list.
func AsList(d Data) ([]Data, error) {
	l, ok := d.(List)
	if !ok {
		return nil, fmt.Errorf("expected list, got %s", Kind(d))
	}
	return l.Items, nil
}

// AsMap asserts a map.
func AsMap(d Data) (Map, error) {
	m, ok := d.(Map)
	if !ok {
		return Map{}, fmt.Errorf("expected map, got %s", Kind(d))
	}
	return m, nil
}

// Kind names the variant of d for error messages.
func Kind(d Data) string {
	switch d.(type) {
	case Constr:
		return "constr"
	case Map:
		return "map"
	case List:
		return "list"
	case Int:
		return "int"
	case Bytes:
		return "bytes"
	case nil:
		return "nothing"
	default:
		return fmt.Sprintf("%T", d)
	}
}
