package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ugorji/go/codec"

	"github.com/LeJamon/goFeedEscrow/internal/core/feed"
)

// MessageLabel is the transaction metadata label for free-form messages.
const MessageLabel uint64 = 674

// maxMetadataText is the ledger's limit on a metadata text value in bytes.
const maxMetadataText = 64

// Field is one key of a metadata map. Order is kept when encoding.
type Field struct {
	Key   string
	Value string
}

// Metadata is a single labelled map of text fields.
type Metadata struct {
	Label  uint64
	Fields []Field
}

// IsZero reports whether there is nothing to attach.
func (m Metadata) IsZero() bool {
	return len(m.Fields) == 0
}

// Validate checks the ledger's text length limit.
func (m Metadata) Validate() error {
	for _, f := range m.Fields {
		if len(f.Key) > maxMetadataText {
			return fmt.Errorf("metadata key %q longer than %d bytes", f.Key, maxMetadataText)
		}
		if len(f.Value) > maxMetadataText {
			return fmt.Errorf("metadata value for %q longer than %d bytes", f.Key, maxMetadataText)
		}
	}
	return nil
}

// MarshalJSON renders {"<label>": {fields in order}}.
func (m Metadata) MarshalJSON() ([]byte, error) {
	if m.IsZero() {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"%d":{`, m.Label)
	for i, f := range m.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

type orderedMap []interface{}

func (orderedMap) MapBySlice() {}

// CBOR encodes the metadata as the transaction's metadata map.
func (m Metadata) CBOR() ([]byte, error) {
	inner := make(orderedMap, 0, 2*len(m.Fields))
	for _, f := range m.Fields {
		inner = append(inner, f.Key, f.Value)
	}
	var out []byte
	h := new(codec.CborHandle)
	if err := codec.NewEncoderBytes(&out, h).Encode(orderedMap{m.Label, inner}); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return out, nil
}

// ClaimMessage is the note attached to claim transactions: both directions
// of the consumed feed and the time it was valid from.
func ClaimMessage(obs *feed.Observation) Metadata {
	m := Metadata{Label: MessageLabel, Fields: []Field{
		{"title", "Hello Orcfax!"},
		{"message", "You have successfully consumed a price-feed datum!"},
		{"note", "To inspect please look at the reference inputs for this Tx."},
	}}
	if obs == nil {
		return m
	}
	for i, label := range obs.PairLabels {
		m.Fields = append(m.Fields, Field{strings.ToLower(label), obs.Values[i].String()})
	}
	m.Fields = append(m.Fields, Field{"timestamp", obs.ValidFromTime().Format("2006-01-02T15:04:05Z")})
	return m
}
