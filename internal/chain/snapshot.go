package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
)

// Snapshot is a fixed chain view read from a JSON file:
//
//	{"tip": {"slot": 1, "id": "..."}, "utxos": [ ... ]}
//
// It is used for offline planning and in tests.
type Snapshot struct {
	TipValue ledger.Tip `json:"tip"`
	UTxOs    []UTxO     `json:"utxos"`

	outputs []ledger.Output
}

var _ Context = (*Snapshot)(nil)

// LoadSnapshot reads and converts a snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return ParseSnapshot(raw)
}

// ParseSnapshot decodes a snapshot document.
func ParseSnapshot(raw []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	outs, err := Outputs(s.UTxOs)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	s.outputs = outs
	return &s, nil
}

// NewSnapshot builds a snapshot from ledger values.
func NewSnapshot(tip ledger.Tip, outputs []ledger.Output) *Snapshot {
	s := &Snapshot{TipValue: tip, outputs: outputs}
	for _, o := range outputs {
		s.UTxOs = append(s.UTxOs, FromOutput(o))
	}
	return s
}

// Utxos returns the outputs held at addr, ordered by reference.
func (s *Snapshot) Utxos(ctx context.Context, addr ledger.Address) ([]ledger.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []ledger.Output
	for _, o := range s.outputs {
		if SameAddress(o.Address, addr) {
			out = append(out, o)
		}
	}
	SortOutputs(out)
	return out, nil
}

func (s *Snapshot) Tip(ctx context.Context) (ledger.Tip, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Tip{}, err
	}
	return s.TipValue, nil
}
