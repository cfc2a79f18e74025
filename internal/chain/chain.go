// Package chain abstracts the ledger queries the off-chain tooling makes.
//
// Implementations: the Ogmios client in chain/ogmios, a JSON snapshot file
// (Snapshot) and the store-backed cache in storage/snapshot.
package chain

//go:generate mockgen -destination=mock_chain.go -package=chain github.com/LeJamon/goFeedEscrow/internal/chain Context

import (
	"bytes"
	"context"
	"errors"

	"github.com/LeJamon/goFeedEscrow/internal/codec/address"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
)

var (
	// ErrUnavailable wraps transport failures so callers can fall back to a
	// cached view.
	ErrUnavailable = errors.New("chain unavailable")
	// ErrAtOrigin is returned by Tip before the first block.
	ErrAtOrigin = errors.New("chain is at origin")
)

// Context answers the two questions planning needs: what sits at an address,
// and where the chain is now.
type Context interface {
	Utxos(ctx context.Context, addr ledger.Address) ([]ledger.Output, error)
	Tip(ctx context.Context) (ledger.Tip, error)
}

// SameAddress compares the serialised forms of two addresses.
func SameAddress(a, b ledger.Address) bool {
	return bytes.Equal(address.Bytes(a), address.Bytes(b))
}
