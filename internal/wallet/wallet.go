// Package wallet describes the spending party of a planned transaction.
//
// A Wallet carries only public data. Signing is left to whichever key
// manager submits the transaction, so nothing here ever touches key
// material.
package wallet

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFeedEscrow/internal/codec/address"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
)

var ErrNotKeyAddress = errors.New("wallet address must have a key payment credential")

// Wallet is a payment address and the key hash that controls it.
type Wallet struct {
	Name    string
	Address ledger.Address
}

// New builds a wallet from a bech32 address.
func New(name, bech string) (Wallet, error) {
	addr, err := address.Decode(bech)
	if err != nil {
		return Wallet{}, fmt.Errorf("wallet %s: %w", name, err)
	}
	return FromAddress(name, addr)
}

// FromAddress wraps an already decoded address.
func FromAddress(name string, addr ledger.Address) (Wallet, error) {
	if addr.Payment.Kind != ledger.KeyCredential {
		return Wallet{}, fmt.Errorf("wallet %s: %w", name, ErrNotKeyAddress)
	}
	return Wallet{Name: name, Address: addr}, nil
}

// KeyHash is the payment key hash that must sign for this wallet.
func (w Wallet) KeyHash() ledger.KeyHash {
	return w.Address.Payment.Hash
}

func (w Wallet) String() string {
	if w.Name == "" {
		return w.Address.String()
	}
	return fmt.Sprintf("%s (%s)", w.Name, w.Address)
}
