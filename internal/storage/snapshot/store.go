// Package snapshot persists the last chain view seen for each address so
// planning can continue from a recent copy when the node is unreachable.
package snapshot

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned when a key doesn't exist in the store
	ErrKeyNotFound = errors.New("key not found")

	// ErrStoreClosed is returned when trying to operate on a closed store
	ErrStoreClosed = errors.New("store is closed")
)

// Store is the key-value surface the cache needs.
type Store interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
)

// Open opens a store of the named backend at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendPebble, "":
		return OpenPebble(path)
	case BackendLevelDB:
		return OpenLevelDB(path)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", backend)
	}
}
