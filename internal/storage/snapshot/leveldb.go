package snapshot

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelStore is a Store on a goleveldb database.
type LevelStore struct {
	db *leveldb.DB
}

// OpenLevelDB opens or creates a leveldb database at path.
func OpenLevelDB(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb at %s: %w", path, err)
	}
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) Get(key []byte) ([]byte, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	val, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	return val, err
}

func (s *LevelStore) Put(key, value []byte) error {
	if s.db == nil {
		return ErrStoreClosed
	}
	return s.db.Put(key, value, nil)
}

func (s *LevelStore) Delete(key []byte) error {
	if s.db == nil {
		return ErrStoreClosed
	}
	return s.db.Delete(key, nil)
}

func (s *LevelStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
