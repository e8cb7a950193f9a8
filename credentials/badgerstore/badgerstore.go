// Package badgerstore persists the credential record in an embedded Badger
// database. The whole record lives under a single key so the token pair is
// written and deleted in one transaction.
package badgerstore

import (
	"encoding/json"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-session-client/credentials"
)

var _ credentials.Store = (*Store)(nil)

var recordKey = []byte("credentials/record")

// Store is a Badger-backed credentials.Store.
type Store struct {
	db *badger.DB
}

// Open creates or opens the credential database in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "[badgerstore.Open] badger.Open")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load() (*credentials.Record, error) {
	var record credentials.Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, credentials.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[badgerstore.Load] db.View")
	}
	return &record, nil
}

func (s *Store) Save(record *credentials.Record) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "[badgerstore.Save] json.Marshal")
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey, encoded)
	})
	if err != nil {
		return errors.Wrap(err, "[badgerstore.Save] db.Update")
	}
	return nil
}

func (s *Store) Clear() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey)
	})
	if err != nil {
		return errors.Wrap(err, "[badgerstore.Clear] db.Update")
	}
	return nil
}
