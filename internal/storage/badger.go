// Package storage adapts BadgerDB to the internal/kv contract, the
// same wiring trigo's own internal/storage package does for its
// triplestore, retargeted at docstore's single-table keyspace.
package storage

import (
	"bytes"
	"fmt"

	"github.com/aleksaelezovic/docplan/internal/kv"
	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStorage implements kv.Storage using BadgerDB.
type BadgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage opens (or creates) a BadgerDB database at path.
func NewBadgerStorage(path string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerStorage{db: db}, nil
}

func (s *BadgerStorage) Begin(writable bool) (kv.Transaction, error) {
	txn := s.db.NewTransaction(writable)
	return &BadgerTransaction{txn: txn, writable: writable}, nil
}

func (s *BadgerStorage) Close() error { return s.db.Close() }

func (s *BadgerStorage) Sync() error { return s.db.Sync() }

// BadgerTransaction implements kv.Transaction using BadgerDB.
type BadgerTransaction struct {
	txn      *badger.Txn
	writable bool
}

func (t *BadgerTransaction) Get(table kv.Table, key []byte) ([]byte, error) {
	prefixedKey := kv.PrefixKey(table, key)
	item, err := t.txn.Get(prefixedKey)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, kv.ErrNotFound
		}
		return nil, err
	}

	var value []byte
	err = item.Value(func(val []byte) error {
		value = append([]byte{}, val...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (t *BadgerTransaction) Set(table kv.Table, key, value []byte) error {
	if !t.writable {
		return kv.ErrTransactionRO
	}
	return t.txn.Set(kv.PrefixKey(table, key), value)
}

func (t *BadgerTransaction) Delete(table kv.Table, key []byte) error {
	if !t.writable {
		return kv.ErrTransactionRO
	}
	return t.txn.Delete(kv.PrefixKey(table, key))
}

func (t *BadgerTransaction) Scan(table kv.Table, prefix []byte) (kv.Iterator, error) {
	opts := badger.DefaultIteratorOptions

	tablePrefix := kv.TablePrefix(table)
	scanPrefix := kv.PrefixKey(table, prefix)
	opts.Prefix = scanPrefix

	it := t.txn.NewIterator(opts)

	return &BadgerIterator{
		it:         it,
		tablePrefix: tablePrefix,
		scanPrefix: scanPrefix,
		started:    false,
	}, nil
}

func (t *BadgerTransaction) Commit() error { return t.txn.Commit() }

func (t *BadgerTransaction) Rollback() error {
	t.txn.Discard()
	return nil
}

// BadgerIterator implements kv.Iterator using BadgerDB.
type BadgerIterator struct {
	it          *badger.Iterator
	tablePrefix []byte
	scanPrefix  []byte
	started     bool
	hasValue    bool
}

func (i *BadgerIterator) Next() bool {
	if !i.started {
		i.it.Seek(i.scanPrefix)
		i.started = true
	} else {
		i.it.Next()
	}

	if !i.it.Valid() || !bytes.HasPrefix(i.it.Item().Key(), i.scanPrefix) {
		i.hasValue = false
		return false
	}
	i.hasValue = true
	return true
}

func (i *BadgerIterator) Key() []byte {
	if !i.hasValue {
		return nil
	}
	key := i.it.Item().Key()
	if len(key) > len(i.tablePrefix) {
		return key[len(i.tablePrefix):]
	}
	return nil
}

func (i *BadgerIterator) Value() ([]byte, error) {
	if !i.hasValue {
		return nil, kv.ErrNotFound
	}
	var value []byte
	err := i.it.Item().Value(func(val []byte) error {
		value = append([]byte{}, val...)
		return nil
	})
	return value, err
}

func (i *BadgerIterator) Close() error {
	i.it.Close()
	return nil
}
