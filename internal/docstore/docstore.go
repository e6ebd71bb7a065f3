// Package docstore is a minimal hierarchical document store backing
// the kind of backend internal/planner targets: collections addressed
// by a path, documents carrying a stable path for UNION{distinct=DocPath}
// deduplication, and collection-group scans across every collection
// sharing a leaf name. Grounded on trigo's internal/store.TripleStore
// (one storage-backed type wrapping transactional reads/writes) and
// internal/storage.BadgerStorage, retargeted from triple indexes to a
// single keyspace of JSON-encoded documents.
package docstore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aleksaelezovic/docplan/internal/kv"
)

// Document is one stored row: a path-addressed JSON object plus the
// metadata fields a Field path prefixed with "#" can reference.
type Document struct {
	ID         string
	Path       string // full slash-joined document path, e.g. "users/42"
	Collection string // the immediate parent collection path, e.g. "users"
	Parent     string // the parent document's path, empty for root collections
	Fields     map[string]any
}

// Store wraps a kv.Storage with document (de)serialization and the
// two key schemes Put maintains: one keyed by the document's
// own collection path (plain scans) and one keyed by collection leaf
// name (collection-group scans).
type Store struct {
	storage kv.Storage
}

func New(storage kv.Storage) *Store {
	return &Store{storage: storage}
}

func (s *Store) Close() error { return s.storage.Close() }

func docKey(collectionPath, id string) []byte {
	return []byte("doc\x00" + collectionPath + "\x00" + id)
}

func groupKey(leaf, collectionPath, id string) []byte {
	return []byte("grp\x00" + leaf + "\x00" + collectionPath + "\x00" + id)
}

// Put stores doc under both its plain-collection key and its
// collection-group key, so PlanSingleScan's collection-group scans and
// plain-collection scans can both be served from one write.
func (s *Store) Put(doc Document) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	blob, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: failed to encode document %s: %w", doc.Path, err)
	}

	leaf := leafName(doc.Collection)
	if err := txn.Set(kv.Documents, docKey(doc.Collection, doc.ID), blob); err != nil {
		return err
	}
	if err := txn.Set(kv.Documents, groupKey(leaf, doc.Collection, doc.ID), blob); err != nil {
		return err
	}

	return txn.Commit()
}

func leafName(collectionPath string) string {
	parts := strings.Split(collectionPath, "/")
	return parts[len(parts)-1]
}

// ScanCollection returns every document directly under collectionPath.
func (s *Store) ScanCollection(collectionPath string) ([]Document, error) {
	return s.scanPrefix([]byte("doc\x00" + collectionPath + "\x00"))
}

// ScanCollectionGroup returns every document in any collection whose
// leaf name is leaf, at any depth.
func (s *Store) ScanCollectionGroup(leaf string) ([]Document, error) {
	return s.scanPrefix([]byte("grp\x00" + leaf + "\x00"))
}

func (s *Store) scanPrefix(prefix []byte) ([]Document, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback()

	it, err := txn.Scan(kv.Documents, prefix)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var docs []Document
	for it.Next() {
		value, err := it.Value()
		if err != nil {
			return nil, err
		}
		var doc Document
		if err := json.Unmarshal(value, &doc); err != nil {
			return nil, fmt.Errorf("docstore: failed to decode document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
