package storage

import (
	"testing"

	"github.com/aleksaelezovic/docplan/internal/kv"
)

func TestBadgerStorageSetGetDelete(t *testing.T) {
	tmpDir := t.TempDir()
	st, err := NewBadgerStorage(tmpDir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer st.Close()

	txn, err := st.Begin(true)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	if err := txn.Set(kv.Documents, []byte("users\x00alice"), []byte(`{"name":"Alice"}`)); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	readTxn, err := st.Begin(false)
	if err != nil {
		t.Fatalf("failed to begin read transaction: %v", err)
	}
	defer readTxn.Rollback()

	value, err := readTxn.Get(kv.Documents, []byte("users\x00alice"))
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if string(value) != `{"name":"Alice"}` {
		t.Errorf("expected Alice's document, got %q", value)
	}

	if _, err := readTxn.Get(kv.Documents, []byte("users\x00bob")); err != kv.ErrNotFound {
		t.Errorf("expected ErrNotFound for missing key, got %v", err)
	}
}

func TestBadgerStorageScanIsPrefixScoped(t *testing.T) {
	tmpDir := t.TempDir()
	st, err := NewBadgerStorage(tmpDir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer st.Close()

	txn, err := st.Begin(true)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	docs := map[string]string{
		"users\x00alice":   `{"name":"Alice"}`,
		"users\x00bob":     `{"name":"Bob"}`,
		"orders\x00o1":     `{"total":10}`,
	}
	for k, v := range docs {
		if err := txn.Set(kv.Documents, []byte(k), []byte(v)); err != nil {
			t.Fatalf("failed to set %s: %v", k, err)
		}
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	readTxn, err := st.Begin(false)
	if err != nil {
		t.Fatalf("failed to begin read transaction: %v", err)
	}
	defer readTxn.Rollback()

	it, err := readTxn.Scan(kv.Documents, []byte("users\x00"))
	if err != nil {
		t.Fatalf("failed to scan: %v", err)
	}
	defer it.Close()

	found := 0
	for it.Next() {
		found++
	}
	if found != 2 {
		t.Errorf("expected 2 keys under the users prefix, got %d", found)
	}
}

func TestBadgerTransactionReadOnlyRejectsWrites(t *testing.T) {
	tmpDir := t.TempDir()
	st, err := NewBadgerStorage(tmpDir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer st.Close()

	txn, err := st.Begin(false)
	if err != nil {
		t.Fatalf("failed to begin read-only transaction: %v", err)
	}
	defer txn.Rollback()

	if err := txn.Set(kv.Documents, []byte("k"), []byte("v")); err != kv.ErrTransactionRO {
		t.Errorf("expected ErrTransactionRO, got %v", err)
	}
}
