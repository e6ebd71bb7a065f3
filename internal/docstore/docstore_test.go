package docstore

import (
	"testing"

	"github.com/aleksaelezovic/docplan/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := storage.NewBadgerStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st)
}

func TestPutAndScanCollection(t *testing.T) {
	store := newTestStore(t)

	docs := []Document{
		{ID: "1", Path: "users/1", Collection: "users", Fields: map[string]any{"name": "Alice"}},
		{ID: "2", Path: "users/2", Collection: "users", Fields: map[string]any{"name": "Bob"}},
		{ID: "o1", Path: "orders/o1", Collection: "orders", Fields: map[string]any{"total": 10.0}},
	}
	for _, d := range docs {
		if err := store.Put(d); err != nil {
			t.Fatalf("failed to put %s: %v", d.Path, err)
		}
	}

	got, err := store.ScanCollection("users")
	if err != nil {
		t.Fatalf("ScanCollection failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 users, got %d", len(got))
	}
	for _, d := range got {
		if d.Collection != "users" {
			t.Errorf("unexpected collection leaked into scan: %+v", d)
		}
	}
}

func TestScanCollectionGroupCrossesParents(t *testing.T) {
	store := newTestStore(t)

	docs := []Document{
		{ID: "1", Path: "tenants/a/items/1", Collection: "tenants/a/items", Fields: map[string]any{"sku": "x"}},
		{ID: "2", Path: "tenants/b/items/2", Collection: "tenants/b/items", Fields: map[string]any{"sku": "y"}},
		{ID: "3", Path: "tenants/a/orders/3", Collection: "tenants/a/orders", Fields: map[string]any{"total": 5.0}},
	}
	for _, d := range docs {
		if err := store.Put(d); err != nil {
			t.Fatalf("failed to put %s: %v", d.Path, err)
		}
	}

	got, err := store.ScanCollectionGroup("items")
	if err != nil {
		t.Fatalf("ScanCollectionGroup failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items across tenants, got %d", len(got))
	}

	orders, err := store.ScanCollectionGroup("orders")
	if err != nil {
		t.Fatalf("ScanCollectionGroup failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
}

func TestScanCollectionDoesNotLeakSiblingPrefixes(t *testing.T) {
	store := newTestStore(t)

	docs := []Document{
		{ID: "1", Path: "users/1", Collection: "users", Fields: map[string]any{"name": "Alice"}},
		{ID: "1", Path: "users2/1", Collection: "users2", Fields: map[string]any{"name": "Eve"}},
	}
	for _, d := range docs {
		if err := store.Put(d); err != nil {
			t.Fatalf("failed to put %s: %v", d.Path, err)
		}
	}

	got, err := store.ScanCollection("users")
	if err != nil {
		t.Fatalf("ScanCollection failed: %v", err)
	}
	if len(got) != 1 || got[0].Fields["name"] != "Alice" {
		t.Fatalf("expected the \"users2\" collection to not leak into a \"users\" scan, got %+v", got)
	}
}

func TestScanCollectionEmptyWhenUnpopulated(t *testing.T) {
	store := newTestStore(t)

	got, err := store.ScanCollection("nothing")
	if err != nil {
		t.Fatalf("ScanCollection failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no documents, got %d", len(got))
	}
}
