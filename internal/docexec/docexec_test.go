package docexec

import (
	"testing"

	"github.com/aleksaelezovic/docplan/internal/docstore"
	"github.com/aleksaelezovic/docplan/internal/planner"
	"github.com/aleksaelezovic/docplan/internal/storage"
)

func newTestStore(t *testing.T) *docstore.Store {
	t.Helper()
	st, err := storage.NewBadgerStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return docstore.New(st)
}

func putUser(t *testing.T, store *docstore.Store, id string, age float64, city string) {
	t.Helper()
	err := store.Put(docstore.Document{
		ID:         id,
		Path:       "users/" + id,
		Collection: "users",
		Fields:     map[string]any{"age": age, "city": city},
	})
	if err != nil {
		t.Fatalf("failed to put user %s: %v", id, err)
	}
}

func putOrder(t *testing.T, store *docstore.Store, id, userID string, total float64) {
	t.Helper()
	err := store.Put(docstore.Document{
		ID:         id,
		Path:       "orders/" + id,
		Collection: "orders",
		Fields:     map[string]any{"user_id": userID, "total": total},
	})
	if err != nil {
		t.Fatalf("failed to put order %s: %v", id, err)
	}
}

func TestScanAppliesPushedDownConstraints(t *testing.T) {
	store := newTestStore(t)
	putUser(t, store, "1", 30, "nyc")
	putUser(t, store, "2", 20, "sf")
	putUser(t, store, "3", 40, "nyc")

	node := &planner.ScanNode{
		Alias:      "u",
		Collection: planner.NewCollection("users"),
		Constraints: []planner.Constraint{
			{Field: planner.NewField("u", "city"), Op: planner.Eq, Value: planner.NewStringLiteral("nyc")},
		},
	}

	rows, err := NewExecutor(store).Run(node)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r["u"].Fields["city"] != "nyc" {
			t.Errorf("unexpected row outside constraint: %+v", r["u"])
		}
	}
}

func TestFilterAppliesResidualPredicate(t *testing.T) {
	store := newTestStore(t)
	putUser(t, store, "1", 30, "nyc")
	putUser(t, store, "2", 20, "nyc")

	scan := &planner.ScanNode{Alias: "u", Collection: planner.NewCollection("users")}
	node := &planner.FilterNode{
		Source: scan,
		Predicate: planner.ComparisonPredicate(planner.Gte,
			planner.NewField("u", "age"), planner.NewNumberLiteral(25)),
	}

	rows, err := NewExecutor(store).Run(node)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(rows) != 1 || rows[0]["u"].ID != "1" {
		t.Fatalf("expected only user 1 to survive the filter, got %+v", rows)
	}
}

func TestJoinMatchesOnFieldEquality(t *testing.T) {
	store := newTestStore(t)
	putUser(t, store, "1", 30, "nyc")
	putUser(t, store, "2", 20, "sf")
	putOrder(t, store, "o1", "1", 99)
	putOrder(t, store, "o2", "2", 15)

	left := &planner.ScanNode{Alias: "u", Collection: planner.NewCollection("users")}
	right := &planner.ScanNode{Alias: "o", Collection: planner.NewCollection("orders")}
	node := &planner.JoinNode{
		Left: left, Right: right, Strategy: planner.NestedLoop,
		Condition: planner.ComparisonPredicate(planner.Eq,
			planner.NewField("u", "#id"), planner.NewField("o", "user_id")),
	}

	rows, err := NewExecutor(store).Run(node)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 joined rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r["u"].ID != r["o"].Fields["user_id"] {
			t.Errorf("mismatched join row: %+v", r)
		}
	}
}

func TestJoinCrossProductIgnoresCondition(t *testing.T) {
	store := newTestStore(t)
	putUser(t, store, "1", 30, "nyc")
	putUser(t, store, "2", 20, "sf")
	putOrder(t, store, "o1", "9", 99)

	left := &planner.ScanNode{Alias: "u", Collection: planner.NewCollection("users")}
	right := &planner.ScanNode{Alias: "o", Collection: planner.NewCollection("orders")}
	node := &planner.JoinNode{
		Left: left, Right: right, Strategy: planner.NestedLoop,
		Condition: planner.ConstantPredicate(true), CrossProduct: true,
	}

	rows, err := NewExecutor(store).Run(node)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows from a 2x1 cross product, got %d", len(rows))
	}
}

func TestUnionDistinctDocPathDedupesAcrossBranches(t *testing.T) {
	store := newTestStore(t)
	putUser(t, store, "1", 30, "nyc")
	putUser(t, store, "2", 20, "sf")

	branchA := &planner.ScanNode{Alias: "u", Collection: planner.NewCollection("users"),
		Constraints: []planner.Constraint{{Field: planner.NewField("u", "city"), Op: planner.Eq, Value: planner.NewStringLiteral("nyc")}}}
	branchB := &planner.ScanNode{Alias: "u", Collection: planner.NewCollection("users")}

	node := &planner.UnionNode{Inputs: []planner.ExecutionNode{branchA, branchB}, DistinctStrategy: planner.DistinctDocPath}

	rows, err := NewExecutor(store).Run(node)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected union to dedupe overlapping branch to 2 rows, got %d", len(rows))
	}
}

func TestUnionWithoutDistinctKeepsDuplicates(t *testing.T) {
	store := newTestStore(t)
	putUser(t, store, "1", 30, "nyc")

	branch := &planner.ScanNode{Alias: "u", Collection: planner.NewCollection("users")}
	node := &planner.UnionNode{Inputs: []planner.ExecutionNode{branch, branch}, DistinctStrategy: planner.DistinctNone}

	rows, err := NewExecutor(store).Run(node)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected both branch copies retained, got %d", len(rows))
	}
}

func TestSortOrdersByField(t *testing.T) {
	store := newTestStore(t)
	putUser(t, store, "1", 30, "nyc")
	putUser(t, store, "2", 20, "sf")
	putUser(t, store, "3", 40, "sf")

	scan := &planner.ScanNode{Alias: "u", Collection: planner.NewCollection("users")}
	node := &planner.SortNode{
		Source:  scan,
		OrderBy: []planner.OrderBySpec{{Field: planner.NewField("u", "age"), Direction: planner.Asc}},
	}

	rows, err := NewExecutor(store).Run(node)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	ages := []float64{}
	for _, r := range rows {
		ages = append(ages, r["u"].Fields["age"].(float64))
	}
	for i := 1; i < len(ages); i++ {
		if ages[i-1] > ages[i] {
			t.Fatalf("rows not sorted ascending by age: %v", ages)
		}
	}
}

func TestLimitOffsetWindowsResults(t *testing.T) {
	store := newTestStore(t)
	for i, id := range []string{"1", "2", "3", "4"} {
		putUser(t, store, id, float64(20+i), "nyc")
	}

	scan := &planner.ScanNode{Alias: "u", Collection: planner.NewCollection("users")}
	sorted := &planner.SortNode{Source: scan, OrderBy: []planner.OrderBySpec{{Field: planner.NewField("u", "age"), Direction: planner.Asc}}}
	node := &planner.LimitNode{Source: sorted, Limit: 2, Offset: 1, HasOffset: true}

	rows, err := NewExecutor(store).Run(node)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows from limit window, got %d", len(rows))
	}
	if rows[0]["u"].ID != "2" || rows[1]["u"].ID != "3" {
		t.Fatalf("expected offset window to start at user 2, got %+v, %+v", rows[0]["u"], rows[1]["u"])
	}
}

func TestProjectRendersSelectedFields(t *testing.T) {
	store := newTestStore(t)
	putUser(t, store, "1", 30, "nyc")

	scan := &planner.ScanNode{Alias: "u", Collection: planner.NewCollection("users")}
	node := &planner.ProjectNode{
		Source: scan,
		Fields: map[string]planner.Expression{
			"id":  planner.NewField("u", "#id"),
			"age": planner.NewField("u", "age"),
		},
	}

	rows, err := NewExecutor(store).Run(node)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	projected := Project(rows[0], node.Fields)
	if projected["id"] != "1" || projected["age"].(float64) != 30 {
		t.Fatalf("unexpected projected row: %+v", projected)
	}
}

func TestCollectionGroupScanCrossesParents(t *testing.T) {
	store := newTestStore(t)
	if err := store.Put(docstore.Document{ID: "1", Path: "tenants/a/items/1", Collection: "tenants/a/items", Fields: map[string]any{"sku": "x"}}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Put(docstore.Document{ID: "2", Path: "tenants/b/items/2", Collection: "tenants/b/items", Fields: map[string]any{"sku": "y"}}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	node := &planner.ScanNode{Alias: "i", Collection: planner.NewCollectionGroup("items")}
	rows, err := NewExecutor(store).Run(node)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected collection-group scan to find items under both tenants, got %d", len(rows))
	}
}
