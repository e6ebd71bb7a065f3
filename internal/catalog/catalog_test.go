package catalog

import (
	"strings"
	"testing"

	"github.com/aleksaelezovic/docplan/internal/planner"
)

func TestLoadDecodesIndexDeclarations(t *testing.T) {
	raw := `[
		{
			"collection_group": "users",
			"scope": "collection",
			"fields": [
				{"path": ["city"], "direction": "asc"},
				{"path": ["age"], "direction": "desc"}
			]
		},
		{
			"collection_group": "items",
			"scope": "collection_group",
			"fields": [{"path": ["sku"]}]
		}
	]`

	cat, err := Load(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	kind, k := cat.Match("users", false, []planner.Constraint{
		{Field: planner.NewField("u", "city"), Op: planner.Eq, Value: planner.NewStringLiteral("nyc")},
	}, nil, planner.Asc)
	if kind != planner.MatchExact || k != 2 {
		t.Fatalf("expected exact match over the 2-field users index, got %v/%d", kind, k)
	}

	kind, _ = cat.Match("items", true, []planner.Constraint{
		{Field: planner.NewField("i", "sku"), Op: planner.Eq, Value: planner.NewStringLiteral("x")},
	}, nil, planner.Asc)
	if kind != planner.MatchExact {
		t.Fatalf("expected exact match for collection-group index, got %v", kind)
	}
}

func TestLoadRejectsUnknownScope(t *testing.T) {
	raw := `[{"collection_group": "users", "scope": "bogus", "fields": [{"path": ["a"]}]}]`
	if _, err := Load(strings.NewReader(raw)); err == nil {
		t.Fatal("expected an error for an unknown scope")
	}
}

func TestLoadRejectsMissingCollectionGroup(t *testing.T) {
	raw := `[{"scope": "collection", "fields": [{"path": ["a"]}]}]`
	if _, err := Load(strings.NewReader(raw)); err == nil {
		t.Fatal("expected an error for a missing collection_group")
	}
}

func TestLoadRejectsEmptyFieldPath(t *testing.T) {
	raw := `[{"collection_group": "users", "fields": [{"path": []}]}]`
	if _, err := Load(strings.NewReader(raw)); err == nil {
		t.Fatal("expected an error for an empty field path")
	}
}
