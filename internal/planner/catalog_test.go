package planner

import "testing"

func TestIndexCatalogExactMatch(t *testing.T) {
	cat := NewIndexCatalog(IndexDecl{
		CollectionGroup: "users",
		Scope:           ScopeCollection,
		Fields: []IndexField{
			{Path: []string{"country"}, Direction: Asc},
			{Path: []string{"age"}, Direction: Asc},
		},
	})
	constraints := []Constraint{
		{Field: NewField("u", "country"), Op: Eq, Value: NewStringLiteral("FR")},
		{Field: NewField("u", "age"), Op: Gt, Value: NewNumberLiteral(18)},
	}
	kind, k := cat.Match("users", false, constraints, nil, Asc)
	if kind != MatchExact {
		t.Fatalf("expected MatchExact, got %v (k=%d)", kind, k)
	}
}

func TestIndexCatalogPartialMatch(t *testing.T) {
	cat := NewIndexCatalog(IndexDecl{
		CollectionGroup: "users",
		Scope:           ScopeCollection,
		Fields: []IndexField{
			{Path: []string{"country"}, Direction: Asc},
		},
	})
	constraints := []Constraint{
		{Field: NewField("u", "country"), Op: Eq, Value: NewStringLiteral("FR")},
		{Field: NewField("u", "age"), Op: Gt, Value: NewNumberLiteral(18)},
	}
	kind, _ := cat.Match("users", false, constraints, nil, Asc)
	if kind != MatchPartial {
		t.Fatalf("expected MatchPartial, got %v", kind)
	}
}

func TestIndexCatalogNoMatch(t *testing.T) {
	cat := NewIndexCatalog()
	constraints := []Constraint{
		{Field: NewField("u", "country"), Op: Eq, Value: NewStringLiteral("FR")},
	}
	kind, _ := cat.Match("users", false, constraints, nil, Asc)
	if kind != MatchNone {
		t.Fatalf("expected MatchNone with an empty catalog, got %v", kind)
	}
}

func TestIndexCatalogScopeIsolation(t *testing.T) {
	cat := NewIndexCatalog(IndexDecl{
		CollectionGroup: "users",
		Scope:           ScopeCollectionGroup,
		Fields:          []IndexField{{Path: []string{"country"}, Direction: Asc}},
	})
	constraints := []Constraint{
		{Field: NewField("u", "country"), Op: Eq, Value: NewStringLiteral("FR")},
	}
	kind, _ := cat.Match("users", false, constraints, nil, Asc)
	if kind != MatchNone {
		t.Fatalf("a collection-group index should not match a plain-collection scan, got %v", kind)
	}
	kind, _ = cat.Match("users", true, constraints, nil, Asc)
	if kind != MatchExact {
		t.Fatalf("expected MatchExact for the matching scope, got %v", kind)
	}
}
