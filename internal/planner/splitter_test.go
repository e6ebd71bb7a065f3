package planner

import "testing"

func TestSplitPartitionsByInvolvedAliases(t *testing.T) {
	aStatus := ComparisonPredicate(Eq, NewField("a", "status"), NewStringLiteral("new"))
	bActive := ComparisonPredicate(Eq, NewField("b", "active"), NewBoolLiteral(true))
	join := ComparisonPredicate(Eq, NewField("a", "userId"), NewField("b", "id"))
	residualConst := ComparisonPredicate(Eq, NewNumberLiteral(1), NewNumberLiteral(1))

	p := AndPredicate(aStatus, bActive, join, residualConst)
	result := Split(p, []string{"a", "b"})

	if result.SourcePredicates["a"] == nil || CanonicalKey(result.SourcePredicates["a"]) != CanonicalKey(aStatus) {
		t.Fatalf("expected a's source predicate to be status==new, got %v", result.SourcePredicates["a"])
	}
	if result.SourcePredicates["b"] == nil || CanonicalKey(result.SourcePredicates["b"]) != CanonicalKey(bActive) {
		t.Fatalf("expected b's source predicate to be active==true, got %v", result.SourcePredicates["b"])
	}
	if len(result.JoinPredicates) != 1 || CanonicalKey(result.JoinPredicates[0]) != CanonicalKey(join) {
		t.Fatalf("expected exactly the join predicate, got %v", result.JoinPredicates)
	}
	if len(result.ResidualPredicates) != 1 {
		t.Fatalf("expected exactly one residual predicate (no involved alias), got %v", result.ResidualPredicates)
	}
}

func TestSplitMultiAliasORGoesResidual(t *testing.T) {
	or := OrPredicate(
		ComparisonPredicate(Eq, NewField("a", "status"), NewStringLiteral("new")),
		ComparisonPredicate(Eq, NewField("b", "active"), NewBoolLiteral(true)),
	)
	result := Split(or, []string{"a", "b"})
	if len(result.ResidualPredicates) != 1 {
		t.Fatalf("expected a multi-alias OR to land in residual, got source=%v join=%v residual=%v",
			result.SourcePredicates, result.JoinPredicates, result.ResidualPredicates)
	}
}

func TestGetInvolvedSources(t *testing.T) {
	p := AndPredicate(
		ComparisonPredicate(Eq, NewField("a", "x"), NewField("b", "y")),
		ComparisonPredicate(Eq, NewField("c", "z"), NewStringLiteral("v")),
	)
	involved := GetInvolvedSources(p, map[string]bool{"a": true, "b": true, "c": true})
	for _, want := range []string{"a", "b", "c"} {
		if !involved[want] {
			t.Fatalf("expected alias %q to be involved, got %v", want, involved)
		}
	}
}
