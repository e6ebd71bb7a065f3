package catalog

import (
	"strings"
	"testing"

	"github.com/aleksaelezovic/docplan/internal/planner"
)

func TestLoadProjectionDecodesComparison(t *testing.T) {
	raw := `{
		"from": {"u": {"path": ["users"]}},
		"where": {"op": "eq", "left": {"field": "u.city"}, "right": {"param": "city"}},
		"order_by": [{"field": "u.age", "direction": "desc"}],
		"limit": 10,
		"select": {"id": {"field": "u.#id"}},
		"params": {"city": "nyc"}
	}`

	proj, params, err := LoadProjection(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("LoadProjection failed: %v", err)
	}
	if _, ok := proj.From["u"]; !ok {
		t.Fatalf("expected alias u in From, got %+v", proj.From)
	}
	if !proj.HasLimit || proj.Limit != 10 {
		t.Fatalf("expected limit 10, got %+v", proj)
	}
	if params["city"] != "nyc" {
		t.Fatalf("expected resolved param city=nyc, got %+v", params)
	}

	p := NewPlannerForTest(t)
	node, err := p.Plan(proj, params)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if node == nil {
		t.Fatal("expected a non-nil plan")
	}
}

func TestLoadProjectionDecodesConjunctionAndList(t *testing.T) {
	raw := `{
		"from": {"u": {"path": ["users"]}},
		"where": {"and": [
			{"op": "in", "left": {"field": "u.city"}, "right": {"list": [{"literal": "nyc"}, {"literal": "sf"}]}},
			{"op": "gte", "left": {"field": "u.age"}, "right": {"literal": 18}}
		]}
	}`

	proj, _, err := LoadProjection(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("LoadProjection failed: %v", err)
	}
	if proj.Where == nil || proj.Where.Kind != planner.PAnd || len(proj.Where.Children) != 2 {
		t.Fatalf("expected a 2-child AND predicate, got %+v", proj.Where)
	}
}

func TestLoadProjectionRejectsUnknownOperator(t *testing.T) {
	raw := `{
		"from": {"u": {"path": ["users"]}},
		"where": {"op": "bogus", "left": {"field": "u.a"}, "right": {"literal": 1}}
	}`
	if _, _, err := LoadProjection(strings.NewReader(raw)); err == nil {
		t.Fatal("expected an error for an unknown operator")
	}
}

// NewPlannerForTest builds a bare planner with no declared indexes, for
// tests that only need to confirm a projection plans without error.
func NewPlannerForTest(t *testing.T) *planner.Planner {
	t.Helper()
	return planner.NewPlanner(planner.NewIndexCatalog(), nil)
}
