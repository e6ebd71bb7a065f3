package planner

// SplitResult is the three-way partition spec.md §4.3 describes.
type SplitResult struct {
	SourcePredicates map[string]*Predicate
	JoinPredicates   []*Predicate
	ResidualPredicates []*Predicate
}

// Split flattens p into top-level conjuncts (after Simplify) and
// dispatches each to source-local, join, or residual, per spec.md
// §4.3:
//   - involved = ∅            -> residual
//   - involved = {a}          -> source_predicates[a] &= conjunct
//   - involved >= 2, pure COMPARISON or AND of such -> join
//   - otherwise               -> residual
func Split(p *Predicate, aliases []string) SplitResult {
	result := SplitResult{SourcePredicates: make(map[string]*Predicate)}

	conjuncts := topLevelConjuncts(Simplify(p))
	aliasSet := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		aliasSet[a] = true
	}

	for _, conjunct := range conjuncts {
		involved := GetInvolvedSources(conjunct, aliasSet)
		switch {
		case len(involved) == 0:
			result.ResidualPredicates = append(result.ResidualPredicates, conjunct)
		case len(involved) == 1:
			var alias string
			for a := range involved {
				alias = a
			}
			existing, ok := result.SourcePredicates[alias]
			if !ok {
				result.SourcePredicates[alias] = conjunct
			} else {
				result.SourcePredicates[alias] = AndPredicate(existing, conjunct)
			}
		case isPureComparisonOrAndOfSuch(conjunct):
			result.JoinPredicates = append(result.JoinPredicates, conjunct)
		default:
			result.ResidualPredicates = append(result.ResidualPredicates, conjunct)
		}
	}

	return result
}

// topLevelConjuncts flattens an AND into its children; a non-AND node
// is treated as a single conjunct.
func topLevelConjuncts(p *Predicate) []*Predicate {
	if p.Kind == PAnd {
		return append([]*Predicate(nil), p.Children...)
	}
	return []*Predicate{p}
}

func isPureComparisonOrAndOfSuch(p *Predicate) bool {
	switch p.Kind {
	case PComparison:
		return true
	case PAnd:
		for _, c := range p.Children {
			if c.Kind != PComparison {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// GetInvolvedSources returns the subset of aliases appearing anywhere
// inside p, restricted to the known alias set.
func GetInvolvedSources(p *Predicate, aliases map[string]bool) map[string]bool {
	involved := make(map[string]bool)
	var walkExpr func(e Expression)
	walkExpr = func(e Expression) {
		switch v := e.(type) {
		case *Field:
			if aliases == nil || aliases[v.Alias] {
				involved[v.Alias] = true
			}
		case *List:
			for _, item := range v.Items {
				walkExpr(item)
			}
		}
	}
	var walk func(p *Predicate)
	walk = func(p *Predicate) {
		if p == nil {
			return
		}
		switch p.Kind {
		case PComparison:
			walkExpr(p.Left)
			walkExpr(p.Right)
		case PAnd, POr:
			for _, c := range p.Children {
				walk(c)
			}
		case PNot:
			walk(p.Operand)
		}
	}
	walk(p)
	return involved
}

// involvedSourcesOrdered returns GetInvolvedSources as a slice in
// aliasOrder's order, convenient for deterministic iteration and error
// payloads.
func involvedSourcesOrdered(p *Predicate, aliasOrder []string) []string {
	aliasSet := make(map[string]bool, len(aliasOrder))
	for _, a := range aliasOrder {
		aliasSet[a] = true
	}
	involved := GetInvolvedSources(p, aliasSet)
	var out []string
	for _, a := range aliasOrder {
		if involved[a] {
			out = append(out, a)
		}
	}
	return out
}
