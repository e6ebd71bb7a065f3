package planner

import "sort"

// PlanJoins implements spec.md §4.6: order aliases by ascending scan
// cost, left-deep build the join tree, orient each condition to the
// physical sides, pick a strategy (or honor a hint), and emit leftover
// join predicates as a residual FILTER above the final join.
func PlanJoins(aliasOrder []string, scans map[string]*ScanPlan, joinPredicates []*Predicate, hint JoinHint, catalog *IndexCatalog) (ExecutionNode, error) {
	ordered := orderAliasesByCost(aliasOrder, scans)

	if len(ordered) == 1 {
		return scans[ordered[0]].Node, nil
	}

	remaining := append([]*Predicate(nil), joinPredicates...)
	joined := map[string]bool{ordered[0]: true}
	var node ExecutionNode = scans[ordered[0]].Node
	var aliasSetAccum = map[string]bool{}
	for a := range joined {
		aliasSetAccum[a] = true
	}

	for i := 1; i < len(ordered); i++ {
		current := ordered[i]

		var matched []*Predicate
		var stillRemaining []*Predicate
		for _, jp := range remaining {
			involved := GetInvolvedSources(jp, unionSet(joined, current))
			if involvesOnly(involved, joined, current) && involved[current] && hasAtLeastOne(involved, joined) {
				matched = append(matched, jp)
			} else {
				stillRemaining = append(stillRemaining, jp)
			}
		}
		remaining = stillRemaining

		crossProduct := len(matched) == 0
		var condition *Predicate
		if crossProduct {
			condition = ConstantPredicate(true)
		} else if len(matched) == 1 {
			condition = matched[0]
		} else {
			condition = AndPredicate(matched...)
		}

		condition = orientCondition(condition, joined, current)

		strategy, orderedLeft, orderedRight, err := chooseStrategy(node, scans[current].Node, condition, hint, scans[current], catalog)
		if err != nil {
			return nil, err
		}

		node = &JoinNode{
			Left:         orderedLeft,
			Right:        orderedRight,
			Strategy:     strategy,
			Condition:    condition,
			CrossProduct: crossProduct,
		}

		joined[current] = true
	}

	for _, residual := range remaining {
		node = &FilterNode{Source: node, Predicate: residual}
	}

	return node, nil
}

func orderAliasesByCost(aliasOrder []string, scans map[string]*ScanPlan) []string {
	ordered := append([]string(nil), aliasOrder...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return scanCost(scans[ordered[i]]) < scanCost(scans[ordered[j]])
	})
	return ordered
}

func scanCost(sp *ScanPlan) float64 {
	if sp.NoPushdown {
		return 1e18
	}
	return sp.Score
}

func unionSet(joined map[string]bool, current string) map[string]bool {
	out := make(map[string]bool, len(joined)+1)
	for a := range joined {
		out[a] = true
	}
	out[current] = true
	return out
}

// involvesOnly reports that every alias in involved is either already
// joined or is current — no alias outside the frontier.
func involvesOnly(involved map[string]bool, joined map[string]bool, current string) bool {
	for a := range involved {
		if a != current && !joined[a] {
			return false
		}
	}
	return true
}

func hasAtLeastOne(involved map[string]bool, joined map[string]bool) bool {
	for a := range involved {
		if joined[a] {
			return true
		}
	}
	return false
}

// orientCondition swaps a binary comparison's operands (and inverts
// the operator) when its left operand belongs to the right subtree and
// vice versa, per spec.md §4.6 step 3. AND conjuncts are oriented
// member-wise.
func orientCondition(cond *Predicate, joined map[string]bool, current string) *Predicate {
	switch cond.Kind {
	case PComparison:
		return orientComparison(cond, joined, current)
	case PAnd:
		children := make([]*Predicate, len(cond.Children))
		for i, c := range cond.Children {
			children[i] = orientComparison(c, joined, current)
		}
		return &Predicate{Kind: PAnd, Children: children}
	default:
		return cond
	}
}

func orientComparison(cond *Predicate, joined map[string]bool, current string) *Predicate {
	if cond.Kind != PComparison {
		return cond
	}
	lf, lok := cond.Left.(*Field)
	rf, rok := cond.Right.(*Field)
	if !lok || !rok {
		return cond
	}
	leftOnRight := !joined[lf.Alias] && lf.Alias == current
	rightOnLeft := joined[rf.Alias]
	if leftOnRight && rightOnLeft {
		if inv, ok := invertOp(cond.Op); ok {
			return ComparisonPredicate(inv, cond.Right, cond.Left)
		}
	}
	return cond
}

// chooseStrategy implements spec.md §4.6 step 4/5: pick Hash, Merge,
// IndexedNestedLoop, or NestedLoop for Auto, or validate and apply a
// forced hint. Merge may reorder (but never mutate in place until both
// sides are known to succeed) by adopting a scan order-by.
func chooseStrategy(left, right ExecutionNode, condition *Predicate, hint JoinHint, rightScan *ScanPlan, catalog *IndexCatalog) (JoinStrategy, ExecutionNode, ExecutionNode, error) {
	if hint != JoinHintAuto {
		return chooseForcedStrategy(left, right, condition, hint, rightScan, catalog)
	}

	if IsHashJoinCompatible(condition) {
		return Hash, left, right, nil
	}

	if IsMergeJoinCompatible(condition) {
		if newLeft, newRight, ok := tryMergeOrder(left, right, condition, catalog); ok {
			return Merge, newLeft, newRight, nil
		}
	}

	if canIndexedNestedLoop(condition, rightScan, catalog) {
		return IndexedNestedLoop, left, right, nil
	}

	return NestedLoop, left, right, nil
}

func chooseForcedStrategy(left, right ExecutionNode, condition *Predicate, hint JoinHint, rightScan *ScanPlan, catalog *IndexCatalog) (JoinStrategy, ExecutionNode, ExecutionNode, error) {
	switch hint {
	case JoinHintHash:
		if !IsHashJoinCompatible(condition) {
			return 0, nil, nil, errJoinHintIncompatible(hint.strategyName())
		}
		return Hash, left, right, nil
	case JoinHintMerge:
		if !IsMergeJoinCompatible(condition) {
			return 0, nil, nil, errJoinHintIncompatible(hint.strategyName())
		}
		newLeft, newRight, ok := tryMergeOrder(left, right, condition, catalog)
		if !ok {
			return 0, nil, nil, errJoinHintIncompatible(hint.strategyName())
		}
		return Merge, newLeft, newRight, nil
	case JoinHintIndexedNestedLoop:
		if !canIndexedNestedLoop(condition, rightScan, catalog) {
			return 0, nil, nil, errJoinHintIncompatible(hint.strategyName())
		}
		return IndexedNestedLoop, left, right, nil
	case JoinHintNestedLoop:
		return NestedLoop, left, right, nil
	default:
		return NestedLoop, left, right, nil
	}
}

// rightEqualityJoinField returns the join key field on alias's side of
// the first field-vs-field equality comparison in cond (top-level or
// an AND conjunct). Only equality qualifies: IndexedNestedLoop rewrites
// the condition into an in/array-contains-any lookup on the right
// side, which has no meaning for <, <=, >, >=, != comparisons.
func rightEqualityJoinField(cond *Predicate, alias string) *Field {
	check := func(p *Predicate) *Field {
		if p.Kind != PComparison || p.Op != Eq {
			return nil
		}
		lf, lok := p.Left.(*Field)
		rf, rok := p.Right.(*Field)
		if !lok || !rok {
			return nil
		}
		if rf.Alias == alias {
			return rf
		}
		if lf.Alias == alias {
			return lf
		}
		return nil
	}
	if cond.Kind == PAnd {
		for _, c := range cond.Children {
			if f := check(c); f != nil {
				return f
			}
		}
		return nil
	}
	return check(cond)
}

// tryMergeOrder checks whether left and right are each already
// planned-sorted ascending by their respective join key, or can be
// made so by adopting a scan order-by backed by an exact index match.
// Adoption is all-or-nothing: both sides' deferred mutations are
// prepared first and applied together, or neither is applied.
func tryMergeOrder(left, right ExecutionNode, condition *Predicate, catalog *IndexCatalog) (ExecutionNode, ExecutionNode, bool) {
	lf := condition.Left.(*Field)
	rf := condition.Right.(*Field)

	leftApply, leftOK := prepareMergeOrder(left, lf, catalog)
	if !leftOK {
		return nil, nil, false
	}
	rightApply, rightOK := prepareMergeOrder(right, rf, catalog)
	if !rightOK {
		return nil, nil, false
	}

	return leftApply(), rightApply(), true
}

// prepareMergeOrder returns a deferred commit function that yields a
// node already sorted ascending by key, and whether that is achievable
// at all: either the subtree already is, or a bare ScanNode's order-by
// can be adopted, but only when the catalog confirms an exact index
// match on the scan's constraints plus key asc — an adopted order-by
// with no backing index is asserted, not proven-sorted.
func prepareMergeOrder(node ExecutionNode, key *Field, catalog *IndexCatalog) (func() ExecutionNode, bool) {
	if sortedBy, ok := plannedSort(node); ok && len(sortedBy) > 0 && sortedBy[0].Field.Equal(key) && sortedBy[0].Direction == Asc {
		return func() ExecutionNode { return node }, true
	}
	scan, ok := node.(*ScanNode)
	if !ok || len(scan.OrderBy) != 0 || catalog == nil {
		return nil, false
	}
	kind, _ := catalog.Match(scan.Collection.LeafName(), scan.Collection.CollectionGrp, scan.Constraints, key, Asc)
	if kind != MatchExact {
		return nil, false
	}
	adopted := &OrderBySpec{Field: key, Direction: Asc}
	return func() ExecutionNode {
		clone := *scan
		clone.OrderBy = []OrderBySpec{*adopted}
		return &clone
	}, true
}

// canIndexedNestedLoop reports whether the right side's scan has a
// known index leading with the join key, so it can be rewritten into
// an in/array-contains-any lookup per alias's join key.
func canIndexedNestedLoop(condition *Predicate, rightScan *ScanPlan, catalog *IndexCatalog) bool {
	if rightScan == nil || catalog == nil {
		return false
	}
	joinField := rightEqualityJoinField(condition, rightScan.Alias)
	if joinField == nil {
		return false
	}
	kind, k := catalog.Match(rightScan.Collection.LeafName(), rightScan.Collection.CollectionGrp,
		[]Constraint{{Field: joinField, Op: In}}, nil, Asc)
	return kind != MatchNone && k > 0
}

// plannedSort answers "which order-by, in either direction, is this
// subtree already sorted by?" per spec.md §4.6's Planned-sort inference
// table.
func plannedSort(node ExecutionNode) ([]OrderBySpec, bool) {
	switch n := node.(type) {
	case *ScanNode:
		if len(n.OrderBy) == 0 {
			return nil, false
		}
		return n.OrderBy, true
	case *FilterNode:
		return plannedSort(n.Source)
	case *ProjectNode:
		return plannedSort(n.Source)
	case *LimitNode:
		return plannedSort(n.Source)
	case *SortNode:
		return n.OrderBy, true
	case *JoinNode:
		if n.Strategy == Merge {
			if lf, ok := n.Condition.Left.(*Field); ok {
				return []OrderBySpec{{Field: lf, Direction: Asc}}, true
			}
			return nil, false
		}
		return plannedSort(n.Left)
	default:
		return nil, false
	}
}

// alreadySortedBy reports whether node's planned sort already
// satisfies the requested order-by exactly.
func alreadySortedBy(node ExecutionNode, order []OrderBySpec) bool {
	sorted, ok := plannedSort(node)
	if !ok || len(sorted) < len(order) {
		return false
	}
	for i, o := range order {
		if !sorted[i].Field.Equal(o.Field) || sorted[i].Direction != o.Direction {
			return false
		}
	}
	return true
}
