package planner

// ScanPlan is the result of planning a single source's scan, per
// spec.md §4.4: the pushed-down constraints, whether the predicate
// left any non-indexable conjuncts behind (requiring a wrapping
// FILTER), the resulting cost score, and whether the scan is
// considered to have "no pushdown" for join-ordering purposes.
type ScanPlan struct {
	Alias          string
	Collection     Collection
	Constraints    []Constraint
	OrderBy        []OrderBySpec
	NonIndexable   int
	ResidualFilter *Predicate // full original source predicate, set iff NonIndexable > 0
	Score          float64
	NoPushdown     bool
	Node           ExecutionNode
}

// PlanSingleScan plans one alias's scan: gathering push-down candidates
// from sourcePredicate, applying the backend guardrails, scoring via
// catalog, and wrapping in a FILTER if any conjunct could not be
// pushed down.
func PlanSingleScan(alias string, collection Collection, sourcePredicate *Predicate, orderByForAlias []OrderBySpec, catalog *IndexCatalog, cm *CostModel) (*ScanPlan, error) {
	if cm == nil {
		cm = DefaultCostModel()
	}

	if sourcePredicate == nil {
		sp := &ScanPlan{
			Alias:      alias,
			Collection: collection,
			OrderBy:    orderByForAlias,
			Score:      cm.NoMatchScore,
			NoPushdown: true,
		}
		sp.Node = &ScanNode{Alias: alias, Collection: collection, OrderBy: orderByForAlias}
		return sp, nil
	}

	conjuncts := topLevelConjuncts(Simplify(sourcePredicate))

	var candidates []Constraint
	nonIndexable := 0
	for _, conjunct := range conjuncts {
		c, ok := asPushdownConstraint(conjunct, alias)
		if !ok {
			nonIndexable++
			continue
		}
		candidates = append(candidates, c)
	}

	candidates, droppedMembership := enforceSetMembershipLimit(candidates)
	nonIndexable += droppedMembership

	if err := checkInequalityFieldLimit(candidates); err != nil {
		return nil, err
	}

	if err := checkOrderByMatchesInequality(candidates, orderByForAlias); err != nil {
		return nil, err
	}

	kind, k := MatchNone, 0
	var sortField *Field
	sortDir := Asc
	if len(orderByForAlias) > 0 {
		sortField = orderByForAlias[0].Field
		sortDir = orderByForAlias[0].Direction
	}
	if catalog != nil {
		kind, k = catalog.Match(collection.LeafName(), collection.CollectionGrp, candidates, sortField, sortDir)
	}

	score := cm.ScanScore(kind, k, nonIndexable)
	if len(candidates) == 0 && nonIndexable == 0 {
		score = cm.NoMatchScore
	}

	sp := &ScanPlan{
		Alias:        alias,
		Collection:   collection,
		Constraints:  candidates,
		OrderBy:      orderByForAlias,
		NonIndexable: nonIndexable,
		Score:        score,
		NoPushdown:   len(candidates) == 0 && nonIndexable == 0,
	}

	var node ExecutionNode = &ScanNode{
		Alias:       alias,
		Collection:  collection,
		Constraints: candidates,
		OrderBy:     orderByForAlias,
	}
	if nonIndexable > 0 {
		sp.ResidualFilter = sourcePredicate
		node = &FilterNode{Source: node, Predicate: sourcePredicate}
	}
	sp.Node = node

	return sp, nil
}

// asPushdownConstraint reports whether conjunct is a COMPARISON whose
// left side is a Field of alias and whose right side is a Literal or
// list of Literals — the only shape §4.4 step 1 allows to push down.
func asPushdownConstraint(conjunct *Predicate, alias string) (Constraint, bool) {
	if conjunct.Kind != PComparison {
		return Constraint{}, false
	}
	field, ok := conjunct.Left.(*Field)
	if !ok || field.Alias != alias {
		return Constraint{}, false
	}
	switch conjunct.Right.(type) {
	case *Literal, *List:
	default:
		return Constraint{}, false
	}
	return Constraint{Field: field, Op: conjunct.Op, Value: conjunct.Right}, true
}

// enforceSetMembershipLimit keeps at most one set-membership
// constraint, by priority in > array-contains-any > not-in, dropping
// the rest; it returns the surviving constraints and the count dropped.
func enforceSetMembershipLimit(constraints []Constraint) ([]Constraint, int) {
	priority := map[Op]int{In: 0, ArrayContainsAny: 1, NotIn: 2}

	var membership []Constraint
	var others []Constraint
	for _, c := range constraints {
		if c.Op.IsSetMembership() {
			membership = append(membership, c)
		} else {
			others = append(others, c)
		}
	}
	if len(membership) <= 1 {
		return constraints, 0
	}

	best := membership[0]
	for _, c := range membership[1:] {
		if priority[c.Op] < priority[best.Op] {
			best = c
		}
	}
	return append(others, best), len(membership) - 1
}

// checkInequalityFieldLimit fails if the surviving constraints carry
// inequality ops over more than one distinct field path.
func checkInequalityFieldLimit(constraints []Constraint) error {
	seen := map[string]bool{}
	var fields []string
	for _, c := range constraints {
		if !c.Op.IsInequality() {
			continue
		}
		key := fieldPathKey(c.Field)
		if !seen[key] {
			seen[key] = true
			fields = append(fields, c.Field.String())
		}
	}
	if len(fields) > 1 {
		return errMultipleInequalityFields(fields)
	}
	return nil
}

// checkOrderByMatchesInequality fails if an inequality field is
// present alongside an order-by whose first entry does not match it.
func checkOrderByMatchesInequality(constraints []Constraint, orderBy []OrderBySpec) error {
	var ineqField *Field
	for _, c := range constraints {
		if c.Op.IsInequality() {
			ineqField = c.Field
			break
		}
	}
	if ineqField == nil || len(orderBy) == 0 {
		return nil
	}
	if !orderBy[0].Field.Equal(ineqField) {
		return errOrderByMustMatchInequalityField(ineqField.String())
	}
	return nil
}
