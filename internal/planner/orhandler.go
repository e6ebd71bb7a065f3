package planner

// PlanDisjunction implements spec.md §4.5: DNF-expand where, then
// choose between a UNION of per-disjunct branches and a common-factor
// extraction with a residual OR filter, driven by predicate_or_mode
// and, in Auto, by cost.
func PlanDisjunction(proj *Projection, aliasOrder []string, where *Predicate, order []OrderBySpec, catalog *IndexCatalog, cm *CostModel) (ExecutionNode, error) {
	dnf := ToDNF(where)
	if dnf.Kind != POr {
		return planConjunctiveBranch(proj, aliasOrder, dnf, order, catalog, cm)
	}
	disjuncts := dnf.Children

	switch proj.Hints.PredicateOr {
	case PredicateOrModeUnion:
		return buildUnionPlan(proj, aliasOrder, disjuncts, order, catalog, cm)
	case PredicateOrModeSingleScan:
		return buildCommonFactorPlan(proj, aliasOrder, disjuncts, order, catalog, cm)
	default:
		unionCost, err := unionCost(proj, aliasOrder, disjuncts, catalog, cm)
		if err != nil {
			return nil, err
		}
		common, commonCost, hasCommon, err := commonFactorCost(proj, aliasOrder, disjuncts, catalog, cm)
		if err != nil {
			return nil, err
		}
		if hasCommon && commonCost <= unionCost {
			return buildCommonFactorPlanFromCommon(proj, aliasOrder, disjuncts, common, order, catalog, cm)
		}
		return buildUnionPlan(proj, aliasOrder, disjuncts, order, catalog, cm)
	}
}

// branchCost is Σ_alias planSingleScan(alias, split(P).source_predicates[alias]).score.
func branchCost(proj *Projection, aliasOrder []string, p *Predicate, catalog *IndexCatalog, cm *CostModel) (float64, error) {
	split := Split(p, aliasOrder)
	total := 0.0
	for _, alias := range aliasOrder {
		sp, err := PlanSingleScan(alias, proj.From[alias], split.SourcePredicates[alias], nil, catalog, cm)
		if err != nil {
			return 0, err
		}
		total += sp.Score
	}
	return total, nil
}

func unionCost(proj *Projection, aliasOrder []string, disjuncts []*Predicate, catalog *IndexCatalog, cm *CostModel) (float64, error) {
	total := 0.0
	joinsPresent := false
	for _, d := range disjuncts {
		c, err := branchCost(proj, aliasOrder, d, catalog, cm)
		if err != nil {
			return 0, err
		}
		total += c
		if len(GetInvolvedSources(d, aliasSetOf(aliasOrder))) > 1 {
			joinsPresent = true
		}
	}
	m := len(disjuncts)
	penalty := cm.UnionPlainPenalty
	if joinsPresent {
		penalty = cm.UnionJoinPenalty
	}
	total += float64(m-1) * penalty
	return total, nil
}

// commonFactorCost finds the conjuncts shared by every disjunct (by
// CanonicalKey) and returns the common predicate, its cost, and
// whether a non-trivial common factor exists.
func commonFactorCost(proj *Projection, aliasOrder []string, disjuncts []*Predicate, catalog *IndexCatalog, cm *CostModel) (*Predicate, float64, bool, error) {
	common := findCommonFactor(disjuncts)
	if common == nil {
		return nil, 0, false, nil
	}
	c, err := branchCost(proj, aliasOrder, common, catalog, cm)
	if err != nil {
		return nil, 0, false, err
	}
	m := len(disjuncts)
	return common, c + cm.CommonFactorPenalty*float64(m), true, nil
}

// findCommonFactor returns the AND of every conjunct (by canonical
// key) present in all disjuncts, or nil if none is shared by all.
func findCommonFactor(disjuncts []*Predicate) *Predicate {
	if len(disjuncts) == 0 {
		return nil
	}
	counts := map[string]int{}
	reps := map[string]*Predicate{}
	for _, d := range disjuncts {
		seen := map[string]bool{}
		for _, conjunct := range topLevelConjuncts(d) {
			key := CanonicalKey(conjunct)
			if seen[key] {
				continue
			}
			seen[key] = true
			counts[key]++
			reps[key] = conjunct
		}
	}
	var shared []*Predicate
	for key, n := range counts {
		if n == len(disjuncts) {
			shared = append(shared, reps[key])
		}
	}
	if len(shared) == 0 {
		return nil
	}
	if len(shared) == 1 {
		return shared[0]
	}
	return AndPredicate(shared...)
}

// remainderWithoutCommon strips the common conjuncts out of a disjunct,
// returning the remaining AND (or CONSTANT(true) if fully consumed).
func remainderWithoutCommon(disjunct *Predicate, common *Predicate) *Predicate {
	commonKeys := map[string]bool{}
	for _, c := range topLevelConjuncts(common) {
		commonKeys[CanonicalKey(c)] = true
	}
	var remaining []*Predicate
	for _, c := range topLevelConjuncts(disjunct) {
		if !commonKeys[CanonicalKey(c)] {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) == 0 {
		return ConstantPredicate(true)
	}
	if len(remaining) == 1 {
		return remaining[0]
	}
	return AndPredicate(remaining...)
}

func buildUnionPlan(proj *Projection, aliasOrder []string, disjuncts []*Predicate, order []OrderBySpec, catalog *IndexCatalog, cm *CostModel) (ExecutionNode, error) {
	inputs := make([]ExecutionNode, len(disjuncts))
	for i, d := range disjuncts {
		node, err := planConjunctiveBranch(proj, aliasOrder, d, order, catalog, cm)
		if err != nil {
			return nil, err
		}
		inputs[i] = node
	}
	return &UnionNode{Inputs: inputs, DistinctStrategy: DistinctDocPath}, nil
}

func buildCommonFactorPlan(proj *Projection, aliasOrder []string, disjuncts []*Predicate, order []OrderBySpec, catalog *IndexCatalog, cm *CostModel) (ExecutionNode, error) {
	common := findCommonFactor(disjuncts)
	if common == nil {
		common = ConstantPredicate(true)
	}
	return buildCommonFactorPlanFromCommon(proj, aliasOrder, disjuncts, common, order, catalog, cm)
}

func buildCommonFactorPlanFromCommon(proj *Projection, aliasOrder []string, disjuncts []*Predicate, common *Predicate, order []OrderBySpec, catalog *IndexCatalog, cm *CostModel) (ExecutionNode, error) {
	base, err := planConjunctiveBranch(proj, aliasOrder, common, order, catalog, cm)
	if err != nil {
		return nil, err
	}
	remainders := make([]*Predicate, len(disjuncts))
	for i, d := range disjuncts {
		remainders[i] = remainderWithoutCommon(d, common)
	}
	residual := Simplify(OrPredicate(remainders...))
	if residual.IsTrue() {
		return base, nil
	}
	return &FilterNode{Source: base, Predicate: residual}, nil
}

func aliasSetOf(aliasOrder []string) map[string]bool {
	out := make(map[string]bool, len(aliasOrder))
	for _, a := range aliasOrder {
		out[a] = true
	}
	return out
}
