package planner

// CostModel carries the numeric constants spec.md §4.4/§4.5 use for
// cost scoring. Exposed as a constructor argument (SPEC_FULL.md's
// resolution of spec.md §9's second Open Question) so a caller can
// tune it to its own backend's observed costs instead of being stuck
// with the spec's illustrative defaults.
type CostModel struct {
	// Scan cost scoring (§4.4 step 3).
	ExactMatchScore      float64
	PartialMatchBase     float64 // max(1, 10-k) + PartialMatchBase... see ScanScore
	NoMatchScore         float64
	NonIndexablePenalty  float64

	// OR handler cost scoring (§4.5).
	UnionJoinPenalty    float64 // per extra branch, when joins are present
	UnionPlainPenalty   float64 // per extra branch, when no joins are present
	CommonFactorPenalty float64 // per disjunct, for the common-factor plan
}

// DefaultCostModel returns the constants spec.md §4.4/§4.5 specify
// literally: exact=1, partial(k)=max(1,10-k)+5, none=1000,
// non_indexable×100, union extra-branch cost 500 (joins present) or 50
// (no joins), common-factor 10×m.
func DefaultCostModel() *CostModel {
	return &CostModel{
		ExactMatchScore:     1,
		PartialMatchBase:    5,
		NoMatchScore:        1000,
		NonIndexablePenalty: 100,
		UnionJoinPenalty:    500,
		UnionPlainPenalty:   50,
		CommonFactorPenalty: 10,
	}
}

// ScanScore computes §4.4 step 3's score for a given index match
// outcome and non-indexable conjunct count.
func (cm *CostModel) ScanScore(kind MatchKind, k, nonIndexable int) float64 {
	var base float64
	switch kind {
	case MatchExact:
		base = cm.ExactMatchScore
	case MatchPartial:
		partial := float64(10 - k)
		if partial < 1 {
			partial = 1
		}
		base = partial + cm.PartialMatchBase
	default:
		base = cm.NoMatchScore
	}
	return base + cm.NonIndexablePenalty*float64(nonIndexable)
}
