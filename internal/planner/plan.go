package planner

// ExecutionNode is the closed sum of plan tree node kinds spec.md §3
// enumerates: SCAN, FILTER, JOIN, UNION, SORT, LIMIT, PROJECT. Nodes
// are immutable once returned by Plan.
type ExecutionNode interface {
	executionNode()
}

// ScanNode corresponds to SCAN{alias, collection_path, collection_group?,
// constraints[], order_by?[]}.
type ScanNode struct {
	Alias       string
	Collection  Collection
	Constraints []Constraint
	OrderBy     []OrderBySpec
}

func (*ScanNode) executionNode() {}

// FilterNode corresponds to FILTER{source, predicate}.
type FilterNode struct {
	Source    ExecutionNode
	Predicate *Predicate
}

func (*FilterNode) executionNode() {}

// JoinStrategy enumerates the strategies JOIN.strategy may take.
type JoinStrategy int

const (
	Hash JoinStrategy = iota
	Merge
	IndexedNestedLoop
	NestedLoop
)

func (s JoinStrategy) String() string {
	switch s {
	case Hash:
		return "Hash"
	case Merge:
		return "Merge"
	case IndexedNestedLoop:
		return "IndexedNestedLoop"
	case NestedLoop:
		return "NestedLoop"
	default:
		return "?"
	}
}

// JoinNode corresponds to JOIN{left, right, strategy, condition,
// cross_product}. Invariant 5: CrossProduct is true iff Condition is
// CONSTANT(true).
type JoinNode struct {
	Left, Right  ExecutionNode
	Strategy     JoinStrategy
	Condition    *Predicate
	CrossProduct bool
}

func (*JoinNode) executionNode() {}

// UnionNode corresponds to UNION{inputs[], distinct_strategy}.
type UnionNode struct {
	Inputs           []ExecutionNode
	DistinctStrategy DistinctStrategy
}

func (*UnionNode) executionNode() {}

// DistinctStrategy enumerates how a UNION deduplicates rows across
// its branches.
type DistinctStrategy int

const (
	DistinctNone DistinctStrategy = iota
	DistinctDocPath
)

// SortNode corresponds to SORT{source, order_by[]}.
type SortNode struct {
	Source  ExecutionNode
	OrderBy []OrderBySpec
}

func (*SortNode) executionNode() {}

// LimitNode corresponds to LIMIT{source, limit, offset?}.
type LimitNode struct {
	Source ExecutionNode
	Limit  int
	Offset int
	HasOffset bool
}

func (*LimitNode) executionNode() {}

// ProjectNode corresponds to PROJECT{source, fields: alias->Expression}.
type ProjectNode struct {
	Source ExecutionNode
	Fields map[string]Expression
}

func (*ProjectNode) executionNode() {}

// JoinHint, PredicateMode and PredicateOrMode are the projection hints
// spec.md §3/§4.5/§4.6 describe.
type PredicateMode int

const (
	PredicateModeAuto PredicateMode = iota
	PredicateModeRespect
)

type PredicateOrMode int

const (
	PredicateOrModeAuto PredicateOrMode = iota
	PredicateOrModeUnion
	PredicateOrModeSingleScan
)

// JoinHint requests a specific strategy be forced for every join
// (Auto lets the planner decide per pair, per spec.md §4.6 step 5).
type JoinHint int

const (
	JoinHintAuto JoinHint = iota
	JoinHintHash
	JoinHintMerge
	JoinHintIndexedNestedLoop
	JoinHintNestedLoop
)

func (h JoinHint) strategyName() string {
	switch h {
	case JoinHintHash:
		return "Hash"
	case JoinHintMerge:
		return "Merge"
	case JoinHintIndexedNestedLoop:
		return "IndexedNestedLoop"
	case JoinHintNestedLoop:
		return "NestedLoop"
	default:
		return "Auto"
	}
}

// Hints bundles a projection's optional planning hints.
type Hints struct {
	Join          JoinHint
	PredicateMode PredicateMode
	PredicateOr   PredicateOrMode
}

// Projection is the planner's input: a named set of sources, an
// optional where-predicate, ordered order-by specs, optional
// limit/offset, optional select map, and optional hints.
type Projection struct {
	From    map[string]Collection
	Where   *Predicate
	OrderBy []OrderBySpec
	Limit   int
	HasLimit  bool
	Offset    int
	HasOffset bool
	Select  map[string]Expression
	Hints   Hints
}

// Param values supported during parameter resolution: string, number
// (float64), bool, or nil.
type ParamValue = any

// Planner plans Projections against a fixed, immutable IndexCatalog
// and CostModel. It is pure: Plan neither blocks nor performs I/O and
// is safe to call concurrently once constructed.
type Planner struct {
	Catalog   *IndexCatalog
	CostModel *CostModel
}

// NewPlanner constructs a Planner. A nil catalog behaves as an empty
// one (every scan scores as "none"); a nil cost model falls back to
// DefaultCostModel.
func NewPlanner(catalog *IndexCatalog, cm *CostModel) *Planner {
	if cm == nil {
		cm = DefaultCostModel()
	}
	return &Planner{Catalog: catalog, CostModel: cm}
}

// Plan implements the top-level orchestrator of spec.md §4.7:
//
//	plan(projection, params):
//	  aliases = keys(projection.from)
//	  order = parseOrderBy(projection.orderBy, aliases)
//	  where = normalize(projection.where, aliases, params)
//	  base  = planBranch(...)
//	  node  = applySortLimit(base, order, limit, offset)
//	  return applyProjection(node, projection.select)
func (p *Planner) Plan(proj *Projection, params map[string]ParamValue) (ExecutionNode, error) {
	if len(proj.From) == 0 {
		return nil, errNoSources()
	}

	aliasSet := make(map[string]bool, len(proj.From))
	var aliasOrder []string
	for a := range proj.From {
		aliasSet[a] = true
		aliasOrder = append(aliasOrder, a)
	}

	order, err := parseOrderBy(proj.OrderBy, aliasSet)
	if err != nil {
		return nil, err
	}

	where, err := normalize(proj.Where, aliasSet, params)
	if err != nil {
		return nil, err
	}

	base, err := planBranch(proj, aliasOrder, where, order, p.Catalog, p.CostModel)
	if err != nil {
		return nil, err
	}

	node := applySortLimit(base, order, proj)
	return applyProjection(node, proj.Select), nil
}

// planBranch plans a single where-predicate (or the OR handler's
// chosen branch) over every alias, split, scanned, and joined.
func planBranch(proj *Projection, aliasOrder []string, where *Predicate, order []OrderBySpec, catalog *IndexCatalog, cm *CostModel) (ExecutionNode, error) {
	if where != nil {
		simplified := Simplify(where)
		if simplified.Kind == POr && proj.Hints.PredicateMode != PredicateModeRespect {
			return PlanDisjunction(proj, aliasOrder, simplified, order, catalog, cm)
		}
		where = simplified
	}
	return planConjunctiveBranch(proj, aliasOrder, where, order, catalog, cm)
}

// planConjunctiveBranch runs split -> per-alias scan plan -> join for
// a single conjunctive (OR-free, or hint-respected) predicate.
func planConjunctiveBranch(proj *Projection, aliasOrder []string, where *Predicate, order []OrderBySpec, catalog *IndexCatalog, cm *CostModel) (ExecutionNode, error) {
	split := Split(nonNilPredicate(where), aliasOrder)

	scans := make(map[string]*ScanPlan, len(aliasOrder))
	for _, alias := range aliasOrder {
		orderForAlias := orderBySpecsForAlias(order, alias)
		sp, err := PlanSingleScan(alias, proj.From[alias], split.SourcePredicates[alias], orderForAlias, catalog, cm)
		if err != nil {
			return nil, err
		}
		scans[alias] = sp
	}

	node, err := PlanJoins(aliasOrder, scans, split.JoinPredicates, proj.Hints.Join, catalog)
	if err != nil {
		return nil, err
	}

	for _, residual := range split.ResidualPredicates {
		node = &FilterNode{Source: node, Predicate: residual}
	}

	return node, nil
}

func nonNilPredicate(p *Predicate) *Predicate {
	if p == nil {
		return ConstantPredicate(true)
	}
	return p
}

func orderBySpecsForAlias(order []OrderBySpec, alias string) []OrderBySpec {
	var out []OrderBySpec
	for _, o := range order {
		if o.Field.Alias == alias {
			out = append(out, o)
		} else {
			break
		}
	}
	return out
}

// applySortLimit wraps node in SORT/LIMIT as the projection requires,
// skipping SORT if the subtree is already planned-sorted on the same
// key (plannedSort, §4.6).
func applySortLimit(node ExecutionNode, order []OrderBySpec, proj *Projection) ExecutionNode {
	if len(order) > 0 && !alreadySortedBy(node, order) {
		node = &SortNode{Source: node, OrderBy: order}
	}
	if proj.HasLimit || proj.HasOffset {
		node = &LimitNode{Source: node, Limit: proj.Limit, Offset: proj.Offset, HasOffset: proj.HasOffset}
	}
	return node
}

func applyProjection(node ExecutionNode, sel map[string]Expression) ExecutionNode {
	if len(sel) == 0 {
		return node
	}
	return &ProjectNode{Source: node, Fields: sel}
}
