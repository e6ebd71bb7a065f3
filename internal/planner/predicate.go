package planner

// Op enumerates the comparison operators a Predicate COMPARISON node
// can carry. Mirrors the operator catalog a backend-facing evaluator
// would switch on (trigo's pkg/sparql/evaluator/operators.go does the
// analogous dispatch for SPARQL's binary operators).
type Op int

const (
	Eq Op = iota
	Neq
	Lt
	Lte
	Gt
	Gte
	In
	NotIn
	ArrayContainsAny
)

func (op Op) String() string {
	switch op {
	case Eq:
		return "=="
	case Neq:
		return "!="
	case Lt:
		return "<"
	case Lte:
		return "<="
	case Gt:
		return ">"
	case Gte:
		return ">="
	case In:
		return "in"
	case NotIn:
		return "not-in"
	case ArrayContainsAny:
		return "array-contains-any"
	default:
		return "?"
	}
}

// IsInequality reports whether op is one of the inequality operators
// that consume a backend's single-inequality-field budget.
func (op Op) IsInequality() bool {
	switch op {
	case Lt, Lte, Gt, Gte, Neq, NotIn:
		return true
	default:
		return false
	}
}

// IsSetMembership reports whether op is one of the set-membership
// operators that consume a backend's single-set-membership-op budget.
func (op Op) IsSetMembership() bool {
	switch op {
	case In, NotIn, ArrayContainsAny:
		return true
	default:
		return false
	}
}

// PredicateKind discriminates the Predicate sum.
type PredicateKind int

const (
	PConstant PredicateKind = iota
	PComparison
	PAnd
	POr
	PNot
)

// Predicate is the tagged sum spec.md §3 describes: CONSTANT(bool),
// COMPARISON(op, left, right), AND(list), OR(list), NOT(operand).
type Predicate struct {
	Kind PredicateKind

	// PConstant
	BoolValue bool

	// PComparison
	Op    Op
	Left  Expression
	Right Expression

	// PAnd / POr
	Children []*Predicate

	// PNot
	Operand *Predicate
}

func ConstantPredicate(b bool) *Predicate {
	return &Predicate{Kind: PConstant, BoolValue: b}
}

func ComparisonPredicate(op Op, left, right Expression) *Predicate {
	return &Predicate{Kind: PComparison, Op: op, Left: left, Right: right}
}

func AndPredicate(children ...*Predicate) *Predicate {
	return &Predicate{Kind: PAnd, Children: children}
}

func OrPredicate(children ...*Predicate) *Predicate {
	return &Predicate{Kind: POr, Children: children}
}

func NotPredicate(operand *Predicate) *Predicate {
	return &Predicate{Kind: PNot, Operand: operand}
}

// IsTrue reports whether p is the constant CONSTANT(true).
func (p *Predicate) IsTrue() bool {
	return p != nil && p.Kind == PConstant && p.BoolValue
}

// IsFalse reports whether p is the constant CONSTANT(false).
func (p *Predicate) IsFalse() bool {
	return p != nil && p.Kind == PConstant && !p.BoolValue
}

// invertOp returns the operator that keeps a comparison's meaning when
// its operands are swapped. Set-membership operators have no
// operand-swapped form and return (0, false).
func invertOp(op Op) (Op, bool) {
	switch op {
	case Lt:
		return Gt, true
	case Lte:
		return Gte, true
	case Gt:
		return Lt, true
	case Gte:
		return Lte, true
	case Eq:
		return Eq, true
	case Neq:
		return Neq, true
	default:
		return 0, false
	}
}

// InvertComparison is the exported form of spec.md §4.1's
// invert_comparison: swapping operands requires transforming the
// operator accordingly.
func InvertComparison(op Op) (Op, bool) {
	return invertOp(op)
}

// Constraint is a push-down unit: {field, op, value}. Field is always a
// single alias-qualified Field; Value is a *Literal or a *List of
// Literals, the latter legal only alongside a set-membership Op.
type Constraint struct {
	Field *Field
	Op    Op
	Value Expression
}

// IsListValued reports whether the constraint's value is a literal
// list, the shape required for in/not-in/array-contains-any.
func (c Constraint) IsListValued() bool {
	_, ok := c.Value.(*List)
	return ok
}
