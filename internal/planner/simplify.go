package planner

import (
	"fmt"
	"sort"
	"strings"
)

// Simplify performs the bottom-up rewrites spec.md §4.1 prescribes:
// AND flattens nested ANDs, drops true children, collapses to true
// when empty or to the sole child when singleton, and short-circuits
// to false on any false child; OR is the dual; NOT(NOT x) -> x and
// NOT(CONSTANT b) -> CONSTANT !b. The rewrite is idempotent and sound.
func Simplify(p *Predicate) *Predicate {
	if p == nil {
		return ConstantPredicate(true)
	}
	switch p.Kind {
	case PConstant, PComparison:
		return p
	case PNot:
		operand := Simplify(p.Operand)
		switch {
		case operand.Kind == PConstant:
			return ConstantPredicate(!operand.BoolValue)
		case operand.Kind == PNot:
			return operand.Operand
		default:
			return NotPredicate(operand)
		}
	case PAnd:
		return simplifyAssoc(p, true)
	case POr:
		return simplifyAssoc(p, false)
	default:
		return p
	}
}

// simplifyAssoc implements the shared AND/OR flatten-and-fold logic;
// isAnd selects AND semantics (drop true, short-circuit false) versus
// OR's dual (drop false, short-circuit true).
func simplifyAssoc(p *Predicate, isAnd bool) *Predicate {
	kind := PAnd
	if !isAnd {
		kind = POr
	}
	identity, annihilator := true, false
	if !isAnd {
		identity, annihilator = false, true
	}

	var flat []*Predicate
	var flatten func(child *Predicate)
	flatten = func(child *Predicate) {
		s := Simplify(child)
		if s.Kind == kind {
			for _, c := range s.Children {
				flatten(c)
			}
			return
		}
		flat = append(flat, s)
	}
	for _, c := range p.Children {
		flatten(c)
	}

	var kept []*Predicate
	for _, c := range flat {
		if c.Kind == PConstant {
			if c.BoolValue != identity {
				return ConstantPredicate(annihilator)
			}
			continue
		}
		kept = append(kept, c)
	}

	switch len(kept) {
	case 0:
		return ConstantPredicate(identity)
	case 1:
		return kept[0]
	default:
		return &Predicate{Kind: kind, Children: kept}
	}
}

// pushNegation applies De Morgan's laws recursively so that only atoms
// (COMPARISON, CONSTANT) carry a NOT.
func pushNegation(p *Predicate, negate bool) *Predicate {
	switch p.Kind {
	case PConstant:
		if negate {
			return ConstantPredicate(!p.BoolValue)
		}
		return p
	case PComparison:
		if !negate {
			return p
		}
		if isNegatableComparison(p.Op) {
			return ComparisonPredicate(negateMembership(p.Op), p.Left, p.Right)
		}
		return NotPredicate(p)
	case PNot:
		return pushNegation(p.Operand, !negate)
	case PAnd:
		kind := POr
		if !negate {
			kind = PAnd
		}
		children := make([]*Predicate, len(p.Children))
		for i, c := range p.Children {
			children[i] = pushNegation(c, negate)
		}
		return &Predicate{Kind: kind, Children: children}
	case POr:
		kind := PAnd
		if !negate {
			kind = POr
		}
		children := make([]*Predicate, len(p.Children))
		for i, c := range p.Children {
			children[i] = pushNegation(c, negate)
		}
		return &Predicate{Kind: kind, Children: children}
	default:
		return p
	}
}

// isNegatableComparison reports whether op has a direct negated form
// among the comparison operators (==/!= and the four orderings);
// set-membership ops do not and fall back to wrapping in NOT.
func isNegatableComparison(op Op) bool {
	switch op {
	case Eq, Neq, Lt, Lte, Gt, Gte:
		return true
	default:
		return false
	}
}

// negateMembership maps op to its logical negation, for the ops
// isNegatableComparison allows. Distinct from invertOp, which swaps
// operands rather than negating the comparison.
func negateMembership(op Op) Op {
	switch op {
	case Eq:
		return Neq
	case Neq:
		return Eq
	case Lt:
		return Gte
	case Lte:
		return Gt
	case Gt:
		return Lte
	case Gte:
		return Lt
	default:
		return op
	}
}

// ToDNF converts p to disjunctive normal form per spec.md §4.1: push
// NOT through De Morgan until only atoms carry negation, then
// distribute AND over OR. The result is either a single atom/AND of
// atoms, or OR(C1,...,Cn) where each Ci is an atom or an AND of atoms.
func ToDNF(p *Predicate) *Predicate {
	s := Simplify(p)
	n := pushNegation(s, false)
	n = Simplify(n)
	d := distribute(n)
	return Simplify(d)
}

// distribute expands AND over OR recursively until the only ORs
// remaining are a top-level disjunction of conjunctions.
func distribute(p *Predicate) *Predicate {
	switch p.Kind {
	case PAnd:
		children := make([]*Predicate, len(p.Children))
		for i, c := range p.Children {
			children[i] = distribute(c)
		}
		return distributeAnd(children)
	case POr:
		children := make([]*Predicate, len(p.Children))
		for i, c := range p.Children {
			children[i] = distribute(c)
		}
		return &Predicate{Kind: POr, Children: children}
	default:
		return p
	}
}

// distributeAnd distributes AND across any OR children, producing
// OR(AND(...), AND(...), ...).
func distributeAnd(children []*Predicate) *Predicate {
	conjuncts := [][]*Predicate{{}}
	for _, c := range children {
		if c.Kind == POr {
			var next [][]*Predicate
			for _, existing := range conjuncts {
				for _, disjunct := range c.Children {
					branch := append(append([]*Predicate{}, existing...), disjunct)
					next = append(next, branch)
				}
			}
			conjuncts = next
			continue
		}
		for i := range conjuncts {
			conjuncts[i] = append(conjuncts[i], c)
		}
	}
	if len(conjuncts) == 1 {
		return &Predicate{Kind: PAnd, Children: conjuncts[0]}
	}
	disjuncts := make([]*Predicate, len(conjuncts))
	for i, conj := range conjuncts {
		disjuncts[i] = &Predicate{Kind: PAnd, Children: conj}
	}
	return &Predicate{Kind: POr, Children: disjuncts}
}

// CanonicalKey produces a stable string key for structural equality
// modulo child order inside AND/OR (children are sorted by their own
// key first). Used to detect the common factor shared by every DNF
// disjunct.
func CanonicalKey(p *Predicate) string {
	if p == nil {
		return "T"
	}
	switch p.Kind {
	case PConstant:
		return fmt.Sprintf("C(%v)", p.BoolValue)
	case PComparison:
		return fmt.Sprintf("X(%s,%s,%s)", exprKey(p.Left), p.Op, exprKey(p.Right))
	case PNot:
		return "N(" + CanonicalKey(p.Operand) + ")"
	case PAnd, POr:
		keys := make([]string, len(p.Children))
		for i, c := range p.Children {
			keys[i] = CanonicalKey(c)
		}
		sort.Strings(keys)
		tag := "A"
		if p.Kind == POr {
			tag = "O"
		}
		return tag + "(" + strings.Join(keys, ";") + ")"
	default:
		return "?"
	}
}

func exprKey(e Expression) string {
	switch v := e.(type) {
	case *Field:
		return "F:" + v.String()
	case *Literal:
		return fmt.Sprintf("L:%d:%v", v.Type, v.Value)
	case *Param:
		return "P:" + v.Name
	case *List:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = exprKey(item)
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return "?"
	}
}

// IsHashJoinCompatible reports whether p is a single equality
// comparison between two Fields, or an AND of such comparisons.
func IsHashJoinCompatible(p *Predicate) bool {
	switch p.Kind {
	case PComparison:
		return isFieldEquality(p)
	case PAnd:
		for _, c := range p.Children {
			if !isFieldEquality(c) {
				return false
			}
		}
		return len(p.Children) > 0
	default:
		return false
	}
}

func isFieldEquality(p *Predicate) bool {
	if p.Kind != PComparison || p.Op != Eq {
		return false
	}
	_, lok := p.Left.(*Field)
	_, rok := p.Right.(*Field)
	return lok && rok
}

// IsMergeJoinCompatible reports whether p is a single equality between
// two Fields. Conjunctions are not merge-joinable directly in this
// design.
func IsMergeJoinCompatible(p *Predicate) bool {
	return p.Kind == PComparison && isFieldEquality(p)
}
