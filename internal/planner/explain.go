package planner

import (
	"fmt"
	"strings"
)

// Explain renders an ExecutionNode tree as an indented, human-readable
// string, useful for tests and for cmd/docplan's explain subcommand.
func Explain(node ExecutionNode) string {
	var b strings.Builder
	explainNode(&b, node, 0)
	return b.String()
}

func explainNode(b *strings.Builder, node ExecutionNode, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := node.(type) {
	case *ScanNode:
		fmt.Fprintf(b, "%sSCAN %s AS %s", indent, n.Collection, n.Alias)
		if n.Collection.CollectionGrp {
			fmt.Fprintf(b, " (group)")
		}
		if len(n.Constraints) > 0 {
			fmt.Fprintf(b, " constraints=%s", explainConstraints(n.Constraints))
		}
		if len(n.OrderBy) > 0 {
			fmt.Fprintf(b, " orderBy=%s", explainOrderBy(n.OrderBy))
		}
		b.WriteString("\n")
	case *FilterNode:
		fmt.Fprintf(b, "%sFILTER %s\n", indent, explainPredicate(n.Predicate))
		explainNode(b, n.Source, depth+1)
	case *JoinNode:
		fmt.Fprintf(b, "%sJOIN[%s] cross=%v cond=%s\n", indent, n.Strategy, n.CrossProduct, explainPredicate(n.Condition))
		explainNode(b, n.Left, depth+1)
		explainNode(b, n.Right, depth+1)
	case *UnionNode:
		fmt.Fprintf(b, "%sUNION distinct=%s\n", indent, explainDistinct(n.DistinctStrategy))
		for _, in := range n.Inputs {
			explainNode(b, in, depth+1)
		}
	case *SortNode:
		fmt.Fprintf(b, "%sSORT %s\n", indent, explainOrderBy(n.OrderBy))
		explainNode(b, n.Source, depth+1)
	case *LimitNode:
		fmt.Fprintf(b, "%sLIMIT %d", indent, n.Limit)
		if n.HasOffset {
			fmt.Fprintf(b, " OFFSET %d", n.Offset)
		}
		b.WriteString("\n")
		explainNode(b, n.Source, depth+1)
	case *ProjectNode:
		fmt.Fprintf(b, "%sPROJECT %s\n", indent, explainFields(n.Fields))
		explainNode(b, n.Source, depth+1)
	default:
		fmt.Fprintf(b, "%s<unknown node>\n", indent)
	}
}

func explainConstraints(cs []Constraint) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%s %s %s", c.Field, c.Op, explainExpr(c.Value))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func explainOrderBy(obs []OrderBySpec) string {
	parts := make([]string, len(obs))
	for i, o := range obs {
		dir := "asc"
		if o.Direction == Desc {
			dir = "desc"
		}
		parts[i] = fmt.Sprintf("%s %s", o.Field, dir)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func explainDistinct(d DistinctStrategy) string {
	if d == DistinctDocPath {
		return "DocPath"
	}
	return "none"
}

func explainFields(fields map[string]Expression) string {
	parts := make([]string, 0, len(fields))
	for alias, expr := range fields {
		parts = append(parts, fmt.Sprintf("%s=%s", alias, explainExpr(expr)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func explainExpr(e Expression) string {
	switch v := e.(type) {
	case *Field:
		return v.String()
	case *Literal:
		return fmt.Sprintf("%v", v.Value)
	case *Param:
		return "$" + v.Name
	case *List:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = explainExpr(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "?"
	}
}

func explainPredicate(p *Predicate) string {
	if p == nil {
		return "true"
	}
	switch p.Kind {
	case PConstant:
		return fmt.Sprintf("%v", p.BoolValue)
	case PComparison:
		return fmt.Sprintf("%s %s %s", explainExpr(p.Left), p.Op, explainExpr(p.Right))
	case PNot:
		return "NOT(" + explainPredicate(p.Operand) + ")"
	case PAnd:
		return "(" + joinPredicates(p.Children, " AND ") + ")"
	case POr:
		return "(" + joinPredicates(p.Children, " OR ") + ")"
	default:
		return "?"
	}
}

func joinPredicates(ps []*Predicate, sep string) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = explainPredicate(p)
	}
	return strings.Join(parts, sep)
}
