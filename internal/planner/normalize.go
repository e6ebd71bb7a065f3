package planner

// normalize resolves every Param in p to a Literal using params,
// validates that every Field's alias is one of the projection's known
// aliases (invariant 1), and returns the resulting predicate. A nil p
// normalizes to nil (callers treat a missing where-predicate as
// CONSTANT(true) further down the pipeline).
func normalize(p *Predicate, aliases map[string]bool, params map[string]ParamValue) (*Predicate, error) {
	if p == nil {
		return nil, nil
	}
	switch p.Kind {
	case PConstant:
		return p, nil
	case PComparison:
		left, err := resolveExpression(p.Left, aliases, params)
		if err != nil {
			return nil, err
		}
		right, err := resolveExpression(p.Right, aliases, params)
		if err != nil {
			return nil, err
		}
		return ComparisonPredicate(p.Op, left, right), nil
	case PNot:
		operand, err := normalize(p.Operand, aliases, params)
		if err != nil {
			return nil, err
		}
		return NotPredicate(operand), nil
	case PAnd, POr:
		children := make([]*Predicate, len(p.Children))
		for i, c := range p.Children {
			n, err := normalize(c, aliases, params)
			if err != nil {
				return nil, err
			}
			children[i] = n
		}
		return &Predicate{Kind: p.Kind, Children: children}, nil
	default:
		return nil, errUnsupportedExpression("unknown predicate kind")
	}
}

// resolveExpression validates Fields and resolves Params to Literals.
func resolveExpression(e Expression, aliases map[string]bool, params map[string]ParamValue) (Expression, error) {
	switch v := e.(type) {
	case *Field:
		if v.Alias == "" {
			return nil, errFieldMissingAlias(v.String())
		}
		if !aliases[v.Alias] {
			return nil, errUnknownAlias(v.Alias)
		}
		return v, nil
	case *Literal:
		return v, nil
	case *Param:
		val, ok := params[v.Name]
		if !ok {
			return nil, errParameterMissing(v.Name)
		}
		return literalFromParam(v.Name, val)
	case *List:
		items := make([]Expression, len(v.Items))
		for i, item := range v.Items {
			r, err := resolveExpression(item, aliases, params)
			if err != nil {
				return nil, err
			}
			items[i] = r
		}
		return &List{Items: items}, nil
	default:
		return nil, errUnsupportedExpression("unknown expression kind")
	}
}

// literalFromParam infers a LiteralType from the runtime value's Go
// type, per spec.md §4.7: string/number/boolean/null only.
func literalFromParam(name string, val ParamValue) (*Literal, error) {
	switch v := val.(type) {
	case nil:
		return NewNullLiteral(), nil
	case string:
		return NewStringLiteral(v), nil
	case bool:
		return NewBoolLiteral(v), nil
	case float64:
		return NewNumberLiteral(v), nil
	case int:
		return NewNumberLiteral(float64(v)), nil
	case int64:
		return NewNumberLiteral(float64(v)), nil
	default:
		return nil, errParameterTypeUnsupported(name)
	}
}
