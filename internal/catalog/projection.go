package catalog

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aleksaelezovic/docplan/internal/planner"
)

// projectionDoc is the JSON shape cmd/docplan's "explain" subcommand
// reads: a hand-editable rendering of a planner.Projection.
type projectionDoc struct {
	From    map[string]collectionDoc `json:"from"`
	Where   *predicateDoc            `json:"where"`
	OrderBy []orderByDoc             `json:"order_by"`
	Limit   *int                     `json:"limit"`
	Offset  *int                     `json:"offset"`
	Select  map[string]expressionDoc `json:"select"`
	Hints   *hintsDoc                `json:"hints"`
	Params  map[string]any           `json:"params"`
}

type collectionDoc struct {
	Path          []string `json:"path"`
	CollectionGrp bool     `json:"collection_group"`
}

type orderByDoc struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

type hintsDoc struct {
	Join          string `json:"join"`
	PredicateMode string `json:"predicate_mode"`
	PredicateOr   string `json:"predicate_or"`
}

// expressionDoc is a tagged union over {"field": "alias.path"},
// {"literal": value}, {"param": "name"}, or {"list": [...]}.
type expressionDoc struct {
	Field   string          `json:"field,omitempty"`
	Literal json.RawMessage `json:"literal,omitempty"`
	Param   string          `json:"param,omitempty"`
	List    []expressionDoc `json:"list,omitempty"`
}

// predicateDoc is a tagged union over the five Predicate kinds.
type predicateDoc struct {
	Const *bool           `json:"const,omitempty"`
	Op    string          `json:"op,omitempty"`
	Left  *expressionDoc  `json:"left,omitempty"`
	Right *expressionDoc  `json:"right,omitempty"`
	And   []predicateDoc  `json:"and,omitempty"`
	Or    []predicateDoc  `json:"or,omitempty"`
	Not   *predicateDoc   `json:"not,omitempty"`
}

// LoadProjection reads a JSON-encoded projection from r, suitable for
// cmd/docplan's "explain" subcommand. Parameter references ({"param":
// "name"}) are left unresolved as planner.Param values; the returned
// params map (decoded from the document's own top-level "params" key)
// is what Plan should be called with to resolve them.
func LoadProjection(r io.Reader) (*planner.Projection, map[string]planner.ParamValue, error) {
	var doc projectionDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("catalog: failed to decode projection: %w", err)
	}

	from := make(map[string]planner.Collection, len(doc.From))
	for alias, c := range doc.From {
		from[alias] = planner.Collection{Path: c.Path, CollectionGrp: c.CollectionGrp}
	}

	var where *planner.Predicate
	if doc.Where != nil {
		var err error
		where, err = decodePredicate(*doc.Where)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog: where: %w", err)
		}
	}

	orderBy := make([]planner.OrderBySpec, 0, len(doc.OrderBy))
	for i, o := range doc.OrderBy {
		field, err := planner.ParseFieldPath(o.Field)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog: order_by %d: %w", i, err)
		}
		dir, err := decodeDirection(o.Direction)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog: order_by %d: %w", i, err)
		}
		orderBy = append(orderBy, planner.OrderBySpec{Field: field, Direction: dir})
	}

	var sel map[string]planner.Expression
	if len(doc.Select) > 0 {
		sel = make(map[string]planner.Expression, len(doc.Select))
		for alias, e := range doc.Select {
			expr, err := decodeExpression(e)
			if err != nil {
				return nil, nil, fmt.Errorf("catalog: select %q: %w", alias, err)
			}
			sel[alias] = expr
		}
	}

	proj := &planner.Projection{
		From:    from,
		Where:   where,
		OrderBy: orderBy,
		Select:  sel,
	}
	if doc.Limit != nil {
		proj.Limit = *doc.Limit
		proj.HasLimit = true
	}
	if doc.Offset != nil {
		proj.Offset = *doc.Offset
		proj.HasOffset = true
	}
	if doc.Hints != nil {
		hints, err := decodeHints(*doc.Hints)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog: hints: %w", err)
		}
		proj.Hints = hints
	}

	var params map[string]planner.ParamValue
	if len(doc.Params) > 0 {
		params = make(map[string]planner.ParamValue, len(doc.Params))
		for k, v := range doc.Params {
			params[k] = v
		}
	}
	return proj, params, nil
}

func decodeHints(d hintsDoc) (planner.Hints, error) {
	var h planner.Hints
	switch d.Join {
	case "", "auto":
		h.Join = planner.JoinHintAuto
	case "hash":
		h.Join = planner.JoinHintHash
	case "merge":
		h.Join = planner.JoinHintMerge
	case "indexed_nested_loop":
		h.Join = planner.JoinHintIndexedNestedLoop
	case "nested_loop":
		h.Join = planner.JoinHintNestedLoop
	default:
		return h, fmt.Errorf("unknown join hint %q", d.Join)
	}
	switch d.PredicateMode {
	case "", "auto":
		h.PredicateMode = planner.PredicateModeAuto
	case "respect":
		h.PredicateMode = planner.PredicateModeRespect
	default:
		return h, fmt.Errorf("unknown predicate_mode hint %q", d.PredicateMode)
	}
	switch d.PredicateOr {
	case "", "auto":
		h.PredicateOr = planner.PredicateOrModeAuto
	case "union":
		h.PredicateOr = planner.PredicateOrModeUnion
	case "single_scan":
		h.PredicateOr = planner.PredicateOrModeSingleScan
	default:
		return h, fmt.Errorf("unknown predicate_or hint %q", d.PredicateOr)
	}
	return h, nil
}

func decodeExpression(e expressionDoc) (planner.Expression, error) {
	switch {
	case e.Field != "":
		return planner.ParseFieldPath(e.Field)
	case e.Param != "":
		return &planner.Param{Name: e.Param}, nil
	case e.List != nil:
		items := make([]planner.Expression, 0, len(e.List))
		for i, item := range e.List {
			expr, err := decodeExpression(item)
			if err != nil {
				return nil, fmt.Errorf("list item %d: %w", i, err)
			}
			items = append(items, expr)
		}
		return &planner.List{Items: items}, nil
	case e.Literal != nil:
		return decodeLiteral(e.Literal)
	default:
		return nil, fmt.Errorf("empty expression")
	}
}

func decodeLiteral(raw json.RawMessage) (*planner.Literal, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("invalid literal: %w", err)
	}
	switch val := v.(type) {
	case nil:
		return planner.NewNullLiteral(), nil
	case string:
		return planner.NewStringLiteral(val), nil
	case bool:
		return planner.NewBoolLiteral(val), nil
	case float64:
		return planner.NewNumberLiteral(val), nil
	default:
		return nil, fmt.Errorf("unsupported literal type %T", v)
	}
}

func decodePredicate(d predicateDoc) (*planner.Predicate, error) {
	switch {
	case d.Const != nil:
		return planner.ConstantPredicate(*d.Const), nil
	case d.And != nil:
		children, err := decodePredicates(d.And)
		if err != nil {
			return nil, err
		}
		return planner.AndPredicate(children...), nil
	case d.Or != nil:
		children, err := decodePredicates(d.Or)
		if err != nil {
			return nil, err
		}
		return planner.OrPredicate(children...), nil
	case d.Not != nil:
		operand, err := decodePredicate(*d.Not)
		if err != nil {
			return nil, err
		}
		return planner.NotPredicate(operand), nil
	case d.Op != "":
		op, err := decodeOp(d.Op)
		if err != nil {
			return nil, err
		}
		if d.Left == nil || d.Right == nil {
			return nil, fmt.Errorf("comparison missing left/right")
		}
		left, err := decodeExpression(*d.Left)
		if err != nil {
			return nil, fmt.Errorf("left: %w", err)
		}
		right, err := decodeExpression(*d.Right)
		if err != nil {
			return nil, fmt.Errorf("right: %w", err)
		}
		return planner.ComparisonPredicate(op, left, right), nil
	default:
		return nil, fmt.Errorf("empty predicate")
	}
}

func decodePredicates(docs []predicateDoc) ([]*planner.Predicate, error) {
	out := make([]*planner.Predicate, 0, len(docs))
	for i, d := range docs {
		p, err := decodePredicate(d)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func decodeOp(raw string) (planner.Op, error) {
	switch raw {
	case "eq":
		return planner.Eq, nil
	case "neq":
		return planner.Neq, nil
	case "lt":
		return planner.Lt, nil
	case "lte":
		return planner.Lte, nil
	case "gt":
		return planner.Gt, nil
	case "gte":
		return planner.Gte, nil
	case "in":
		return planner.In, nil
	case "not_in":
		return planner.NotIn, nil
	case "array_contains_any":
		return planner.ArrayContainsAny, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", raw)
	}
}
