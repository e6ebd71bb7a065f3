package planner

import "fmt"

// Kind discriminates the structured planning failures a Planner can
// return. Callers branch on Kind rather than matching error strings.
type Kind int

const (
	NoSources Kind = iota
	UnknownAlias
	FieldMissingAlias
	ParameterMissing
	ParameterTypeUnsupported
	MultipleInequalityFields
	OrderByMustMatchInequalityField
	JoinHintIncompatible
	InvalidOrderBySpec
	UnsupportedExpression
)

func (k Kind) String() string {
	switch k {
	case NoSources:
		return "NoSources"
	case UnknownAlias:
		return "UnknownAlias"
	case FieldMissingAlias:
		return "FieldMissingAlias"
	case ParameterMissing:
		return "ParameterMissing"
	case ParameterTypeUnsupported:
		return "ParameterTypeUnsupported"
	case MultipleInequalityFields:
		return "MultipleInequalityFields"
	case OrderByMustMatchInequalityField:
		return "OrderByMustMatchInequalityField"
	case JoinHintIncompatible:
		return "JoinHintIncompatible"
	case InvalidOrderBySpec:
		return "InvalidOrderBySpec"
	case UnsupportedExpression:
		return "UnsupportedExpression"
	default:
		return "Unknown"
	}
}

// Error is the structured value every planning failure surfaces as.
// Name/Fields/Strategy carry the payload spec.md §7 attaches to
// specific kinds (e.g. MultipleInequalityFields(fields[])).
type Error struct {
	Kind     Kind
	Name     string   // alias, parameter name, or field path, depending on Kind
	Fields   []string // inequality field paths, for MultipleInequalityFields
	Strategy string   // join strategy name, for JoinHintIncompatible
	Detail   string   // free-form context, e.g. a malformed order-by spec
}

func (e *Error) Error() string {
	switch e.Kind {
	case NoSources:
		return "planner: projection has no sources"
	case UnknownAlias:
		return fmt.Sprintf("planner: unknown alias %q", e.Name)
	case FieldMissingAlias:
		return fmt.Sprintf("planner: field path %q has no alias prefix", e.Name)
	case ParameterMissing:
		return fmt.Sprintf("planner: parameter %q was referenced but not supplied", e.Name)
	case ParameterTypeUnsupported:
		return fmt.Sprintf("planner: parameter %q has an unsupported type", e.Name)
	case MultipleInequalityFields:
		return fmt.Sprintf("planner: more than one inequality field pushed into a scan: %v", e.Fields)
	case OrderByMustMatchInequalityField:
		return fmt.Sprintf("planner: order-by's leading field must match the scan's inequality field (%s)", e.Name)
	case JoinHintIncompatible:
		return fmt.Sprintf("planner: forced join strategy %q is not compatible with the join predicate", e.Strategy)
	case InvalidOrderBySpec:
		return fmt.Sprintf("planner: invalid order-by spec: %s", e.Detail)
	case UnsupportedExpression:
		return fmt.Sprintf("planner: expression has no planning interpretation: %s", e.Detail)
	default:
		return "planner: planning failed"
	}
}

func errNoSources() error { return &Error{Kind: NoSources} }

func errUnknownAlias(alias string) error { return &Error{Kind: UnknownAlias, Name: alias} }

func errFieldMissingAlias(path string) error {
	return &Error{Kind: FieldMissingAlias, Name: path}
}

func errParameterMissing(name string) error {
	return &Error{Kind: ParameterMissing, Name: name}
}

func errParameterTypeUnsupported(name string) error {
	return &Error{Kind: ParameterTypeUnsupported, Name: name}
}

func errMultipleInequalityFields(fields []string) error {
	return &Error{Kind: MultipleInequalityFields, Fields: fields}
}

func errOrderByMustMatchInequalityField(field string) error {
	return &Error{Kind: OrderByMustMatchInequalityField, Name: field}
}

func errJoinHintIncompatible(strategy string) error {
	return &Error{Kind: JoinHintIncompatible, Strategy: strategy}
}

func errInvalidOrderBySpec(detail string) error {
	return &Error{Kind: InvalidOrderBySpec, Detail: detail}
}

func errUnsupportedExpression(detail string) error {
	return &Error{Kind: UnsupportedExpression, Detail: detail}
}
