package planner

import "strings"

// LiteralType tags the runtime shape carried by a Literal.
type LiteralType int

const (
	LiteralString LiteralType = iota
	LiteralNumber
	LiteralBool
	LiteralNull
)

// Expression is the closed sum of things that can appear on either
// side of a Predicate comparison: a document field, a literal value, a
// named parameter (resolved away during normalization), or a list of
// expressions (legal only as the right-hand side of a set-membership
// comparison).
type Expression interface {
	expressionNode()
}

// Field references a path inside one source's documents. Path
// segments prefixed with "#" address document metadata (#id, #path,
// #collection, #parent) rather than document body fields.
type Field struct {
	Alias string
	Path  []string
}

func (*Field) expressionNode() {}

// NewField builds a Field from an alias and dotted path segments.
func NewField(alias string, path ...string) *Field {
	return &Field{Alias: alias, Path: path}
}

// ParseFieldPath parses the "alias.a.b" surface convenience into a
// structured Field. Parsing happens at the edge; the core only ever
// operates on Field values built this way or directly by a caller.
func ParseFieldPath(raw string) (*Field, error) {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 || parts[0] == "" {
		return nil, errFieldMissingAlias(raw)
	}
	return &Field{Alias: parts[0], Path: parts[1:]}, nil
}

func (f *Field) String() string {
	return f.Alias + "." + strings.Join(f.Path, ".")
}

// IsMetadata reports whether this field addresses document metadata
// (a path segment prefixed with "#") rather than the document body.
func (f *Field) IsMetadata() bool {
	return len(f.Path) > 0 && strings.HasPrefix(f.Path[0], "#")
}

// Equal reports structural equality of two fields.
func (f *Field) Equal(other *Field) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.Alias != other.Alias || len(f.Path) != len(other.Path) {
		return false
	}
	for i := range f.Path {
		if f.Path[i] != other.Path[i] {
			return false
		}
	}
	return true
}

// Literal is a typed constant. Param{name} is always resolved to a
// Literal during normalization, inferring LiteralType from the
// supplied runtime value.
type Literal struct {
	Type  LiteralType
	Value any
}

func (*Literal) expressionNode() {}

func NewStringLiteral(v string) *Literal  { return &Literal{Type: LiteralString, Value: v} }
func NewNumberLiteral(v float64) *Literal { return &Literal{Type: LiteralNumber, Value: v} }
func NewBoolLiteral(v bool) *Literal      { return &Literal{Type: LiteralBool, Value: v} }
func NewNullLiteral() *Literal            { return &Literal{Type: LiteralNull, Value: nil} }

// Equal reports value equality between two literals.
func (l *Literal) Equal(other *Literal) bool {
	if l == nil || other == nil {
		return l == other
	}
	if l.Type != other.Type {
		return false
	}
	return l.Value == other.Value
}

// Param is a named placeholder resolved to a Literal during
// normalization; it never appears in a normalized Predicate.
type Param struct {
	Name string
}

func (*Param) expressionNode() {}

// List is a list of expressions, legal only as the right-hand side of
// a set-membership comparison (in, not-in, array-contains-any).
type List struct {
	Items []Expression
}

func (*List) expressionNode() {}

// NewLiteralList builds a List out of Literals, the common case once a
// Projection's Params have been resolved.
func NewLiteralList(values ...*Literal) *List {
	items := make([]Expression, len(values))
	for i, v := range values {
		items[i] = v
	}
	return &List{Items: items}
}

// AsLiterals returns the list's items as Literals, failing if any item
// is not a Literal (e.g. still an unresolved Param or a nested Field).
func (l *List) AsLiterals() ([]*Literal, bool) {
	out := make([]*Literal, len(l.Items))
	for i, item := range l.Items {
		lit, ok := item.(*Literal)
		if !ok {
			return nil, false
		}
		out[i] = lit
	}
	return out, true
}

// Collection is a path built from literal segments, optionally marked
// as a collection-group scan (match every collection with that leaf
// name, at any depth).
type Collection struct {
	Path          []string
	CollectionGrp bool
}

// NewCollection builds a plain (non-group) collection path, e.g.
// NewCollection("users", "42", "orders") for "users/42/orders".
func NewCollection(segments ...string) Collection {
	return Collection{Path: append([]string(nil), segments...)}
}

// NewCollectionGroup builds a collection-group scan over every
// collection named leaf, regardless of parent path.
func NewCollectionGroup(leaf string) Collection {
	return Collection{Path: []string{leaf}, CollectionGrp: true}
}

func (c Collection) String() string {
	return strings.Join(c.Path, "/")
}

// LeafName returns the final path segment, the collection-group match
// key.
func (c Collection) LeafName() string {
	if len(c.Path) == 0 {
		return ""
	}
	return c.Path[len(c.Path)-1]
}
