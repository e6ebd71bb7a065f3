package planner

// MatchKind discriminates how well a declared index covers a
// constraint set, per spec.md §4.2.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchPartial
	MatchExact
)

// Direction is a declared index field's sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// IndexField is one field of a declared composite index.
type IndexField struct {
	Path      []string
	Direction Direction
}

// Scope distinguishes an index declared over a single collection from
// one declared over every collection sharing a collection-group name.
type Scope int

const (
	ScopeCollection Scope = iota
	ScopeCollectionGroup
)

// IndexDecl is one declared composite index, as ingested from the
// external catalog per spec.md §6: {collection_group, scope, fields[]}.
type IndexDecl struct {
	CollectionGroup string
	Scope           Scope
	Fields          []IndexField
}

// IndexCatalog holds every declared index. It is read-only during
// planning; construct it once and share it across Planner instances.
type IndexCatalog struct {
	decls []IndexDecl
}

// NewIndexCatalog builds a catalog from declared index records.
func NewIndexCatalog(decls ...IndexDecl) *IndexCatalog {
	c := &IndexCatalog{decls: append([]IndexDecl(nil), decls...)}
	return c
}

// Match reports how well the best declared index covers the given
// constraints and optional sort field, per spec.md §4.2: an index
// covers a constraint set when its prefix of fields contains every
// equality/membership constraint in the set (order-insensitive within
// the equality prefix), followed by at most one range field, followed
// by the sort field if present, all with compatible direction.
// Returns the match kind and, for partial matches, how many leading
// index fields were usable.
func (c *IndexCatalog) Match(collectionGroup string, collectionGroupScan bool, constraints []Constraint, sortField *Field, sortDir Direction) (MatchKind, int) {
	best := MatchNone
	bestK := 0
	for _, decl := range c.decls {
		if decl.CollectionGroup != collectionGroup {
			continue
		}
		wantScope := ScopeCollection
		if collectionGroupScan {
			wantScope = ScopeCollectionGroup
		}
		if decl.Scope != wantScope {
			continue
		}
		kind, k := matchOne(decl, constraints, sortField, sortDir)
		if kind == MatchExact {
			return MatchExact, len(decl.Fields)
		}
		if kind == MatchPartial && k > bestK {
			best, bestK = MatchPartial, k
		}
	}
	return best, bestK
}

// matchOne evaluates a single declared index against the constraint
// set and optional sort, returning how many leading fields of decl
// were consumed before the match broke down.
func matchOne(decl IndexDecl, constraints []Constraint, sortField *Field, sortDir Direction) (MatchKind, int) {
	remaining := make(map[string]Constraint, len(constraints))
	for _, c := range constraints {
		remaining[fieldPathKey(c.Field)] = c
	}

	usedSort := false
	rangeUsed := false
	i := 0
	for ; i < len(decl.Fields); i++ {
		idxField := decl.Fields[i]
		key := pathKey(idxField.Path)

		if c, ok := remaining[key]; ok {
			if c.Op.IsInequality() && !c.Op.IsSetMembership() {
				if rangeUsed {
					break
				}
				rangeUsed = true
			}
			if idxField.Direction != sortDir && c.Op.IsInequality() {
				break
			}
			delete(remaining, key)
			continue
		}

		if sortField != nil && !usedSort && pathKey(sortField.Path) == key && idxField.Direction == sortDir {
			usedSort = true
			i++
			break
		}

		break
	}

	allConsumed := len(remaining) == 0
	sortSatisfied := sortField == nil || usedSort
	if allConsumed && sortSatisfied {
		return MatchExact, i
	}
	if i == 0 {
		return MatchNone, 0
	}
	return MatchPartial, i
}

func fieldPathKey(f *Field) string {
	if f == nil {
		return ""
	}
	return pathKey(f.Path)
}

func pathKey(path []string) string {
	key := ""
	for i, p := range path {
		if i > 0 {
			key += "."
		}
		key += p
	}
	return key
}
