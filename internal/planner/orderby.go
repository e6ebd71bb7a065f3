package planner

// OrderBySpec is one entry of a projection's ordered order-by list: a
// field to sort on (qualified by alias) and its direction.
type OrderBySpec struct {
	Field     *Field
	Direction Direction
}

// parseOrderBy resolves raw order-by field paths against the known
// aliases, per spec.md §4.7's parseOrderBy step. Fields must already
// carry an alias prefix (ParseFieldPath's job, done at the edge); this
// only validates the alias is one of the projection's sources.
func parseOrderBy(raw []OrderBySpec, aliases map[string]bool) ([]OrderBySpec, error) {
	for _, spec := range raw {
		if spec.Field == nil {
			return nil, errInvalidOrderBySpec("order-by entry has no field")
		}
		if !aliases[spec.Field.Alias] {
			return nil, errUnknownAlias(spec.Field.Alias)
		}
	}
	return raw, nil
}
