// Package catalog loads an index catalog declaration from JSON into a
// planner.IndexCatalog, grounded on trigo's internal/server handlers
// decoding request bodies with encoding/json (internal/server/server.go's
// handleDataUpload/handleSPARQL). The planner core never touches JSON
// itself; this package is the one boundary that does.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aleksaelezovic/docplan/internal/planner"
)

// indexFieldDoc is the wire shape of one IndexField: {"path": [...],
// "direction": "asc"|"desc"}.
type indexFieldDoc struct {
	Path      []string `json:"path"`
	Direction string   `json:"direction"`
}

// indexDeclDoc is the wire shape of one declared index, per spec.md §6:
// {"collection_group": "...", "scope": "collection"|"collection_group",
// "fields": [...]}.
type indexDeclDoc struct {
	CollectionGroup string          `json:"collection_group"`
	Scope           string          `json:"scope"`
	Fields          []indexFieldDoc `json:"fields"`
}

// Load reads a JSON array of declared indexes from r and builds a
// planner.IndexCatalog from them.
func Load(r io.Reader) (*planner.IndexCatalog, error) {
	var docs []indexDeclDoc
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("catalog: failed to decode index declarations: %w", err)
	}

	decls := make([]planner.IndexDecl, 0, len(docs))
	for i, d := range docs {
		decl, err := decodeIndexDecl(d)
		if err != nil {
			return nil, fmt.Errorf("catalog: index declaration %d: %w", i, err)
		}
		decls = append(decls, decl)
	}
	return planner.NewIndexCatalog(decls...), nil
}

func decodeIndexDecl(d indexDeclDoc) (planner.IndexDecl, error) {
	if d.CollectionGroup == "" {
		return planner.IndexDecl{}, fmt.Errorf("missing collection_group")
	}

	scope, err := decodeScope(d.Scope)
	if err != nil {
		return planner.IndexDecl{}, err
	}

	fields := make([]planner.IndexField, 0, len(d.Fields))
	for j, f := range d.Fields {
		if len(f.Path) == 0 {
			return planner.IndexDecl{}, fmt.Errorf("field %d: missing path", j)
		}
		dir, err := decodeDirection(f.Direction)
		if err != nil {
			return planner.IndexDecl{}, fmt.Errorf("field %d: %w", j, err)
		}
		fields = append(fields, planner.IndexField{Path: f.Path, Direction: dir})
	}

	return planner.IndexDecl{
		CollectionGroup: d.CollectionGroup,
		Scope:           scope,
		Fields:          fields,
	}, nil
}

func decodeScope(raw string) (planner.Scope, error) {
	switch raw {
	case "", "collection":
		return planner.ScopeCollection, nil
	case "collection_group":
		return planner.ScopeCollectionGroup, nil
	default:
		return 0, fmt.Errorf("unknown scope %q", raw)
	}
}

func decodeDirection(raw string) (planner.Direction, error) {
	switch raw {
	case "", "asc":
		return planner.Asc, nil
	case "desc":
		return planner.Desc, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", raw)
	}
}
