// Package docexec is a thin Volcano-style interpreter over
// planner.ExecutionNode, grounded on trigo's
// internal/sparql/executor.Executor: a createIterator dispatch over
// plan node kinds, and a family of concrete iterators
// (scan/join/filter/limit/distinct) each wrapping its child. Retargeted
// from store.Binding (SPARQL variable bindings) to Row (alias ->
// *docstore.Document), since the plan this module executes joins
// whole documents rather than binding individual RDF terms.
//
// This package executes plans; it is explicitly outside
// internal/planner's scope and the planner never imports it.
package docexec

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/aleksaelezovic/docplan/internal/docstore"
	"github.com/aleksaelezovic/docplan/internal/planner"
	"github.com/zeebo/xxh3"
)

// Row is one joined tuple: a document per alias participating in it.
type Row map[string]*docstore.Document

func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RowIterator is the executor's common iterator shape: Next advances,
// Row returns the current tuple, Close releases resources.
type RowIterator interface {
	Next() bool
	Row() Row
	Close() error
}

// Executor runs a planner.ExecutionNode tree against a docstore.Store.
type Executor struct {
	store *docstore.Store
}

func NewExecutor(store *docstore.Store) *Executor {
	return &Executor{store: store}
}

// Run executes the full tree and materializes every resulting row.
func (e *Executor) Run(node planner.ExecutionNode) ([]Row, error) {
	it, err := e.createIterator(node)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var rows []Row
	for it.Next() {
		rows = append(rows, it.Row().clone())
	}
	return rows, nil
}

func (e *Executor) createIterator(node planner.ExecutionNode) (RowIterator, error) {
	switch n := node.(type) {
	case *planner.ScanNode:
		return e.createScanIterator(n)
	case *planner.FilterNode:
		return e.createFilterIterator(n)
	case *planner.JoinNode:
		return e.createJoinIterator(n)
	case *planner.UnionNode:
		return e.createUnionIterator(n)
	case *planner.SortNode:
		return e.createSortIterator(n)
	case *planner.LimitNode:
		return e.createLimitIterator(n)
	case *planner.ProjectNode:
		return e.createProjectIterator(n)
	default:
		return nil, fmt.Errorf("docexec: no iterator for node type %T", node)
	}
}

type scanIterator struct {
	alias string
	rows  []Row
	pos   int
}

func (e *Executor) createScanIterator(n *planner.ScanNode) (RowIterator, error) {
	var docs []docstore.Document
	var err error
	if n.Collection.CollectionGrp {
		docs, err = e.store.ScanCollectionGroup(n.Collection.LeafName())
	} else {
		docs, err = e.store.ScanCollection(n.Collection.String())
	}
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(docs))
	for i := range docs {
		doc := docs[i]
		if !matchesConstraints(&doc, n.Constraints) {
			continue
		}
		rows = append(rows, Row{n.Alias: &doc})
	}
	applyOrderBy(rows, n.Alias, n.OrderBy)
	return &scanIterator{alias: n.Alias, rows: rows}, nil
}

func (it *scanIterator) Next() bool {
	if it.pos >= len(it.rows) {
		return false
	}
	it.pos++
	return true
}

func (it *scanIterator) Row() Row   { return it.rows[it.pos-1] }
func (it *scanIterator) Close() error { return nil }

// matchesConstraints emulates, in memory, what a real constrained
// backend would have filtered natively — the planner assumes a SCAN's
// constraints are authoritative, so the demo executor must honor them
// the same way.
func matchesConstraints(doc *docstore.Document, constraints []planner.Constraint) bool {
	for _, c := range constraints {
		if !evalComparison(doc, c.Field, c.Op, c.Value) {
			return false
		}
	}
	return true
}

type filterIterator struct {
	input     RowIterator
	predicate *planner.Predicate
	current   Row
}

func (e *Executor) createFilterIterator(n *planner.FilterNode) (RowIterator, error) {
	input, err := e.createIterator(n.Source)
	if err != nil {
		return nil, err
	}
	return &filterIterator{input: input, predicate: n.Predicate}, nil
}

func (it *filterIterator) Next() bool {
	for it.input.Next() {
		row := it.input.Row()
		if evalPredicate(row, it.predicate) {
			it.current = row
			return true
		}
	}
	return false
}

func (it *filterIterator) Row() Row     { return it.current }
func (it *filterIterator) Close() error { return it.input.Close() }

type materializedJoin struct {
	rows []Row
	pos  int
}

func (it *materializedJoin) Next() bool {
	if it.pos >= len(it.rows) {
		return false
	}
	it.pos++
	return true
}
func (it *materializedJoin) Row() Row     { return it.rows[it.pos-1] }
func (it *materializedJoin) Close() error { return nil }

// createJoinIterator executes every strategy with the same semantics
// (hash/merge/indexed-nested-loop/nested-loop all produce the same
// result set); the strategies differ only in the access pattern a real
// executor would use, which this demo collapses into "materialize both
// sides, match in memory" since it only needs to prove the plan is
// executable, not fast.
func (e *Executor) createJoinIterator(n *planner.JoinNode) (RowIterator, error) {
	leftIter, err := e.createIterator(n.Left)
	if err != nil {
		return nil, err
	}
	defer leftIter.Close()
	var leftRows []Row
	for leftIter.Next() {
		leftRows = append(leftRows, leftIter.Row().clone())
	}

	rightIter, err := e.createIterator(n.Right)
	if err != nil {
		return nil, err
	}
	defer rightIter.Close()
	var rightRows []Row
	for rightIter.Next() {
		rightRows = append(rightRows, rightIter.Row().clone())
	}

	var joined []Row
	for _, l := range leftRows {
		for _, r := range rightRows {
			merged := mergeRows(l, r)
			if n.CrossProduct || evalPredicate(merged, n.Condition) {
				joined = append(joined, merged)
			}
		}
	}
	return &materializedJoin{rows: joined}, nil
}

func mergeRows(l, r Row) Row {
	merged := make(Row, len(l)+len(r))
	for k, v := range l {
		merged[k] = v
	}
	for k, v := range r {
		merged[k] = v
	}
	return merged
}

type unionIterator struct {
	rows []Row
	pos  int
}

func (it *unionIterator) Next() bool {
	if it.pos >= len(it.rows) {
		return false
	}
	it.pos++
	return true
}
func (it *unionIterator) Row() Row     { return it.rows[it.pos-1] }
func (it *unionIterator) Close() error { return nil }

// createUnionIterator concatenates every branch, deduplicating by
// document path when DistinctStrategy is DocPath — the one concrete
// consumer of xxh3 in this module, hashing the concatenated document
// paths of a row the same way trigo's storage layer hashes terms for
// fast, fixed-size keys.
func (e *Executor) createUnionIterator(n *planner.UnionNode) (RowIterator, error) {
	seen := map[uint64]bool{}
	var rows []Row
	for _, branch := range n.Inputs {
		it, err := e.createIterator(branch)
		if err != nil {
			return nil, err
		}
		for it.Next() {
			row := it.Row().clone()
			if n.DistinctStrategy == planner.DistinctDocPath {
				key := rowPathKey(row)
				h := xxh3.HashString(key)
				if seen[h] {
					continue
				}
				seen[h] = true
			}
			rows = append(rows, row)
		}
		it.Close()
	}
	return &unionIterator{rows: rows}, nil
}

func rowPathKey(row Row) string {
	aliases := make([]string, 0, len(row))
	for a := range row {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	key := ""
	for _, a := range aliases {
		key += a + ":" + row[a].Path + "|"
	}
	return key
}

type sliceRowIterator struct {
	rows []Row
	pos  int
}

func (it *sliceRowIterator) Next() bool {
	if it.pos >= len(it.rows) {
		return false
	}
	it.pos++
	return true
}
func (it *sliceRowIterator) Row() Row     { return it.rows[it.pos-1] }
func (it *sliceRowIterator) Close() error { return nil }

func (e *Executor) createSortIterator(n *planner.SortNode) (RowIterator, error) {
	input, err := e.createIterator(n.Source)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	var rows []Row
	for input.Next() {
		rows = append(rows, input.Row().clone())
	}
	sortRows(rows, n.OrderBy)
	return &sliceRowIterator{rows: rows}, nil
}

func applyOrderBy(rows []Row, alias string, orderBy []planner.OrderBySpec) {
	if len(orderBy) == 0 {
		return
	}
	sortRows(rows, orderBy)
}

func sortRows(rows []Row, orderBy []planner.OrderBySpec) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orderBy {
			a := fieldValue(rows[i][o.Field.Alias], o.Field)
			b := fieldValue(rows[j][o.Field.Alias], o.Field)
			cmp := compareValues(a, b)
			if cmp == 0 {
				continue
			}
			if o.Direction == planner.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

type limitIterator struct {
	input  RowIterator
	limit  int
	offset int
	seen   int
	taken  int
	hasLim bool
}

func (e *Executor) createLimitIterator(n *planner.LimitNode) (RowIterator, error) {
	input, err := e.createIterator(n.Source)
	if err != nil {
		return nil, err
	}
	return &limitIterator{input: input, limit: n.Limit, offset: n.Offset, hasLim: true}, nil
}

func (it *limitIterator) Next() bool {
	for it.input.Next() {
		if it.seen < it.offset {
			it.seen++
			continue
		}
		it.seen++
		if it.limit > 0 && it.taken >= it.limit {
			return false
		}
		it.taken++
		return true
	}
	return false
}

func (it *limitIterator) Row() Row     { return it.input.Row() }
func (it *limitIterator) Close() error { return it.input.Close() }

type projectIterator struct {
	input  RowIterator
	fields map[string]planner.Expression
}

func (e *Executor) createProjectIterator(n *planner.ProjectNode) (RowIterator, error) {
	input, err := e.createIterator(n.Source)
	if err != nil {
		return nil, err
	}
	return &projectIterator{input: input, fields: n.Fields}, nil
}

func (it *projectIterator) Next() bool { return it.input.Next() }
func (it *projectIterator) Row() Row   { return it.input.Row() }
func (it *projectIterator) Close() error { return it.input.Close() }

// Project renders one row through a PROJECT node's field map into a
// plain alias->value result, the shape a caller actually wants back.
func Project(row Row, fields map[string]planner.Expression) map[string]any {
	out := make(map[string]any, len(fields))
	for alias, expr := range fields {
		out[alias] = evalExpression(row, expr)
	}
	return out
}

func evalExpression(row Row, e planner.Expression) any {
	switch v := e.(type) {
	case *planner.Field:
		return fieldValue(row[v.Alias], v)
	case *planner.Literal:
		return v.Value
	default:
		return nil
	}
}

func fieldValue(doc *docstore.Document, f *planner.Field) any {
	if doc == nil {
		return nil
	}
	if f.IsMetadata() {
		switch f.Path[0] {
		case "#id":
			return doc.ID
		case "#path":
			return doc.Path
		case "#collection":
			return doc.Collection
		case "#parent":
			return doc.Parent
		default:
			return nil
		}
	}
	var cur any = doc.Fields
	for _, segment := range f.Path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[segment]
	}
	return cur
}

func evalPredicate(row Row, p *planner.Predicate) bool {
	if p == nil {
		return true
	}
	switch p.Kind {
	case planner.PConstant:
		return p.BoolValue
	case planner.PComparison:
		field, ok := p.Left.(*planner.Field)
		if !ok {
			return false
		}
		doc := row[field.Alias]
		if rf, ok := p.Right.(*planner.Field); ok {
			return evalComparison(doc, field, p.Op, &planner.Literal{Value: fieldValue(row[rf.Alias], rf)})
		}
		return evalComparison(doc, field, p.Op, p.Right)
	case planner.PNot:
		return !evalPredicate(row, p.Operand)
	case planner.PAnd:
		for _, c := range p.Children {
			if !evalPredicate(row, c) {
				return false
			}
		}
		return true
	case planner.POr:
		for _, c := range p.Children {
			if evalPredicate(row, c) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func evalComparison(doc *docstore.Document, field *planner.Field, op planner.Op, rhs planner.Expression) bool {
	left := fieldValue(doc, field)
	switch op {
	case planner.In, planner.NotIn, planner.ArrayContainsAny:
		list, ok := rhs.(*planner.List)
		if !ok {
			return false
		}
		values, _ := list.AsLiterals()
		hit := false
		for _, v := range values {
			if op == planner.ArrayContainsAny {
				if arrayContains(left, v.Value) {
					hit = true
					break
				}
			} else if compareValues(left, v.Value) == 0 {
				hit = true
				break
			}
		}
		if op == planner.NotIn {
			return !hit
		}
		return hit
	default:
		lit, ok := rhs.(*planner.Literal)
		if !ok {
			return false
		}
		cmp := compareValues(left, lit.Value)
		switch op {
		case planner.Eq:
			return cmp == 0
		case planner.Neq:
			return cmp != 0
		case planner.Lt:
			return cmp < 0
		case planner.Lte:
			return cmp <= 0
		case planner.Gt:
			return cmp > 0
		case planner.Gte:
			return cmp >= 0
		default:
			return false
		}
	}
}

func arrayContains(haystack any, needle any) bool {
	arr, ok := haystack.([]any)
	if !ok {
		return false
	}
	for _, item := range arr {
		if compareValues(item, needle) == 0 {
			return true
		}
	}
	return false
}

// compareValues compares two document field values for ordering and
// equality. Numbers compare numerically regardless of underlying Go
// numeric type (JSON decodes all of them to float64, but literals
// built directly may carry int/int64).
func compareValues(a, b any) int {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}

	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		if ab == bb {
			return 0
		}
		if !ab && bb {
			return -1
		}
		return 1
	}

	if a == nil && b == nil {
		return 0
	}
	return strconvCompareFallback(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func strconvCompareFallback(a, b any) int {
	as := fmt.Sprintf("%v", a)
	bs := fmt.Sprintf("%v", b)
	if as == bs {
		return 0
	}
	if _, err := strconv.ParseFloat(as, 64); err == nil {
		return -1
	}
	if as < bs {
		return -1
	}
	return 1
}
