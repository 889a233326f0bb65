// Package sqlbuild renders a query descriptor into SQL fragments. It is not
// a query builder in the ORM sense: backends still own their SELECT lists and
// table names, this package only produces the WHERE / ORDER BY / LIMIT text
// that varies per request, with positional args.
package sqlbuild

import (
	"fmt"
	"strings"

	"github.com/mkraev/crudkit/internal/query"
)

// Dialect selects placeholder style and how case-insensitive matching is
// expressed.
type Dialect int

const (
	// Postgres uses $n placeholders and native ILIKE.
	Postgres Dialect = iota
	// SQLite uses ? placeholders; ILIKE is emulated with LOWER() LIKE LOWER().
	SQLite
)

// Builder is bound to one dialect and one field→column allow-list. Filter
// fields are already restricted upstream, but sort fields come straight from
// the _order parameter, so every identifier passes through the allow-list
// before reaching SQL text.
type Builder struct {
	dialect Dialect
	columns map[string]string
}

func New(dialect Dialect, columns map[string]string) *Builder {
	return &Builder{dialect: dialect, columns: columns}
}

func (b *Builder) placeholder(n int) string {
	if b.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (b *Builder) column(field string) (string, error) {
	col, ok := b.columns[field]
	if !ok {
		return "", fmt.Errorf("%w: unknown field %q", query.ErrInvalidParameter, field)
	}
	return col, nil
}

// Where renders the predicate list as a `WHERE ...` clause (empty string when
// there are no predicates) plus its positional args. Predicates are joined
// with AND; inside one predicate, pattern values are OR-ed, negated values
// AND-ed and plain values become an IN list.
func (b *Builder) Where(preds []query.Predicate) (string, []any, error) {
	if len(preds) == 0 {
		return "", nil, nil
	}
	var conds []string
	var args []any
	for _, p := range preds {
		col, err := b.column(p.Field)
		if err != nil {
			return "", nil, err
		}
		if len(p.Values) == 0 {
			continue
		}
		cond, condArgs := b.condition(col, p, len(args))
		conds = append(conds, cond)
		args = append(args, condArgs...)
	}
	if len(conds) == 0 {
		return "", nil, nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args, nil
}

func (b *Builder) condition(col string, p query.Predicate, argBase int) (string, []any) {
	args := make([]any, 0, len(p.Values))
	ph := func() string { return b.placeholder(argBase + len(args) + 1) }

	switch p.Op {
	case query.OpLike, query.OpILike:
		lhs, wrap := col, func(s string) string { return s }
		if p.Op == query.OpILike && b.dialect == SQLite {
			lhs = "LOWER(" + col + ")"
			wrap = func(s string) string { return "LOWER(" + s + ")" }
		}
		op := string(p.Op)
		if b.dialect == SQLite {
			op = string(query.OpLike)
		}
		var terms []string
		for _, v := range p.Values {
			terms = append(terms, fmt.Sprintf("%s %s %s", lhs, op, wrap(ph())))
			args = append(args, v)
		}
		return group(terms, " OR "), args

	case query.OpIn, query.OpEq:
		if len(p.Values) == 1 {
			args = append(args, p.Values[0])
			return fmt.Sprintf("%s = %s", col, b.placeholder(argBase+1)), args
		}
		var phs []string
		for _, v := range p.Values {
			phs = append(phs, ph())
			args = append(args, v)
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(phs, ", ")), args

	default:
		// Not-equal family, including a configured custom operator.
		var terms []string
		for _, v := range p.Values {
			terms = append(terms, fmt.Sprintf("%s %s %s", col, p.Op, ph()))
			args = append(args, v)
		}
		return group(terms, " AND "), args
	}
}

func group(terms []string, sep string) string {
	if len(terms) == 1 {
		return terms[0]
	}
	return "(" + strings.Join(terms, sep) + ")"
}

// OrderBy renders the sort spec as an `ORDER BY ...` clause, empty when the
// spec is empty. Unknown fields are rejected, never interpolated.
func (b *Builder) OrderBy(sorts []query.Sort) (string, error) {
	if len(sorts) == 0 {
		return "", nil
	}
	var terms []string
	for _, s := range sorts {
		col, err := b.column(s.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		terms = append(terms, col+" "+dir)
	}
	return "ORDER BY " + strings.Join(terms, ", "), nil
}

// Join glues statement fragments with single spaces, dropping empty ones.
func Join(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// Paging renders LIMIT/OFFSET for a paged descriptor. argBase is how many
// args precede these two; needed for $n numbering on Postgres.
func (b *Builder) Paging(d query.Descriptor, argBase int) (string, []any) {
	if !d.Paged() {
		return "", nil
	}
	return fmt.Sprintf("LIMIT %s OFFSET %s", b.placeholder(argBase+1), b.placeholder(argBase+2)),
		[]any{*d.Limit, *d.Offset}
}
