// Package query turns raw request parameters into a backend-neutral
// descriptor: filter predicates, a sort spec and a paging window. It does no
// I/O; executing the descriptor belongs to the repository layer.
package query

import "errors"

// Operator identifies how a predicate compares a field against its values.
type Operator string

const (
	OpEq    Operator = "="
	OpNotEq Operator = "!="
	OpIn    Operator = "IN"
	OpLike  Operator = "LIKE"
	OpILike Operator = "ILIKE"
)

// ErrInvalidParameter marks malformed reserved parameters (non-numeric page,
// unknown sort direction). I reject these instead of coercing to defaults so
// a garbled page number never silently serves page 1.
var ErrInvalidParameter = errors.New("invalid parameter")

// Predicate is a single filter condition over one field.
// Values carries one or more candidates; with OpIn the record matches any of
// them, with OpLike/OpILike each value is a separate pattern.
type Predicate struct {
	Field  string
	Op     Operator
	Values []string
}

// Sort is one ordering term. Desc false means ascending.
type Sort struct {
	Field string
	Desc  bool
}

// Descriptor carries everything a backend needs to run a count or search.
// Limit and Offset are both nil (unpaged) or both set; Normalize maintains
// that invariant and backends may rely on it.
type Descriptor struct {
	Predicates []Predicate
	Sort       []Sort
	Limit      *int
	Offset     *int

	// RawFilters keeps the per-field values as submitted, so a search form
	// can be redisplayed without reverse-engineering the predicates.
	RawFilters map[string][]string

	// Display is a human-readable rendering of the active filters,
	// e.g. `artist = Mingus AND title = ah um`.
	Display string
}

// Paged reports whether the descriptor carries a limit/offset window.
func (d Descriptor) Paged() bool { return d.Limit != nil }

// Build composes filter translation and parameter normalization into one
// descriptor. It is the entry point controllers use; the two halves stay
// exported separately for callers that only need one of them.
func Build(params map[string][]string, fields []string, fo FilterOptions, no NormalizeOptions) (Descriptor, error) {
	d, err := Normalize(params, no)
	if err != nil {
		return Descriptor{}, err
	}
	f := TranslateFilters(fields, params, fo)
	d.Predicates = f.Predicates
	d.RawFilters = f.Raw
	d.Display = f.Display
	return d, nil
}
