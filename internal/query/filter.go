package query

import (
	"sort"
	"strings"
)

// FilterOptions tunes how marker characters in filter values are translated.
type FilterOptions struct {
	// CaseSensitive picks LIKE over ILIKE for wildcard patterns.
	CaseSensitive bool
	// NotEqual is the operator emitted for negated values. Empty means "!=".
	NotEqual Operator
}

// Filters is the translator output: predicates in field order, the raw
// per-field values for form redisplay, and a printable summary.
type Filters struct {
	Predicates []Predicate
	Raw        map[string][]string
	Display    string
}

// TranslateFilters walks the permitted fields, pulls matching values out of
// params and emits backend-neutral predicates. Value markers: `*` anywhere
// makes a wildcard pattern (normalized to `%`), a leading `!` negates. One
// field may emit up to three predicates when its values mix plain, wildcard
// and negated entries. Absent or all-blank fields are skipped, never an error.
func TranslateFilters(fields []string, params map[string][]string, opts FilterOptions) Filters {
	notEq := opts.NotEqual
	if notEq == "" {
		notEq = OpNotEq
	}
	pattern := OpILike
	if opts.CaseSensitive {
		pattern = OpLike
	}

	out := Filters{Raw: make(map[string][]string)}
	for _, field := range fields {
		values, ok := params[field]
		if !ok {
			continue
		}

		var plain, patterns, negated, present []string
		for _, v := range values {
			if strings.TrimSpace(v) == "" {
				continue
			}
			present = append(present, v)
			switch {
			case strings.Contains(v, "*"):
				patterns = append(patterns, strings.ReplaceAll(v, "*", "%"))
			case strings.HasPrefix(v, "!"):
				negated = append(negated, strings.TrimPrefix(v, "!"))
			default:
				plain = append(plain, v)
			}
		}
		if len(present) == 0 {
			continue
		}
		out.Raw[field] = append([]string(nil), values...)

		if len(patterns) > 0 {
			out.Predicates = append(out.Predicates, Predicate{Field: field, Op: pattern, Values: patterns})
		}
		if len(negated) > 0 {
			out.Predicates = append(out.Predicates, Predicate{Field: field, Op: notEq, Values: negated})
		}
		if len(plain) > 0 {
			out.Predicates = append(out.Predicates, Predicate{Field: field, Op: OpIn, Values: plain})
		}
	}
	out.Display = renderDisplay(out.Raw)
	return out
}

// renderDisplay builds the `field = a or b AND other = c` summary shown above
// search results. Fields come out lexicographically so the string is stable.
func renderDisplay(raw map[string][]string) string {
	fields := make([]string, 0, len(raw))
	for f := range raw {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var parts []string
	for _, f := range fields {
		var vals []string
		for _, v := range raw[f] {
			if strings.TrimSpace(v) != "" {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		parts = append(parts, f+" = "+strings.Join(vals, " or "))
	}
	return strings.Join(parts, " AND ")
}
