package fs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mkraev/crudkit/internal/model"
	"github.com/mkraev/crudkit/internal/query"
)

// filterEntries applies the predicate list the way a SQL WHERE would:
// predicates AND-ed, pattern values OR-ed, negated values AND-ed, plain
// values matched as "equals one of".
func filterEntries(entries []model.CatalogEntry, preds []query.Predicate) ([]model.CatalogEntry, error) {
	if len(preds) == 0 {
		return entries, nil
	}
	for _, p := range preds {
		if _, ok := entryFields[p.Field]; !ok {
			return nil, fmt.Errorf("%w: unknown field %q", query.ErrInvalidParameter, p.Field)
		}
	}
	var out []model.CatalogEntry
	for _, e := range entries {
		keep := true
		for _, p := range preds {
			if !matchPredicate(entryFields[p.Field](e), p) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, e)
		}
	}
	return out, nil
}

func matchPredicate(value string, p query.Predicate) bool {
	switch p.Op {
	case query.OpLike, query.OpILike:
		fold := p.Op == query.OpILike
		for _, pattern := range p.Values {
			if matchPattern(value, pattern, fold) {
				return true
			}
		}
		return false
	case query.OpIn, query.OpEq:
		for _, v := range p.Values {
			if value == v {
				return true
			}
		}
		return false
	default:
		// Not-equal family: the value must differ from every candidate.
		for _, v := range p.Values {
			if value == v {
				return false
			}
		}
		return true
	}
}

// matchPattern evaluates a SQL-style pattern where `%` matches any run of
// characters. Segments between wildcards must appear in order.
func matchPattern(value, pattern string, fold bool) bool {
	if fold {
		value = strings.ToLower(value)
		pattern = strings.ToLower(pattern)
	}
	segments := strings.Split(pattern, "%")
	if len(segments) == 1 {
		return value == pattern
	}

	if first := segments[0]; first != "" {
		if !strings.HasPrefix(value, first) {
			return false
		}
		value = value[len(first):]
	}
	last := segments[len(segments)-1]
	for _, seg := range segments[1 : len(segments)-1] {
		if seg == "" {
			continue
		}
		idx := strings.Index(value, seg)
		if idx < 0 {
			return false
		}
		value = value[idx+len(seg):]
	}
	return strings.HasSuffix(value, last)
}

func sortEntries(entries []model.CatalogEntry, spec []query.Sort) error {
	if len(spec) == 0 {
		return nil
	}
	for _, s := range spec {
		if _, ok := entryFields[s.Field]; !ok {
			return fmt.Errorf("%w: unknown field %q", query.ErrInvalidParameter, s.Field)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		for _, s := range spec {
			a := entryFields[s.Field](entries[i])
			b := entryFields[s.Field](entries[j])
			if a == b {
				continue
			}
			if s.Desc {
				return a > b
			}
			return a < b
		}
		return false
	})
	return nil
}

func window(entries []model.CatalogEntry, offset, limit int) []model.CatalogEntry {
	if offset >= len(entries) {
		return nil
	}
	entries = entries[offset:]
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}
