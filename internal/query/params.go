package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Reserved parameter names recognized by Normalize. They are prefixed with an
// underscore so they can never collide with a filterable field name.
const (
	ParamOrder    = "_order"
	ParamSort     = "_sort"
	ParamDir      = "_dir"
	ParamPage     = "_page"
	ParamPageSize = "_page_size"
	ParamOffset   = "_offset"
	ParamNoPage   = "_no_page"
)

// MaxPageSize is the hard ceiling on rows per page. Requests may ask for
// more; they get this. It bounds the worst-case cost of a single search.
const MaxPageSize = 200

// NormalizeOptions configures defaults applied when a parameter is absent.
type NormalizeOptions struct {
	// PrimaryKey is the fallback sort column when the request names none.
	PrimaryKey string
	// DefaultPageSize is used when _page_size is absent. Zero means MaxPageSize.
	DefaultPageSize int
}

// Normalize resolves the reserved paging and sorting parameters into a
// Descriptor. Precedence for sorting: _order string, then _sort/_dir, then
// primary key descending. Paging: _page_size clamped to MaxPageSize, _page
// defaulting to 1, _offset either explicit or derived from the page. A truthy
// _no_page drops limit and offset entirely.
//
// Malformed numerics or direction tokens return an error wrapping
// ErrInvalidParameter; absent parameters fall back to defaults.
func Normalize(params map[string][]string, opts NormalizeOptions) (Descriptor, error) {
	var d Descriptor

	sortSpec, err := resolveSort(params, opts.PrimaryKey)
	if err != nil {
		return Descriptor{}, err
	}
	d.Sort = sortSpec

	if isTruthy(first(params, ParamNoPage)) {
		return d, nil
	}

	size := opts.DefaultPageSize
	if size <= 0 || size > MaxPageSize {
		size = MaxPageSize
	}
	if raw := first(params, ParamPageSize); raw != "" {
		n, err := positiveInt(ParamPageSize, raw)
		if err != nil {
			return Descriptor{}, err
		}
		size = n
		if size > MaxPageSize {
			size = MaxPageSize
		}
	}

	page := 1
	if raw := first(params, ParamPage); raw != "" {
		n, err := positiveInt(ParamPage, raw)
		if err != nil {
			return Descriptor{}, err
		}
		page = n
	}

	offset := (page - 1) * size
	if raw := first(params, ParamOffset); raw != "" {
		n, err := nonNegativeInt(ParamOffset, raw)
		if err != nil {
			return Descriptor{}, err
		}
		offset = n
	}

	d.Limit = &size
	d.Offset = &offset
	return d, nil
}

func resolveSort(params map[string][]string, primaryKey string) ([]Sort, error) {
	if raw := first(params, ParamOrder); strings.TrimSpace(raw) != "" {
		return parseOrder(raw)
	}
	if field := strings.TrimSpace(first(params, ParamSort)); field != "" {
		desc, err := parseDirection(first(params, ParamDir))
		if err != nil {
			return nil, err
		}
		return []Sort{{Field: field, Desc: desc}}, nil
	}
	if primaryKey == "" {
		return nil, nil
	}
	// No sort requested: newest-first on the identifying column.
	return []Sort{{Field: primaryKey, Desc: true}}, nil
}

// parseOrder parses an explicit order string such as `title ASC, artist DESC`.
// The direction token is optional per term and defaults to ascending.
func parseOrder(raw string) ([]Sort, error) {
	var spec []Sort
	for _, term := range strings.Split(raw, ",") {
		tokens := strings.Fields(term)
		switch len(tokens) {
		case 0:
			continue
		case 1:
			spec = append(spec, Sort{Field: tokens[0]})
		case 2:
			desc, err := parseDirection(tokens[1])
			if err != nil {
				return nil, err
			}
			spec = append(spec, Sort{Field: tokens[0], Desc: desc})
		default:
			return nil, fmt.Errorf("%w: %s term %q", ErrInvalidParameter, ParamOrder, strings.TrimSpace(term))
		}
	}
	return spec, nil
}

func parseDirection(raw string) (desc bool, err error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "ASC":
		return false, nil
	case "DESC":
		return true, nil
	default:
		return false, fmt.Errorf("%w: direction %q", ErrInvalidParameter, raw)
	}
}

func positiveInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParameter, name, raw)
	}
	return n, nil
}

func nonNegativeInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParameter, name, raw)
	}
	return n, nil
}

// isTruthy interprets flag parameters. Empty and the usual spellings of "off"
// are false; anything else counts as set.
func isTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

func first(params map[string][]string, name string) string {
	if vs, ok := params[name]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}
