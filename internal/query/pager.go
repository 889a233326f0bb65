package query

// PageWindow is how many page links a pager exposes per set. Page sets align
// to window boundaries: 1-10, 11-20 and so on.
const PageWindow = 10

// Pager is a display aid for rendering page navigation. It carries no query
// semantics; the limit/offset a backend ran with live on the Descriptor.
// Current keeps whatever page the caller asked for, even past the end — an
// out-of-range page is a valid, empty page upstream.
type Pager struct {
	Total    int `json:"total"`
	PageSize int `json:"page_size"`
	Current  int `json:"current_page"`
	Count    int `json:"page_count"`

	first int // first page of the current window
	last  int // last page of the current window
}

// NewPager computes page boundaries for total entries at the given page and
// size. Size is defaulted and capped the same way Normalize does, so a pager
// built from un-normalized input still behaves.
func NewPager(total, current, size int) Pager {
	if size <= 0 || size > MaxPageSize {
		size = MaxPageSize
	}
	if current < 1 {
		current = 1
	}
	if total < 0 {
		total = 0
	}

	count := (total + size - 1) / size

	// Window around the current page, clamped into the valid range without
	// touching Current itself.
	at := current
	if at > count {
		at = count
	}
	if at < 1 {
		at = 1
	}
	first := ((at-1)/PageWindow)*PageWindow + 1
	last := first + PageWindow - 1
	if last > count {
		last = count
	}
	if count == 0 {
		first, last = 0, 0
	}

	return Pager{
		Total:    total,
		PageSize: size,
		Current:  current,
		Count:    count,
		first:    first,
		last:     last,
	}
}

// Pages lists the page numbers of the current window, for rendering links.
func (p Pager) Pages() []int {
	if p.last == 0 {
		return nil
	}
	pages := make([]int, 0, p.last-p.first+1)
	for n := p.first; n <= p.last; n++ {
		pages = append(pages, n)
	}
	return pages
}

// HasPrev reports whether a page exists before the current window.
func (p Pager) HasPrev() bool { return p.first > 1 }

// HasNext reports whether a page exists after the current window.
func (p Pager) HasNext() bool { return p.last > 0 && p.last < p.Count }

// PrevSet is the last page of the previous window; 0 when there is none.
func (p Pager) PrevSet() int {
	if !p.HasPrev() {
		return 0
	}
	return p.first - 1
}

// NextSet is the first page of the next window; 0 when there is none.
func (p Pager) NextSet() int {
	if !p.HasNext() {
		return 0
	}
	return p.last + 1
}
