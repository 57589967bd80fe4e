package paging

// Mode selects how a record collection is split into pages.
type Mode int

const (
	// FixedSize shows Size records per page.
	FixedSize Mode = iota
	// OnePerRecord shows one record per page, for the single-order detail view.
	OnePerRecord
)

// DefaultSize is the page size used when none is configured.
const DefaultSize = 30

func (m Mode) String() string {
	switch m {
	case FixedSize:
		return "fixed"
	case OnePerRecord:
		return "single"
	}
	return "unknown"
}

// Paginator tracks the current page over a collection of count items.
// Pages are 1-indexed.
type Paginator struct {
	mode  Mode
	size  int
	count int
	page  int
}

func New(mode Mode, size int) *Paginator {
	if size <= 0 {
		size = DefaultSize
	}
	return &Paginator{mode: mode, size: size, page: 1}
}

// Reset points the paginator at a new collection and returns to page 1.
func (p *Paginator) Reset(count int) {
	if count < 0 {
		count = 0
	}
	p.count = count
	p.page = 1
}

// SetMode switches the paging mode; like Reset it returns to page 1.
func (p *Paginator) SetMode(mode Mode) {
	p.mode = mode
	p.page = 1
}

func (p *Paginator) Mode() Mode { return p.mode }
func (p *Paginator) Size() int  { return p.size }
func (p *Paginator) Page() int  { return p.page }

// TotalPages is max(1, ceil(count/size)) in FixedSize mode and count in
// OnePerRecord mode.
func (p *Paginator) TotalPages() int {
	if p.mode == OnePerRecord {
		return p.count
	}
	return max(1, (p.count+p.size-1)/p.size)
}

// GoTo moves to page and reports whether the page changed. Requests outside
// [1, TotalPages] are rejected and leave the current page as it was.
func (p *Paginator) GoTo(page int) bool {
	if page < 1 || page > p.TotalPages() || page == p.page {
		return false
	}
	p.page = page
	return true
}

func (p *Paginator) Next() bool { return p.GoTo(p.page + 1) }
func (p *Paginator) Prev() bool { return p.GoTo(p.page - 1) }

// HasPrev is false exactly when the "previous" control must be disabled.
func (p *Paginator) HasPrev() bool { return p.page > 1 }

// HasNext is false exactly when the "next" control must be disabled.
func (p *Paginator) HasNext() bool { return p.page < p.TotalPages() }

// Bounds returns the half-open index range of the current page.
func (p *Paginator) Bounds() (lo, hi int) {
	per := p.size
	if p.mode == OnePerRecord {
		per = 1
	}
	lo = min((p.page-1)*per, p.count)
	hi = min(lo+per, p.count)
	return lo, hi
}

// Slice returns the items on the current page. items must be the collection the
// paginator was last Reset with.
func Slice[T any](p *Paginator, items []T) []T {
	lo, hi := p.Bounds()
	hi = min(hi, len(items))
	lo = min(lo, hi)
	return items[lo:hi]
}
