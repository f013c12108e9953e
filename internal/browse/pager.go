package browse

// DefaultScrollThreshold is the number of rows below the cursor at which the
// next page is requested.
const DefaultScrollThreshold = 5

// Pager tracks infinite-scroll progress through a paged listing.
type Pager struct {
	threshold  int
	page       int
	totalPages int
	loading    bool
}

// NewPager creates a Pager. A non-positive threshold uses DefaultScrollThreshold.
func NewPager(threshold int) *Pager {
	if threshold <= 0 {
		threshold = DefaultScrollThreshold
	}
	return &Pager{threshold: threshold}
}

// Page is the last page loaded, 0 before the first load.
func (p *Pager) Page() int { return p.page }

// TotalPages is the page count reported by the newest response.
func (p *Pager) TotalPages() int { return p.totalPages }

// Loading reports whether a page fetch is in flight.
func (p *Pager) Loading() bool { return p.loading }

// HasMore reports whether more pages are known to exist. Before the first
// load it is true.
func (p *Pager) HasMore() bool {
	if p.page == 0 {
		return true
	}
	return p.page < p.totalPages
}

// ShouldLoadMore reports whether the next page should be requested when
// remaining rows are left below the cursor.
func (p *Pager) ShouldLoadMore(remaining int) bool {
	return !p.loading && p.HasMore() && remaining < p.threshold
}

// Next marks a fetch as in flight and returns the page to request.
func (p *Pager) Next() int {
	p.loading = true
	return p.page + 1
}

// Loaded records a successful fetch of page. A page older than the newest
// one loaded changes nothing but the in-flight flag.
func (p *Pager) Loaded(page, totalPages int) {
	p.loading = false
	if page < p.page {
		return
	}
	p.page = page
	p.totalPages = totalPages
}

// Failed clears the in-flight flag so the fetch can be retried.
func (p *Pager) Failed() {
	p.loading = false
}

// Reset starts over from the first page.
func (p *Pager) Reset() {
	p.page = 0
	p.totalPages = 0
	p.loading = false
}
