package pagination

import "math"

// Page sizes used by the storefront consumers. Each consumer has its own
// policy rather than a universal constant.
const (
	// Browse is the page size for category browsing and search results.
	Browse = 12
	// AdminOrders is the page size for the administrative order listing.
	AdminOrders = 20
)

// Window describes the slice of a match set that one page covers.
type Window struct {
	Page       int `json:"page"`
	Size       int `json:"-"`
	Skip       int `json:"-"`
	Limit      int `json:"-"`
	TotalPages int `json:"pages"`
}

// ForPage returns the skip/limit window for a page before the match count is
// known. A page below 1 is clamped to 1 and a size below 1 falls back to
// Browse. Skip saturates at math.MaxInt-pageSize for page numbers whose
// offset does not fit in an int, so Skip+Limit never overflows.
func ForPage(pageNumber, pageSize int) Window {
	if pageSize < 1 {
		pageSize = Browse
	}
	if pageNumber < 1 {
		pageNumber = 1
	}
	maxSkip := math.MaxInt - pageSize
	skip := maxSkip
	if pageNumber-1 <= maxSkip/pageSize {
		skip = (pageNumber - 1) * pageSize
	}
	return Window{
		Page:  pageNumber,
		Size:  pageSize,
		Skip:  skip,
		Limit: pageSize,
	}
}

// Paginate computes the full window for a page over matchCount results.
// A page past the last one keeps its skip, so the store returns an empty
// page; it is never an error.
func Paginate(matchCount, pageSize, pageNumber int) Window {
	w := ForPage(pageNumber, pageSize)
	w.TotalPages = TotalPages(matchCount, w.Size)
	return w
}

// TotalPages returns ceil(matchCount / pageSize). An empty match set has
// zero pages.
func TotalPages(matchCount, pageSize int) int {
	if matchCount <= 0 || pageSize <= 0 {
		return 0
	}
	pages := matchCount / pageSize
	if matchCount%pageSize > 0 {
		pages++
	}
	return pages
}

// Bounds clamps the window to a slice of length n and returns the start and
// end indexes. It is used by stores that paginate in memory.
func (w Window) Bounds(n int) (start, end int) {
	start = w.Skip
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end = start + w.Limit
	if end > n {
		end = n
	}
	return start, end
}
