// Package pagination holds the page arithmetic shared by list and
// detail endpoints. Page numbers are 1-based.
package pagination

type Page struct {
	TotalPages  int `json:"total_page"`
	TotalCount  int `json:"total_count"`
	CurrentPage int `json:"current_page"`
}

// New computes page metadata: TotalPages = ceil(totalCount / pageSize).
func New(totalCount, pageSize, currentPage int) Page {
	if pageSize < 1 {
		pageSize = 1
	}
	if currentPage < 1 {
		currentPage = 1
	}
	totalPages := totalCount / pageSize
	if totalCount%pageSize != 0 {
		totalPages++
	}
	return Page{TotalPages: totalPages, TotalCount: totalCount, CurrentPage: currentPage}
}

// Slice returns the half-open index range [lo, hi) of the items on
// currentPage, clamped to totalCount.
func Slice(totalCount, pageSize, currentPage int) (lo, hi int) {
	if pageSize < 1 {
		pageSize = 1
	}
	if currentPage < 1 {
		currentPage = 1
	}
	lo = (currentPage - 1) * pageSize
	hi = lo + pageSize
	if lo > totalCount {
		lo = totalCount
	}
	if hi > totalCount {
		hi = totalCount
	}
	return lo, hi
}
