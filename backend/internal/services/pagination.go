package services

import (
	"math"
)

const (
	DefaultPerPage  = 10
	MaxItemsPerPage = 100
)

type Page struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Pages   int   `json:"pages"`
	PerPage int   `json:"per_page"`
}

// normalizePage applies the shared defaults. maxPerPage <= 0 means no cap.
func normalizePage(page, perPage, maxPerPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// newPage expects perPage >= 1, as returned by normalizePage.
func newPage(total int64, page, perPage int) Page {
	pages := total / int64(perPage)
	if total%int64(perPage) != 0 {
		pages++
	}
	return Page{Total: total, Page: page, Pages: int(pages), PerPage: perPage}
}

// pastEnd reports whether the page has no rows to fetch.
func (p Page) pastEnd() bool {
	return p.Page > p.Pages
}

// offset saturates at math.MaxInt instead of wrapping.
func offset(page, perPage int) int {
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}
