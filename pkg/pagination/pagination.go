package pagination

import (
	"net/http"
	"strconv"
)

// MaxPerPage caps client-supplied page sizes.
const MaxPerPage = 100

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int
	PerPage int
}

// DefaultParams returns page 1 with 20 items per page.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: 20}
}

// Offset is the number of rows to skip for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// FromRequest reads page and per_page (alias limit) from the query string.
// Missing or malformed values fall back to defaultPerPage and page 1; per_page
// above MaxPerPage is ignored.
func FromRequest(r *http.Request, defaultPerPage int) Params {
	p := Params{Page: 1, PerPage: defaultPerPage}
	if p.PerPage <= 0 {
		p.PerPage = DefaultParams().PerPage
	}

	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}

	perPage := q.Get("per_page")
	if perPage == "" {
		perPage = q.Get("limit")
	}
	if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= MaxPerPage {
		p.PerPage = v
	}

	return p
}

// Meta describes where a page sits in the full result set.
type Meta struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// Result is one page of items plus its Meta.
type Result[T any] struct {
	Items      []T  `json:"items"`
	Pagination Meta `json:"pagination"`
}

// NewResult builds a Result; a nil slice is rendered as [].
func NewResult[T any](items []T, totalItems int, params Params) Result[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if params.PerPage > 0 {
		totalPages = (totalItems + params.PerPage - 1) / params.PerPage
	}

	return Result[T]{
		Items: items,
		Pagination: Meta{
			CurrentPage:  params.Page,
			TotalPages:   totalPages,
			TotalItems:   totalItems,
			ItemsPerPage: params.PerPage,
		},
	}
}
