// Package pagination implements offset pagination with the page metadata shape
// shared by all list endpoints.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params are the clamped page/limit values for a list query.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta describes the position of a page within the full result set.
type Meta struct {
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	Total           int  `json:"total"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// Page is a paginated response envelope.
type Page struct {
	Items interface{} `json:"items"`
	Meta  Meta        `json:"meta"`
}

// Parse reads page and limit query parameters, clamping page to >= 1 and limit
// to [1, MaxLimit] with DefaultLimit when absent or invalid.
func Parse(r *http.Request) Params {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// NewPage builds the response envelope for items and the total row count.
func NewPage(items interface{}, p Params, total int) Page {
	totalPages := 0
	if total > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return Page{
		Items: items,
		Meta: Meta{
			Page:            p.Page,
			Limit:           p.Limit,
			Total:           total,
			TotalPages:      totalPages,
			HasNextPage:     p.Page*p.Limit < total,
			HasPreviousPage: p.Page > 1,
		},
	}
}
