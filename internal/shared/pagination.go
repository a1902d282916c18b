package shared

import "math"

const (
	// DefaultPerPage applies when a listing request names no page size.
	DefaultPerPage = 20
	// MaxPerPage caps listing page sizes.
	MaxPerPage = 100
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage int, total int64) Pagination {
	perPage = ClampPerPage(perPage)
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// ClampPerPage bounds a requested page size.
func ClampPerPage(perPage int) int {
	if perPage <= 0 {
		return DefaultPerPage
	}
	if perPage > MaxPerPage {
		return MaxPerPage
	}
	return perPage
}

// Offset returns the row offset of the page.
func (p Pagination) Offset() uint64 {
	return uint64((p.Page - 1) * p.PerPage)
}
