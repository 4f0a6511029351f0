package models

// Pagination is list-response metadata carried in the response envelope.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// NewPagination clamps page and size to sane values before building the
// metadata block.
func NewPagination(page, size, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	return &Pagination{Page: page, PageSize: size, TotalCount: total}
}
