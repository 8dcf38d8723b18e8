package domain

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageRequest is a 1-indexed page/limit pair.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the request to sane bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination mirrors the listing metadata returned to clients.
type Pagination struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Count      int `json:"count"`
	TotalItems int `json:"totalItems"`
}

// NewPagination computes total pages as ceil(totalItems/limit).
func NewPagination(req PageRequest, count, totalItems int) Pagination {
	pages := 0
	if req.Limit > 0 {
		pages = (totalItems + req.Limit - 1) / req.Limit
	}
	return Pagination{Current: req.Page, Total: pages, Count: count, TotalItems: totalItems}
}
