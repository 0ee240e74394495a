package helper

import "math"

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Paging struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NormalizePaging normalizes page/page_size. page_size outside [1,100]
// falls back to 20. page < 1 collapses to page 0, which yields an empty
// page with has_next=false rather than silently serving page 1.
func NormalizePaging(page, pageSize int) Paging {
	if page < 1 {
		page = 0
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return Paging{Page: page, PageSize: pageSize}
}

func (p Paging) Limit() int  { return p.PageSize }
func (p Paging) Offset() int { return (p.Page - 1) * p.PageSize }

type PageMeta struct {
	Page        int   `json:"page"`
	PageSize    int   `json:"page_size"`
	TotalCount  int64 `json:"total_count"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

func BuildPageMeta(total int64, p Paging) PageMeta {
	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(p.PageSize)))
	}
	return PageMeta{
		Page:        p.Page,
		PageSize:    p.PageSize,
		TotalCount:  total,
		TotalPages:  totalPages,
		HasPrevious: p.Page > 1 && totalPages > 0,
		HasNext:     totalPages > 0 && p.Page >= 1 && p.Page < totalPages,
	}
}
