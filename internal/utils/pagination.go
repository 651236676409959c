package utils

import (
	"math"
	"strconv"
)

// PaginationInfo is the pagination metadata returned alongside a key listing
type PaginationInfo struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// ParsePaginationFromQuery parses page and page_size query parameters,
// falling back to page 1 and a 20-key page. Sizes above 100 are ignored so
// listing responses stay bounded.
func ParsePaginationFromQuery(pageStr, pageSizeStr string) (int, int) {
	page := 1
	pageSize := 20

	if pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if pageSizeStr != "" {
		if ps, err := strconv.Atoi(pageSizeStr); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}

	return page, pageSize
}

// CalculateOffset converts a 1-based page into a slice offset
func CalculateOffset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// CalculatePaginationInfo calculates pagination metadata for a listing
func CalculatePaginationInfo(total, page, pageSize int) PaginationInfo {
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	if totalPages == 0 {
		totalPages = 1
	}

	return PaginationInfo{
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}
