package models

import (
	"fmt"
	"time"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Range is an optional inclusive bound pair on a metric
type Range struct {
	Min *float64
	Max *float64
}

// IsSet reports whether any bound is given
func (r Range) IsSet() bool {
	return r.Min != nil || r.Max != nil
}

// ReadingQueryParams holds all query parameters for reading queries
type ReadingQueryParams struct {
	Page      int
	Size      int
	StartDate *time.Time
	EndDate   *time.Time
	IsAnomaly *bool
	Ranges    map[Metric]Range
}

// NewReadingQueryParams returns params with default paging
func NewReadingQueryParams() ReadingQueryParams {
	return ReadingQueryParams{
		Page:   1,
		Size:   DefaultPageSize,
		Ranges: make(map[Metric]Range),
	}
}

// Offset returns the number of rows skipped for the current page
func (p *ReadingQueryParams) Offset() int {
	return (p.Page - 1) * p.Size
}

// Validate checks if the query parameters are valid
func (p *ReadingQueryParams) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("page must be greater than 0")
	}

	if p.Size < 1 || p.Size > MaxPageSize {
		return fmt.Errorf("size must be between 1 and %d", MaxPageSize)
	}

	if p.StartDate != nil && p.EndDate != nil && p.StartDate.After(*p.EndDate) {
		return fmt.Errorf("start_date must not be after end_date")
	}

	for metric, r := range p.Ranges {
		if metric.Column() == "" {
			return fmt.Errorf("unknown metric: %s", metric)
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return fmt.Errorf("min_%s must not exceed max_%s", metric, metric)
		}
	}

	return nil
}

// PaginatedResponse is the envelope for paged reading queries
type PaginatedResponse struct {
	Items      []ReadingOut `json:"items"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	Size       int          `json:"size"`
	TotalPages int          `json:"total_pages"`
}

// NewPaginatedResponse builds the envelope; total_pages is ceil(total/size)
func NewPaginatedResponse(readings []Reading, total, page, size int) *PaginatedResponse {
	items := make([]ReadingOut, 0, len(readings))
	for _, r := range readings {
		items = append(items, r.Out())
	}

	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}

	return &PaginatedResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		Size:       size,
		TotalPages: totalPages,
	}
}
