package pagination

import (
	"errors"
	"fmt"
	"strings"
)

// Paging defaults and validation limits.
const (
	DefaultPageSize  = 10
	MinPageSize      = 1
	MaxPageSize      = 1000
	DefaultPages     = 1
	MaxPages         = 1000
	DefaultSortField = ""
	DefaultSortOrder = "desc"
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"
)

// Common validation errors.
var (
	ErrInvalidPageSize   = errors.New("page-size must be between 1 and 1000")
	ErrInvalidPages      = errors.New("pages must be between 1 and 1000")
	ErrInvalidSortOrder  = errors.New("sort order must be 'asc' or 'desc'")
	ErrInvalidSortFormat = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'amount:desc')")
	ErrEmptySortField    = errors.New("sort field cannot be empty")
	ErrInvalidSortField  = errors.New("invalid sort field")
)

// PaginationParams holds CLI paging flags.
//
// PageSize is the number of records requested per fetch and Pages is how many fetches
// a non-interactive list command performs (the first page plus Pages-1 "load more").
//
//nolint:revive // PaginationParams is the canonical name for this exported type.
type PaginationParams struct {
	// PageSize is the number of records per page.
	PageSize int

	// Pages is the number of pages to accumulate.
	Pages int

	// All keeps loading until the list reports no more pages.
	All bool

	// SortField is the display sort field (e.g., "amount", "priority").
	SortField string

	// SortOrder is the sort direction: "asc" or "desc".
	SortOrder string
}

// NewPaginationParams creates a PaginationParams with default values.
func NewPaginationParams() *PaginationParams {
	return &PaginationParams{
		PageSize:  DefaultPageSize,
		Pages:     DefaultPages,
		SortField: DefaultSortField,
		SortOrder: DefaultSortOrder,
	}
}

// Validate checks that the parameters are within bounds.
func (p PaginationParams) Validate() error {
	if p.PageSize < MinPageSize || p.PageSize > MaxPageSize {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, p.PageSize)
	}
	if !p.All && (p.Pages < 1 || p.Pages > MaxPages) {
		return fmt.Errorf("%w: got %d", ErrInvalidPages, p.Pages)
	}
	if p.SortOrder != "" && p.SortOrder != SortOrderAsc && p.SortOrder != SortOrderDesc {
		return fmt.Errorf("%w: got %q", ErrInvalidSortOrder, p.SortOrder)
	}
	return nil
}

// PageBudget returns how many fetches a list command may issue.
func (p PaginationParams) PageBudget() int {
	if p.All {
		return MaxPages
	}
	return p.Pages
}

// sortPartsMax is the maximum number of parts in a sort string (field:order).
const sortPartsMax = 2

// ParseSort parses a sort string in the format "field" or "field:order".
// Examples: "amount", "priority:desc", "createdAt:asc".
// A bare field defaults to descending order, matching the newest-first feed.
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(sortStr string) (field, order string, err error) {
	if strings.TrimSpace(sortStr) == "" {
		return DefaultSortField, DefaultSortOrder, nil
	}

	parts := strings.Split(sortStr, ":")
	switch len(parts) {
	case 1:
		field = strings.TrimSpace(parts[0])
		order = DefaultSortOrder
	case sortPartsMax:
		field = strings.TrimSpace(parts[0])
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	if field == "" {
		return "", "", ErrEmptySortField
	}

	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}

	return field, order, nil
}
