package budgets

import (
	"fmt"
	"strings"

	"github.com/rshade/planfocus/internal/pagination"
	"github.com/rshade/planfocus/internal/record"
)

// SortOption is a display order for a budget list.
type SortOption string

// Supported sort options.
const (
	SortDefault       SortOption = "default"
	SortAmountAsc     SortOption = "amount-asc"
	SortAmountDesc    SortOption = "amount-desc"
	SortPendingFirst  SortOption = "pending-first"
	SortApprovedFirst SortOption = "approved-first"
)

// SortOptions lists every option in menu order.
func SortOptions() []SortOption {
	return []SortOption{SortDefault, SortAmountAsc, SortAmountDesc, SortPendingFirst, SortApprovedFirst}
}

// ParseSortOption parses s case-insensitively. An empty string is SortDefault.
func ParseSortOption(s string) (SortOption, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortDefault, nil
	}
	for _, opt := range SortOptions() {
		if string(opt) == s {
			return opt, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: %v)", pagination.ErrInvalidSortField, s, SortOptions())
}

// Next returns the option after o, wrapping around.
func (o SortOption) Next() SortOption {
	opts := SortOptions()
	for i, opt := range opts {
		if opt == o {
			return opts[(i+1)%len(opts)]
		}
	}
	return SortDefault
}

// Compare returns the comparator for o. Unknown options fall back to newest first.
func (o SortOption) Compare() pagination.Compare {
	switch o {
	case SortAmountAsc:
		return pagination.ByNumber(record.BudgetAmount, false)
	case SortAmountDesc:
		return pagination.ByNumber(record.BudgetAmount, true)
	case SortPendingFirst:
		return pagination.ByFlagGrouped(record.BudgetApproved, false)
	case SortApprovedFirst:
		return pagination.ByFlagGrouped(record.BudgetApproved, true)
	case SortDefault:
		return pagination.CreatedDesc()
	default:
		return pagination.CreatedDesc()
	}
}

// Sort returns a copy of records in o's order. Ties keep their input order.
func Sort(records []record.Record, o SortOption) []record.Record {
	return pagination.SortStable(records, o.Compare())
}
