package tasks

import (
	"fmt"
	"strings"

	"github.com/rshade/planfocus/internal/pagination"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/store"
)

// Sort fields accepted by FilterCriteria.
const (
	SortByCreatedAt = "createdAt"
	SortByPriority  = "priority"
	SortByStatus    = "status"
	SortByDueDate   = "dueDate"
)

// FilterCriteria narrows and orders a loaded task list.
type FilterCriteria struct {
	// Search matches title, description, or assignee name, case-insensitively.
	Search     string
	Status     string
	Priority   string
	AssignedTo string
	SortBy     string
	Order      string
}

// DefaultCriteria matches everything, newest first.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{SortBy: SortByCreatedAt, Order: pagination.SortOrderDesc}
}

// Validate checks the status, priority, and sort settings.
func (c FilterCriteria) Validate() error {
	if c.Status != "" && !record.IsValidStatus(c.Status) {
		return fmt.Errorf("%w: unknown status %q", record.ErrInvalidTask, c.Status)
	}
	if c.Priority != "" && !record.IsValidPriority(c.Priority) {
		return fmt.Errorf("%w: unknown priority %q", record.ErrInvalidTask, c.Priority)
	}
	if c.SortBy != "" {
		switch c.SortBy {
		case SortByCreatedAt, SortByPriority, SortByStatus, SortByDueDate:
		default:
			return fmt.Errorf("%w: %q", pagination.ErrInvalidSortField, c.SortBy)
		}
	}
	if c.Order != "" && c.Order != pagination.SortOrderAsc && c.Order != pagination.SortOrderDesc {
		return fmt.Errorf("%w: got %q", pagination.ErrInvalidSortOrder, c.Order)
	}
	return nil
}

// StoreFilters returns the equality filters a store can apply.
func (c FilterCriteria) StoreFilters() []store.Filter {
	var filters []store.Filter
	if c.Status != "" {
		filters = append(filters, store.Eq(record.TaskStatus, c.Status))
	}
	if c.Priority != "" {
		filters = append(filters, store.Eq(record.TaskPriority, c.Priority))
	}
	if c.AssignedTo != "" {
		filters = append(filters, store.Eq(record.TaskAssignedToUserID, c.AssignedTo))
	}
	return filters
}

// Matches reports whether rec satisfies every set criterion.
func (c FilterCriteria) Matches(rec record.Record) bool {
	if q := strings.ToLower(strings.TrimSpace(c.Search)); q != "" {
		found := false
		for _, field := range []string{record.TaskTitle, record.TaskDescription, record.TaskAssignedToName} {
			if v, ok := rec.String(field); ok && strings.Contains(strings.ToLower(v), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for field, want := range map[string]string{
		record.TaskStatus:           c.Status,
		record.TaskPriority:         c.Priority,
		record.TaskAssignedToUserID: c.AssignedTo,
	} {
		if want == "" {
			continue
		}
		if got, _ := rec.String(field); got != want {
			return false
		}
	}
	return true
}

// FilterAndSort returns the records matching c, sorted by c.SortBy. The input is
// not modified.
func FilterAndSort(records []record.Record, c FilterCriteria) ([]record.Record, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	filtered := make([]record.Record, 0, len(records))
	for _, rec := range records {
		if c.Matches(rec) {
			filtered = append(filtered, rec)
		}
	}

	sortBy, order := c.SortBy, c.Order
	if sortBy == "" {
		sortBy = SortByCreatedAt
	}
	if order == "" {
		order = pagination.SortOrderDesc
	}
	compare, err := pagination.NewTaskSorter().Comparator(sortBy, order)
	if err != nil {
		return nil, err
	}
	return pagination.SortStable(filtered, compare), nil
}
