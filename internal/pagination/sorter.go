package pagination

import (
	"fmt"
	"sort"

	"github.com/rshade/planfocus/internal/record"
)

// Sorter defines the interface for sorting records by a named field.
type Sorter interface {
	// Sort sorts a slice of records by the specified field and order.
	Sort(records []record.Record, field, order string) []record.Record
	// IsValidField checks if the given field name is valid for sorting.
	IsValidField(field string) bool
	// GetValidFields returns a list of valid field names for sorting.
	GetValidFields() []string
}

// compareBuilder builds a comparator for one direction.
type compareBuilder func(desc bool) Compare

// FieldSorter implements Sorter from a table of named comparators.
type FieldSorter struct {
	fields map[string]compareBuilder
}

// NewTaskSorter creates a FieldSorter with the task sort fields.
func NewTaskSorter() *FieldSorter {
	return &FieldSorter{
		fields: map[string]compareBuilder{
			"createdAt": func(desc bool) Compare { return ByTime(record.FieldCreatedAt, desc) },
			"dueDate":   func(desc bool) Compare { return ByTime(record.TaskDueDate, desc) },
			"priority": func(desc bool) Compare {
				return ByRank(record.TaskPriority, PriorityRanks, desc)
			},
			"status": func(desc bool) Compare {
				return ByRank(record.TaskStatus, StatusRanks, desc)
			},
			"title":    func(desc bool) Compare { return ByText(record.TaskTitle, desc) },
			"assignee": func(desc bool) Compare { return ByText(record.TaskAssignedToName, desc) },
		},
	}
}

// NewBudgetSorter creates a FieldSorter with the budget sort fields.
func NewBudgetSorter() *FieldSorter {
	return &FieldSorter{
		fields: map[string]compareBuilder{
			"createdAt": func(desc bool) Compare { return ByTime(record.FieldCreatedAt, desc) },
			"amount":    func(desc bool) Compare { return ByNumber(record.BudgetAmount, desc) },
			"title":     func(desc bool) Compare { return ByText(record.BudgetTitle, desc) },
			"category":  func(desc bool) Compare { return ByText(record.BudgetCategory, desc) },
		},
	}
}

// IsValidField checks if the field is valid for sorting.
func (s *FieldSorter) IsValidField(field string) bool {
	_, ok := s.fields[field]
	return ok
}

// GetValidFields returns all valid sort fields.
func (s *FieldSorter) GetValidFields() []string {
	fields := make([]string, 0, len(s.fields))
	for field := range s.fields {
		fields = append(fields, field)
	}
	sort.Strings(fields) // Return in consistent order
	return fields
}

// Comparator returns the comparator for field and order.
func (s *FieldSorter) Comparator(field, order string) (Compare, error) {
	build, ok := s.fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %v)", ErrInvalidSortField, field, s.GetValidFields())
	}
	switch order {
	case SortOrderAsc:
		return build(false), nil
	case SortOrderDesc, "":
		return build(true), nil
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
}

// Sort sorts records by the specified field and order.
// Returns a new sorted slice; does not modify the original.
// If field or order is invalid, returns the original slice unchanged.
func (s *FieldSorter) Sort(records []record.Record, field, order string) []record.Record {
	compare, err := s.Comparator(field, order)
	if err != nil {
		return records
	}
	return SortStable(records, compare)
}
