// Package pagination provides ordering and in-memory paging helpers for record lists.
//
// This package contains the pieces shared by the list commands, the TUI and the
// client-side sort fallback:
//   - PaginationParams: CLI flag parsing and validation
//   - ListMeta: response metadata for accumulated lists
//   - Compare and its constructors: strict weak orderings over record.Record
//   - SortAndPaginate: stable sort plus zero-based page slicing
//   - Sorter: named sort fields with validation
//
// Every comparator treats an absent ordering value as lower than any present value,
// so such records sort after the rest regardless of direction.
package pagination
