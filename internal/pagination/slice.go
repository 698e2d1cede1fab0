package pagination

import (
	"slices"
)

// SortStable returns a sorted copy of records. Ties keep their original order.
func SortStable[T any](records []T, compare func(a, b T) int) []T {
	sorted := slices.Clone(records)
	if compare != nil {
		slices.SortStableFunc(sorted, compare)
	}
	return sorted
}

// SortAndPaginate sorts a copy of records and returns the zero-based page pageIndex.
// hasMore reports whether records remain after the returned page. A page that starts
// beyond the end of the input is empty with hasMore false. The input is never mutated.
//
//nolint:nonamedreturns // Named returns document the two results.
func SortAndPaginate[T any](
	records []T,
	compare func(a, b T) int,
	pageIndex, pageSize int,
) (page []T, hasMore bool) {
	if pageIndex < 0 || pageSize <= 0 {
		return []T{}, false
	}

	// Compare page counts first so pageIndex*pageSize cannot overflow.
	pages := len(records) / pageSize
	if len(records)%pageSize != 0 {
		pages++
	}
	if pageIndex >= pages {
		return []T{}, false
	}
	start := pageIndex * pageSize

	sorted := SortStable(records, compare)

	end := start + min(pageSize, len(sorted)-start)
	return sorted[start:end], end < len(sorted)
}
