package pagedlist

import (
	"context"
)

// Cursor is an opaque position token produced by a PageFetcher.
// The empty cursor means "start from the beginning".
type Cursor string

// IsZero reports whether the cursor is absent.
func (c Cursor) IsZero() bool {
	return c == ""
}

// Page is one page of records and the cursor that continues after it.
type Page[T any] struct {
	Records []T
	Next    Cursor
}

// PageFetcher fetches one page of records starting after cursor.
// Each call returns either a complete page or an error, never both.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, cursor Cursor, pageSize int) (Page[T], error)
}

// FetcherFunc adapts a function to PageFetcher.
type FetcherFunc[T any] func(ctx context.Context, cursor Cursor, pageSize int) (Page[T], error)

// FetchPage calls f.
func (f FetcherFunc[T]) FetchPage(ctx context.Context, cursor Cursor, pageSize int) (Page[T], error) {
	return f(ctx, cursor, pageSize)
}
