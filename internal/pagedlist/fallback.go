package pagedlist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/rshade/planfocus/internal/pagination"
)

// Cursor errors returned by ClientSortFetcher.
var (
	ErrInvalidCursor = errors.New("invalid page cursor")
	ErrStaleCursor   = errors.New("page cursor refers to a discarded snapshot")
)

// LoadAllFunc loads the complete, filtered but unordered result set.
type LoadAllFunc[T any] func(ctx context.Context) ([]T, error)

// ClientSortFetcher serves pages sorted in memory.
//
// A fetch with an empty cursor loads the full result set once and sorts it into
// a new snapshot. Later pages are cut from the snapshot their cursor names, so
// several controllers can page through one fetcher at the same time. The cursor
// names the snapshot and the next page index; it is empty when no page follows.
//
// Snapshots are kept in least-recently-used order up to the snapshot limit.
type ClientSortFetcher[T any] struct {
	load    LoadAllFunc[T]
	compare func(a, b T) int
	limit   int

	mu        sync.Mutex
	snapshots map[string][]T
	order     []string // least recently used first
}

// DefaultSnapshotLimit is the number of sorted snapshots a ClientSortFetcher retains.
const DefaultSnapshotLimit = 16

// NewClientSortFetcher creates a fetcher that sorts load's results with compare.
func NewClientSortFetcher[T any](load LoadAllFunc[T], compare func(a, b T) int) *ClientSortFetcher[T] {
	return &ClientSortFetcher[T]{
		load:      load,
		compare:   compare,
		limit:     DefaultSnapshotLimit,
		snapshots: make(map[string][]T),
	}
}

// WithSnapshotLimit sets how many snapshots are retained. Values below 1 are ignored.
func (f *ClientSortFetcher[T]) WithSnapshotLimit(limit int) *ClientSortFetcher[T] {
	if limit >= 1 {
		f.limit = limit
	}
	return f
}

// FetchPage implements PageFetcher.
func (f *ClientSortFetcher[T]) FetchPage(ctx context.Context, cursor Cursor, pageSize int) (Page[T], error) {
	if cursor.IsZero() {
		return f.first(ctx, pageSize)
	}

	id, index, err := parseSnapshotCursor(cursor)
	if err != nil {
		return Page[T]{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot, ok := f.snapshots[id]
	if !ok {
		return Page[T]{}, fmt.Errorf("%w: %s", ErrStaleCursor, id)
	}
	f.touchLocked(id)
	return pageOf(id, snapshot, index, pageSize), nil
}

func (f *ClientSortFetcher[T]) first(ctx context.Context, pageSize int) (Page[T], error) {
	all, err := f.load(ctx)
	if err != nil {
		return Page[T]{}, err
	}

	sorted := pagination.SortStable(all, f.compare)

	id := ulid.Make().String()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[id] = sorted
	f.order = append(f.order, id)
	for len(f.order) > f.limit {
		delete(f.snapshots, f.order[0])
		f.order = f.order[1:]
	}
	return pageOf(id, sorted, 0, pageSize), nil
}

// Snapshots returns the number of snapshots currently retained.
func (f *ClientSortFetcher[T]) Snapshots() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

func (f *ClientSortFetcher[T]) touchLocked(id string) {
	i := slices.Index(f.order, id)
	if i < 0 || i == len(f.order)-1 {
		return
	}
	f.order = append(slices.Delete(f.order, i, i+1), id)
}

func pageOf[T any](id string, snapshot []T, index, pageSize int) Page[T] {
	records, hasMore := pagination.SortAndPaginate[T](snapshot, nil, index, pageSize)
	page := Page[T]{Records: records}
	if hasMore {
		page.Next = Cursor(id + ":" + strconv.Itoa(index+1))
	}
	return page
}

func parseSnapshotCursor(c Cursor) (string, int, error) {
	id, idx, ok := strings.Cut(string(c), ":")
	if !ok || id == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidCursor, c)
	}
	index, err := strconv.Atoi(idx)
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidCursor, c)
	}
	return id, index, nil
}
