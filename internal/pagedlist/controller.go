package pagedlist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rshade/planfocus/internal/record"
)

// DefaultPageSize is the number of records requested per fetch.
const DefaultPageSize = 10

// ErrFetchFailed wraps every error returned by a PageFetcher.
var ErrFetchFailed = errors.New("page fetch failed")

// Controller accumulates cursor-paged records from a PageFetcher.
//
// Load operations return immediately; the fetch runs on its own goroutine and its
// result is applied when it completes. Use Wait to block until it has been applied.
type Controller[T record.Keyed] struct {
	mu sync.Mutex

	fetcher  PageFetcher[T]
	pageSize int
	dedupe   bool
	logger   zerolog.Logger

	observers []*subscription[T]
	nextSubID int

	items    []T
	seen     map[string]struct{}
	cursor   Cursor
	hasMore  bool
	loading  bool
	disposed bool

	// generation is bumped by Reset, SetFilter and Dispose. A completion whose
	// generation no longer matches is dropped.
	generation uint64
	// fetchGen is the generation of the fetch in flight. loading stays set
	// until that fetch returns, even after it was abandoned.
	fetchGen uint64
	// queued is a first-page load waiting for an abandoned fetch to return.
	queued *queuedLoad

	inflight sync.WaitGroup
}

type queuedLoad struct {
	ctx       context.Context
	operation string
}

type subscription[T any] struct {
	id       int
	observer Observer[T]
}

// New creates a Controller with the default page size and duplicate filtering on.
func New[T record.Keyed](fetcher PageFetcher[T]) *Controller[T] {
	return &Controller[T]{
		fetcher:  fetcher,
		pageSize: DefaultPageSize,
		dedupe:   true,
		logger:   zerolog.Nop(),
		seen:     make(map[string]struct{}),
	}
}

// WithPageSize sets the page size. Values below 1 are ignored.
func (c *Controller[T]) WithPageSize(size int) *Controller[T] {
	if size >= 1 {
		c.pageSize = size
	}
	return c
}

// WithDedupe controls whether records whose ID is already listed are skipped.
func (c *Controller[T]) WithDedupe(enabled bool) *Controller[T] {
	c.dedupe = enabled
	return c
}

// WithLogger sets the logger used for debug output.
func (c *Controller[T]) WithLogger(logger zerolog.Logger) *Controller[T] {
	c.logger = logger.With().Str("component", "pagedlist").Logger()
	return c
}

// PageSize returns the configured page size.
func (c *Controller[T]) PageSize() int {
	return c.pageSize
}

// Subscribe registers an observer and returns a function that removes it.
func (c *Controller[T]) Subscribe(observer Observer[T]) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSubID++
	id := c.nextSubID
	c.observers = append(c.observers, &subscription[T]{id: id, observer: observer})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.observers = slices.DeleteFunc(c.observers, func(s *subscription[T]) bool {
			return s.id == id
		})
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Reset clears the list without fetching. A fetch in flight is abandoned and its
// result will be ignored.
func (c *Controller[T]) Reset() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	state := c.snapshotLocked()
	observers := c.observersLocked()
	c.mu.Unlock()

	notifyChange(observers, state)
}

// LoadFirstPage fetches the first page and replaces the list with it.
// It returns false without fetching when a fetch is already in flight. When
// that fetch was abandoned by Reset or SetFilter, the load is queued instead
// and starts once the abandoned fetch returns.
func (c *Controller[T]) LoadFirstPage(ctx context.Context) bool {
	return c.start(ctx, "load_first_page", true)
}

// LoadNextPage fetches the page after the cursor and appends it.
// It returns false without fetching when a fetch is in flight, when the last
// page was short, or before any first page was loaded.
func (c *Controller[T]) LoadNextPage(ctx context.Context) bool {
	return c.start(ctx, "load_next_page", false)
}

// SetFilter switches to another fetcher, clears the list, and loads its first page.
func (c *Controller[T]) SetFilter(ctx context.Context, fetcher PageFetcher[T]) bool {
	if fetcher == nil {
		c.logger.Debug().Str("operation", "set_filter").Msg("ignored: nil fetcher")
		return false
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		c.logger.Debug().Str("operation", "set_filter").Msg("ignored: controller disposed")
		return false
	}
	c.resetLocked()
	c.fetcher = fetcher
	c.mu.Unlock()

	return c.LoadFirstPage(ctx)
}

// Dispose detaches the controller. Later operations are no-ops and any completion
// still in flight is dropped silently.
func (c *Controller[T]) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disposed = true
	c.generation++
	c.queued = nil
	c.items = nil
	c.seen = make(map[string]struct{})
	c.cursor = ""
	c.hasMore = false
	c.loading = false
	c.observers = nil
}

// Wait blocks until every started fetch has completed and been applied or dropped.
func (c *Controller[T]) Wait() {
	c.inflight.Wait()
}

func (c *Controller[T]) start(ctx context.Context, operation string, first bool) bool {
	c.mu.Lock()

	switch {
	case c.disposed:
		c.mu.Unlock()
		c.logger.Debug().Str("operation", operation).Msg("ignored: controller disposed")
		return false
	case c.queued != nil:
		c.mu.Unlock()
		c.logger.Debug().Str("operation", operation).Msg("ignored: first page already queued")
		return false
	case c.loading && first && c.fetchGen != c.generation:
		c.queued = &queuedLoad{ctx: ctx, operation: operation}
		state := c.snapshotLocked()
		observers := c.observersLocked()
		c.mu.Unlock()
		c.logger.Debug().Str("operation", operation).Msg("queued behind abandoned fetch")
		notifyChange(observers, state)
		return true
	case c.loading:
		c.mu.Unlock()
		c.logger.Debug().Str("operation", operation).Msg("ignored: fetch already in flight")
		return false
	case c.fetcher == nil:
		c.mu.Unlock()
		c.logger.Debug().Str("operation", operation).Msg("ignored: no fetcher")
		return false
	case !first && !c.hasMore:
		c.mu.Unlock()
		c.logger.Debug().Str("operation", operation).Msg("ignored: no more pages")
		return false
	case !first && c.cursor.IsZero():
		c.mu.Unlock()
		c.logger.Debug().Str("operation", operation).Msg("ignored: first page not loaded")
		return false
	}

	c.loading = true
	c.fetchGen = c.generation
	gen := c.generation
	fetcher := c.fetcher
	cursor := c.cursor
	if first {
		cursor = ""
	}
	pageSize := c.pageSize
	c.inflight.Add(1)

	state := c.snapshotLocked()
	observers := c.observersLocked()
	c.mu.Unlock()

	notifyChange(observers, state)

	go c.fetch(ctx, fetchRequest[T]{
		operation:  operation,
		first:      first,
		generation: gen,
		fetcher:    fetcher,
		cursor:     cursor,
		pageSize:   pageSize,
	})
	return true
}

type fetchRequest[T any] struct {
	operation  string
	first      bool
	generation uint64
	fetcher    PageFetcher[T]
	cursor     Cursor
	pageSize   int
}

func (c *Controller[T]) fetch(ctx context.Context, f fetchRequest[T]) {
	defer c.inflight.Done()

	page, err := f.fetcher.FetchPage(ctx, f.cursor, f.pageSize)

	c.mu.Lock()
	if c.disposed || c.generation != f.generation {
		disposed := c.disposed
		queued := c.queued
		c.queued = nil
		var (
			state     State[T]
			observers []Observer[T]
		)
		if !disposed {
			c.loading = false
			state = c.snapshotLocked()
			observers = c.observersLocked()
		}
		c.mu.Unlock()
		c.logger.Debug().
			Str("operation", f.operation).
			Msg("dropping stale page completion")
		switch {
		case queued != nil:
			c.start(queued.ctx, queued.operation, true)
		case !disposed:
			notifyChange(observers, state)
		}
		return
	}
	c.loading = false

	if err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrFetchFailed, err)
		state := c.snapshotLocked()
		state.LastError = wrapped
		observers := c.observersLocked()
		c.mu.Unlock()

		c.logger.Debug().
			Str("operation", f.operation).
			Err(err).
			Msg("page fetch failed")
		notifyError(observers, wrapped)
		notifyChange(observers, state)
		return
	}

	if f.first {
		c.items = nil
		c.seen = make(map[string]struct{})
	}
	skipped := c.appendLocked(page.Records)
	c.cursor = page.Next
	c.hasMore = len(page.Records) == f.pageSize

	state := c.snapshotLocked()
	observers := c.observersLocked()
	c.mu.Unlock()

	c.logger.Debug().
		Str("operation", f.operation).
		Int("received", len(page.Records)).
		Int("skipped_duplicates", skipped).
		Int("total", len(state.Items)).
		Bool("has_more", state.HasMore).
		Msg("page applied")
	notifyChange(observers, state)
}

func (c *Controller[T]) appendLocked(records []T) int {
	skipped := 0
	for _, r := range records {
		id := r.RecordID()
		if c.dedupe {
			if _, dup := c.seen[id]; dup {
				skipped++
				continue
			}
		}
		c.seen[id] = struct{}{}
		c.items = append(c.items, r)
	}
	return skipped
}

// resetLocked clears the list. A fetch in flight keeps loading set until it
// returns so that no second fetch overlaps it.
func (c *Controller[T]) resetLocked() {
	c.generation++
	c.queued = nil
	c.items = nil
	c.seen = make(map[string]struct{})
	c.cursor = ""
	c.hasMore = false
}

func (c *Controller[T]) snapshotLocked() State[T] {
	return State[T]{
		Items:   slices.Clone(c.items),
		Cursor:  c.cursor,
		HasMore: c.hasMore,
		Loading: c.loading,
	}
}

func (c *Controller[T]) observersLocked() []Observer[T] {
	out := make([]Observer[T], 0, len(c.observers))
	for _, s := range c.observers {
		out = append(out, s.observer)
	}
	return out
}

func notifyChange[T any](observers []Observer[T], state State[T]) {
	for _, o := range observers {
		o.OnChange(state)
	}
}

func notifyError[T any](observers []Observer[T], err error) {
	for _, o := range observers {
		o.OnError(err)
	}
}
