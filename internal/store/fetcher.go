package store

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rshade/planfocus/internal/logging"
	"github.com/rshade/planfocus/internal/pagedlist"
	"github.com/rshade/planfocus/internal/pagination"
	"github.com/rshade/planfocus/internal/record"
)

// Fetcher pages through a Query.
//
// It asks the store for ordered pages when the store serves the query. Otherwise, or
// when the store rejects the first page with ErrIndexRequired, it loads the filtered
// result set once and sorts it in memory.
type Fetcher struct {
	store    Store
	query    Query
	fallback *pagedlist.ClientSortFetcher[record.Record]

	mu         sync.Mutex
	clientSide bool
}

// NewFetcher creates a Fetcher for q. forceClientSort selects in-memory sorting
// regardless of the store's capabilities.
func NewFetcher(s Store, q Query, forceClientSort bool) *Fetcher {
	f := &Fetcher{
		store:      s,
		query:      q,
		clientSide: forceClientSort || (q.IsCompound() && !s.Capabilities().CompoundQueries),
	}
	f.fallback = pagedlist.NewClientSortFetcher[record.Record](f.loadAll, f.compare())
	return f
}

// ClientSide reports whether pages are sorted in memory.
func (f *Fetcher) ClientSide() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clientSide
}

// FetchPage implements pagedlist.PageFetcher.
func (f *Fetcher) FetchPage(
	ctx context.Context,
	cursor pagedlist.Cursor,
	pageSize int,
) (pagedlist.Page[record.Record], error) {
	if f.ClientSide() {
		return f.fallback.FetchPage(ctx, cursor, pageSize)
	}

	q := f.query
	q.StartAfter = string(cursor)
	q.Limit = pageSize

	res, err := f.store.Query(ctx, q)
	if err != nil {
		if errors.Is(err, ErrIndexRequired) && cursor.IsZero() {
			f.logger(ctx).Info().
				Ctx(ctx).
				Str("collection", q.Collection).
				Msg("store cannot order this filter, sorting in memory")
			f.mu.Lock()
			f.clientSide = true
			f.mu.Unlock()
			return f.fallback.FetchPage(ctx, cursor, pageSize)
		}
		return pagedlist.Page[record.Record]{}, err
	}

	return pagedlist.Page[record.Record]{Records: res.Records, Next: pagedlist.Cursor(res.Next)}, nil
}

// loadAll runs only the query filters, with no ordering or limit.
func (f *Fetcher) loadAll(ctx context.Context) ([]record.Record, error) {
	q := f.query
	q.OrderBy = ""
	q.Descending = false
	q.Limit = 0
	q.StartAfter = ""

	res, err := f.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	f.logger(ctx).Debug().
		Ctx(ctx).
		Str("collection", q.Collection).
		Int("loaded", len(res.Records)).
		Msg("loaded full result set for in-memory sort")
	return res.Records, nil
}

// compare orders records the way the store would have.
func (f *Fetcher) compare() pagination.Compare {
	if f.query.OrderBy == "" {
		return pagination.ByText(record.FieldID, false)
	}
	return pagination.Then(
		pagination.ByTime(f.query.OrderBy, f.query.Descending),
		pagination.ByText(record.FieldID, f.query.Descending),
	)
}

func (f *Fetcher) logger(ctx context.Context) *zerolog.Logger {
	l := logging.FromContext(ctx).With().
		Str("component", "store").
		Str("operation", "fetch_page").
		Logger()
	return &l
}
