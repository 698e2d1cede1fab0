package pagedlist

import (
	"context"
	"sync"

	"github.com/rshade/planfocus/internal/record"
)

// Collect loads the first page and then follows the cursor until the list reports
// no more pages or maxPages pages have been applied. It blocks between pages and
// stops at the first fetch error, returning the state accumulated so far.
//
//nolint:nonamedreturns // Named returns document the three results.
func Collect[T record.Keyed](
	ctx context.Context,
	c *Controller[T],
	maxPages int,
) (state State[T], pages int, err error) {
	var (
		mu       sync.Mutex
		fetchErr error
	)
	unsubscribe := c.Subscribe(ObserverFuncs[T]{
		Error: func(e error) {
			mu.Lock()
			defer mu.Unlock()
			if fetchErr == nil {
				fetchErr = e
			}
		},
	})
	defer unsubscribe()

	started := c.LoadFirstPage(ctx)
	for started {
		c.Wait()

		mu.Lock()
		err = fetchErr
		mu.Unlock()
		if err != nil {
			return c.Snapshot(), pages, err
		}

		pages++
		if pages >= maxPages {
			break
		}
		if err = ctx.Err(); err != nil {
			return c.Snapshot(), pages, err
		}
		started = c.LoadNextPage(ctx)
	}

	return c.Snapshot(), pages, nil
}
