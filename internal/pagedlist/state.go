package pagedlist

// State is a snapshot of a paged list.
type State[T any] struct {
	// Items holds every accumulated record in arrival order.
	Items []T

	// Cursor continues after the last fetched page. Empty before the first page.
	Cursor Cursor

	// HasMore is true when the most recent fetch returned a full page.
	HasMore bool

	// Loading is true while a fetch is in flight.
	Loading bool

	// LastError is set only on the snapshot delivered right after a failed fetch.
	LastError error
}

// CanLoadMore reports whether a LoadNextPage call would issue a fetch.
func (s State[T]) CanLoadMore() bool {
	return s.HasMore && !s.Cursor.IsZero() && !s.Loading
}

// Len returns the number of accumulated items.
func (s State[T]) Len() int {
	return len(s.Items)
}

// Observer receives list state changes.
type Observer[T any] interface {
	// OnChange is called after every state transition with a snapshot.
	OnChange(state State[T])
	// OnError is called once per failed fetch.
	OnError(err error)
}

// ObserverFuncs adapts a pair of functions to Observer. Nil functions are skipped.
type ObserverFuncs[T any] struct {
	Change func(State[T])
	Error  func(error)
}

// OnChange calls o.Change if set.
func (o ObserverFuncs[T]) OnChange(state State[T]) {
	if o.Change != nil {
		o.Change(state)
	}
}

// OnError calls o.Error if set.
func (o ObserverFuncs[T]) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}
