package pagedlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rshade/planfocus/internal/record"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errBackend = errors.New("backend unavailable")

type response struct {
	page Page[record.Record]
	err  error
}

// scriptedFetcher replies with queued responses in order and records every call.
type scriptedFetcher struct {
	mu        sync.Mutex
	responses []response
	cursors   []Cursor
	gate      chan struct{}
}

func (f *scriptedFetcher) FetchPage(_ context.Context, cursor Cursor, _ int) (Page[record.Record], error) {
	f.mu.Lock()
	f.cursors = append(f.cursors, cursor)
	gate := f.gate
	var resp response
	if len(f.responses) > 0 {
		resp = f.responses[0]
		f.responses = f.responses[1:]
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return resp.page, resp.err
}

func (f *scriptedFetcher) calls() []Cursor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Cursor(nil), f.cursors...)
}

func (f *scriptedFetcher) push(page Page[record.Record], err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response{page: page, err: err})
}

// recordingObserver keeps every notification.
type recordingObserver struct {
	mu     sync.Mutex
	states []State[record.Record]
	errs   []error
}

func (o *recordingObserver) OnChange(s State[record.Record]) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, s)
}

func (o *recordingObserver) OnError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs = append(o.errs, err)
}

func (o *recordingObserver) errors() []error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]error(nil), o.errs...)
}

func (o *recordingObserver) last() State[record.Record] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.states[len(o.states)-1]
}

func makeRecords(prefix string, n int) []record.Record {
	out := make([]record.Record, 0, n)
	for i := range n {
		out = append(out, record.Record{record.FieldID: fmt.Sprintf("%s-%02d", prefix, i)})
	}
	return out
}

func loadAndWait(t *testing.T, c *Controller[record.Record], next bool) bool {
	t.Helper()
	var started bool
	if next {
		started = c.LoadNextPage(context.Background())
	} else {
		started = c.LoadFirstPage(context.Background())
	}
	c.Wait()
	return started
}

func TestController_EndToEndScenario(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.push(Page[record.Record]{Records: makeRecords("a", 10), Next: "C1"}, nil)
	fetcher.push(Page[record.Record]{Records: makeRecords("b", 4), Next: "C2"}, nil)

	c := New[record.Record](fetcher).WithPageSize(10)

	require.True(t, loadAndWait(t, c, false))
	state := c.Snapshot()
	assert.Len(t, state.Items, 10)
	assert.Equal(t, Cursor("C1"), state.Cursor)
	assert.True(t, state.HasMore)
	assert.False(t, state.Loading)

	require.True(t, loadAndWait(t, c, true))
	state = c.Snapshot()
	assert.Len(t, state.Items, 14)
	assert.Equal(t, Cursor("C2"), state.Cursor)
	assert.False(t, state.HasMore)

	assert.False(t, loadAndWait(t, c, true), "no fetch once the last page was short")
	assert.Equal(t, []Cursor{"", "C1"}, fetcher.calls())
}

func TestController_AppendsInArrivalOrder(t *testing.T) {
	fetcher := &scriptedFetcher{}
	first := makeRecords("a", 2)
	second := makeRecords("b", 2)
	fetcher.push(Page[record.Record]{Records: first, Next: "c1"}, nil)
	fetcher.push(Page[record.Record]{Records: second, Next: "c2"}, nil)

	c := New[record.Record](fetcher).WithPageSize(2)
	loadAndWait(t, c, false)
	loadAndWait(t, c, true)

	assert.Equal(t, []string{"a-00", "a-01", "b-00", "b-01"}, record.IDs(c.Snapshot().Items))
}

func TestController_HasMore(t *testing.T) {
	tests := []struct {
		name     string
		received int
		want     bool
	}{
		{name: "full page", received: 5, want: true},
		{name: "short page", received: 4, want: false},
		{name: "empty page", received: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &scriptedFetcher{}
			fetcher.push(Page[record.Record]{Records: makeRecords("r", tt.received), Next: "next"}, nil)

			c := New[record.Record](fetcher).WithPageSize(5)
			loadAndWait(t, c, false)

			assert.Equal(t, tt.want, c.Snapshot().HasMore)
		})
	}
}

func TestController_ResetIsIdempotent(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.push(Page[record.Record]{Records: makeRecords("a", 3), Next: "c1"}, nil)

	c := New[record.Record](fetcher).WithPageSize(3)
	loadAndWait(t, c, false)
	require.Len(t, c.Snapshot().Items, 3)

	c.Reset()
	once := c.Snapshot()
	c.Reset()
	twice := c.Snapshot()

	assert.Equal(t, once, twice)
	assert.Empty(t, once.Items)
	assert.True(t, once.Cursor.IsZero())
	assert.False(t, once.HasMore)
	assert.False(t, once.Loading)
	assert.Len(t, fetcher.calls(), 1, "reset never fetches")
}

func TestController_NoDuplicateIdentifiers(t *testing.T) {
	fetcher := &scriptedFetcher{}
	page1 := makeRecords("a", 3)
	page2 := append([]record.Record{page1[2]}, makeRecords("b", 2)...)
	fetcher.push(Page[record.Record]{Records: page1, Next: "c1"}, nil)
	fetcher.push(Page[record.Record]{Records: page2, Next: "c2"}, nil)

	c := New[record.Record](fetcher).WithPageSize(3)
	loadAndWait(t, c, false)
	loadAndWait(t, c, true)

	ids := record.IDs(c.Snapshot().Items)
	assert.Equal(t, []string{"a-00", "a-01", "a-02", "b-00", "b-01"}, ids)
	assert.True(t, c.Snapshot().HasMore, "hasMore follows the received count, not the kept count")
}

func TestController_DedupeDisabled(t *testing.T) {
	fetcher := &scriptedFetcher{}
	dup := record.Record{record.FieldID: "same"}
	fetcher.push(Page[record.Record]{Records: []record.Record{dup, dup}}, nil)

	c := New[record.Record](fetcher).WithDedupe(false)
	loadAndWait(t, c, false)

	assert.Len(t, c.Snapshot().Items, 2)
}

func TestController_RefreshReplacesItems(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.push(Page[record.Record]{Records: makeRecords("old", 2), Next: "c1"}, nil)
	fetcher.push(Page[record.Record]{Records: makeRecords("new", 1), Next: "c9"}, nil)

	c := New[record.Record](fetcher).WithPageSize(2)
	loadAndWait(t, c, false)
	loadAndWait(t, c, false)

	state := c.Snapshot()
	assert.Equal(t, []string{"new-00"}, record.IDs(state.Items))
	assert.Equal(t, Cursor("c9"), state.Cursor)
	assert.False(t, state.HasMore)
}

func TestController_GuardedConcurrency(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.push(Page[record.Record]{Records: makeRecords("a", 2), Next: "c1"}, nil)
	fetcher.push(Page[record.Record]{Records: makeRecords("b", 2), Next: "c2"}, nil)

	c := New[record.Record](fetcher).WithPageSize(2)
	loadAndWait(t, c, false)

	gate := make(chan struct{})
	fetcher.mu.Lock()
	fetcher.gate = gate
	fetcher.mu.Unlock()

	assert.True(t, c.LoadNextPage(context.Background()))
	assert.True(t, c.Snapshot().Loading)
	assert.False(t, c.LoadNextPage(context.Background()), "second call while loading is ignored")
	assert.False(t, c.LoadFirstPage(context.Background()), "refresh while loading is ignored")

	close(gate)
	c.Wait()

	assert.Len(t, fetcher.calls(), 2)
	assert.Len(t, c.Snapshot().Items, 4)
	assert.False(t, c.Snapshot().Loading)
}

func TestController_NextPageFailureKeepsItems(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.push(Page[record.Record]{Records: makeRecords("a", 10), Next: "C1"}, nil)
	fetcher.push(Page[record.Record]{}, errBackend)

	obs := &recordingObserver{}
	c := New[record.Record](fetcher)
	c.Subscribe(obs)

	loadAndWait(t, c, false)
	before := c.Snapshot()

	require.True(t, loadAndWait(t, c, true))
	after := c.Snapshot()

	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, Cursor("C1"), after.Cursor)
	assert.True(t, after.HasMore)
	assert.False(t, after.Loading)
	assert.NoError(t, after.LastError, "the error is not kept in state")

	errs := obs.errors()
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrFetchFailed)
	require.ErrorIs(t, errs[0], errBackend)

	notified := obs.last()
	require.ErrorIs(t, notified.LastError, ErrFetchFailed)
	assert.Len(t, notified.Items, 10)
}

func TestController_FirstPageFailureLeavesState(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.push(Page[record.Record]{Records: makeRecords("a", 2), Next: "c1"}, nil)
	fetcher.push(Page[record.Record]{}, errBackend)

	obs := &recordingObserver{}
	c := New[record.Record](fetcher).WithPageSize(2)
	c.Subscribe(obs)

	loadAndWait(t, c, false)
	loadAndWait(t, c, false)

	state := c.Snapshot()
	assert.Len(t, state.Items, 2)
	assert.Equal(t, Cursor("c1"), state.Cursor)
	assert.True(t, state.HasMore)
	assert.Len(t, obs.errors(), 1)

	// Retry is the caller's decision.
	fetcher.push(Page[record.Record]{Records: makeRecords("b", 1)}, nil)
	loadAndWait(t, c, false)
	assert.Equal(t, []string{"b-00"}, record.IDs(c.Snapshot().Items))
}

func TestController_NextPageBeforeFirstIsNoop(t *testing.T) {
	fetcher := &scriptedFetcher{}
	c := New[record.Record](fetcher)

	assert.False(t, c.LoadNextPage(context.Background()))
	assert.Empty(t, fetcher.calls())
}

func TestController_ResetDropsInflightCompletion(t *testing.T) {
	gate := make(chan struct{})
	fetcher := &scriptedFetcher{gate: gate}
	fetcher.push(Page[record.Record]{Records: makeRecords("late", 2), Next: "c1"}, nil)

	c := New[record.Record](fetcher).WithPageSize(2)
	require.True(t, c.LoadFirstPage(context.Background()))

	c.Reset()
	assert.True(t, c.Snapshot().Loading, "the abandoned fetch is still outstanding")
	assert.False(t, c.LoadNextPage(context.Background()))

	close(gate)
	c.Wait()

	state := c.Snapshot()
	assert.Empty(t, state.Items)
	assert.False(t, state.HasMore)
	assert.False(t, state.Loading)
}

// countingFetcher tracks how many fetches run at once.
type countingFetcher struct {
	mu      sync.Mutex
	active  int
	peak    int
	calls   int
	release chan struct{}
}

func (f *countingFetcher) FetchPage(_ context.Context, _ Cursor, _ int) (Page[record.Record], error) {
	f.mu.Lock()
	f.active++
	f.calls++
	f.peak = max(f.peak, f.active)
	call := f.calls
	f.mu.Unlock()

	if call == 1 {
		<-f.release
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	return Page[record.Record]{Records: makeRecords(fmt.Sprintf("call%d", call), 1)}, nil
}

func TestController_ResetNeverOverlapsFetches(t *testing.T) {
	fetcher := &countingFetcher{release: make(chan struct{})}
	c := New[record.Record](fetcher)

	require.True(t, c.LoadFirstPage(context.Background()))
	c.Reset()
	require.True(t, c.LoadFirstPage(context.Background()), "queued behind the abandoned fetch")
	assert.False(t, c.LoadFirstPage(context.Background()), "only one load is queued")

	close(fetcher.release)
	c.Wait()

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.Equal(t, 1, fetcher.peak)
	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, []string{"call2-00"}, record.IDs(c.Snapshot().Items))
}

func TestController_ResetCancelsQueuedLoad(t *testing.T) {
	fetcher := &countingFetcher{release: make(chan struct{})}
	c := New[record.Record](fetcher)

	require.True(t, c.LoadFirstPage(context.Background()))
	c.Reset()
	require.True(t, c.LoadFirstPage(context.Background()))
	c.Reset()

	close(fetcher.release)
	c.Wait()

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.Equal(t, 1, fetcher.calls)
	assert.Empty(t, c.Snapshot().Items)
	assert.False(t, c.Snapshot().Loading)
}

func TestController_SetFilterSwitchesFetcher(t *testing.T) {
	all := &scriptedFetcher{}
	all.push(Page[record.Record]{Records: makeRecords("all", 3), Next: "c1"}, nil)

	mine := &scriptedFetcher{}
	mine.push(Page[record.Record]{Records: makeRecords("mine", 1)}, nil)

	c := New[record.Record](all).WithPageSize(3)
	loadAndWait(t, c, false)

	require.True(t, c.SetFilter(context.Background(), mine))
	c.Wait()

	state := c.Snapshot()
	assert.Equal(t, []string{"mine-00"}, record.IDs(state.Items))
	assert.False(t, state.HasMore)
	assert.Equal(t, []Cursor{""}, mine.calls())
	assert.False(t, c.SetFilter(context.Background(), nil))
}

func TestController_SetFilterAbandonsInflightFetch(t *testing.T) {
	gate := make(chan struct{})
	slow := &scriptedFetcher{gate: gate}
	slow.push(Page[record.Record]{Records: makeRecords("slow", 2)}, nil)

	fast := &scriptedFetcher{}
	fast.push(Page[record.Record]{Records: makeRecords("fast", 1)}, nil)

	c := New[record.Record](slow)
	require.True(t, c.LoadFirstPage(context.Background()))
	require.True(t, c.SetFilter(context.Background(), fast))

	close(gate)
	c.Wait()

	assert.Equal(t, []string{"fast-00"}, record.IDs(c.Snapshot().Items))
}

func TestController_DisposeDropsLateCompletion(t *testing.T) {
	gate := make(chan struct{})
	fetcher := &scriptedFetcher{gate: gate}
	fetcher.push(Page[record.Record]{Records: makeRecords("late", 1)}, nil)

	obs := &recordingObserver{}
	c := New[record.Record](fetcher)
	c.Subscribe(obs)

	require.True(t, c.LoadFirstPage(context.Background()))
	c.Dispose()

	close(gate)
	c.Wait()

	assert.Empty(t, c.Snapshot().Items)
	assert.Empty(t, obs.errors())
	assert.True(t, obs.last().Loading, "no notification after dispose")
	assert.False(t, c.LoadFirstPage(context.Background()))
}

func TestController_ObserverSeesLoadingTransition(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.push(Page[record.Record]{Records: makeRecords("a", 1)}, nil)

	obs := &recordingObserver{}
	c := New[record.Record](fetcher)
	unsubscribe := c.Subscribe(obs)

	loadAndWait(t, c, false)

	obs.mu.Lock()
	states := append([]State[record.Record](nil), obs.states...)
	obs.mu.Unlock()

	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.False(t, states[1].Loading)
	assert.Len(t, states[1].Items, 1)

	unsubscribe()
	c.Reset()
	obs.mu.Lock()
	assert.Len(t, obs.states, 2)
	obs.mu.Unlock()
}

func TestController_SnapshotIsACopy(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.push(Page[record.Record]{Records: makeRecords("a", 2)}, nil)

	c := New[record.Record](fetcher)
	loadAndWait(t, c, false)

	snap := c.Snapshot()
	snap.Items[0] = record.Record{record.FieldID: "mutated"}

	assert.Equal(t, "a-00", c.Snapshot().Items[0].ID())
}

func TestFetcherFunc(t *testing.T) {
	var gotSize int
	f := FetcherFunc[record.Record](func(_ context.Context, _ Cursor, size int) (Page[record.Record], error) {
		gotSize = size
		return Page[record.Record]{}, nil
	})

	c := New[record.Record](f).WithPageSize(7)
	loadAndWait(t, c, false)

	assert.Equal(t, 7, gotSize)
	assert.Equal(t, 7, c.PageSize())
}
