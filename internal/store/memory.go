package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rshade/planfocus/internal/record"
)

// MemoryStore is an in-process Store. It is also the query engine behind FileStore.
type MemoryStore struct {
	mu             sync.RWMutex
	collections    map[string]map[string]record.Record
	compositeIndex bool
	now            func() time.Time
	newID          func() string
}

// NewMemoryStore creates an empty MemoryStore that serves compound queries.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections:    make(map[string]map[string]record.Record),
		compositeIndex: true,
		now:            time.Now,
		newID:          func() string { return ulid.Make().String() },
	}
}

// WithCompositeIndex controls whether filter plus order queries are served.
// Without the index they fail with ErrIndexRequired.
func (m *MemoryStore) WithCompositeIndex(enabled bool) *MemoryStore {
	m.compositeIndex = enabled
	return m
}

// WithClock replaces the time source used for timestamps.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

// Capabilities implements Store.
func (m *MemoryStore) Capabilities() Capabilities {
	return Capabilities{CompoundQueries: m.compositeIndex}
}

// Create implements Store.
func (m *MemoryStore) Create(_ context.Context, collection string, rec record.Record) (record.Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(collection, rec)
}

func (m *MemoryStore) createLocked(collection string, rec record.Record) (record.Record, error) {
	stored := prepareCreate(rec, m.now(), m.newID)
	docs := m.collections[collection]
	if docs == nil {
		docs = make(map[string]record.Record)
		m.collections[collection] = docs
	}
	id := stored.ID()
	if _, exists := docs[id]; exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrAlreadyExists, collection, id)
	}
	docs[id] = stored
	return stored.Clone(), nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, collection, id string) (record.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return rec.Clone(), nil
}

// Update implements Store.
func (m *MemoryStore) Update(_ context.Context, collection, id string, patch record.Record) (record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(collection, id, patch)
}

func (m *MemoryStore) updateLocked(collection, id string, patch record.Record) (record.Record, error) {
	rec, ok := m.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	updated := rec.Merge(preparePatch(patch, m.now())).Normalize()
	m.collections[collection][id] = updated
	return updated.Clone(), nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(collection, id)
}

func (m *MemoryStore) deleteLocked(collection, id string) error {
	if _, ok := m.collections[collection][id]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	delete(m.collections[collection], id)
	return nil
}

// Query implements Store.
func (m *MemoryStore) Query(_ context.Context, q Query) (Result, error) {
	if err := ValidateQuery(q); err != nil {
		return Result{}, err
	}
	if q.IsCompound() && !m.compositeIndex {
		return Result{}, fmt.Errorf("%w: %s where %d filter(s) order by %s",
			ErrIndexRequired, q.Collection, len(q.Where), q.OrderBy)
	}

	var after *cursorKey
	if q.StartAfter != "" {
		k, err := decodeCursor(q.StartAfter)
		if err != nil {
			return Result{}, err
		}
		after = &k
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return runQuery(m.collections[q.Collection], q, after), nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}

// runQuery filters, orders, and pages docs.
func runQuery(docs map[string]record.Record, q Query, after *cursorKey) Result {
	ordered := q.OrderBy != ""

	type keyed struct {
		key cursorKey
		rec record.Record
	}
	matched := make([]keyed, 0, len(docs))
	for _, rec := range docs {
		if !matches(rec, q.Where) {
			continue
		}
		k := keyOf(rec)
		if after != nil && compareKeys(k, *after, ordered, q.Descending) <= 0 {
			continue
		}
		matched = append(matched, keyed{key: k, rec: rec})
	}

	slices.SortFunc(matched, func(a, b keyed) int {
		return compareKeys(a.key, b.key, ordered, q.Descending)
	})

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	result := Result{Records: make([]record.Record, 0, len(matched))}
	for _, m := range matched {
		result.Records = append(result.Records, m.rec.Clone())
	}
	if n := len(matched); n > 0 {
		result.Next = encodeCursor(matched[n-1].key)
	}
	return result
}
