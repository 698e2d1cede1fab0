// Package store provides the document store behind planfocus collections.
//
// Records live in named collections and are addressed by ID. Queries filter by field
// equality, optionally order by creation time, and page with keyset cursors. Backends
// differ in what they can serve: a backend without a composite index rejects a query
// that both filters and orders with ErrIndexRequired, and callers fall back to sorting
// in memory.
package store

import (
	"context"
	"errors"

	"github.com/rshade/planfocus/internal/record"
)

// Collections.
const (
	CollectionTasks    = "tasks"
	CollectionBudgets  = "budgets"
	CollectionMessages = "messages"
)

// Store errors.
var (
	ErrNotFound       = errors.New("record not found")
	ErrAlreadyExists  = errors.New("record already exists")
	ErrIndexRequired  = errors.New("query requires a composite index")
	ErrInvalidQuery   = errors.New("invalid query")
	ErrInvalidCursor  = errors.New("invalid cursor")
	ErrStoreCorrupted = errors.New("store file corrupted")
)

// Filter matches records whose field equals Value. Values are compared in text form,
// so booleans match "true" or "false".
type Filter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Eq builds a Filter.
func Eq(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// Query selects records from one collection.
type Query struct {
	Collection string
	Where      []Filter

	// OrderBy is empty (order by ID) or "createdAt".
	OrderBy    string
	Descending bool

	// StartAfter is a cursor returned in a previous Result.Next.
	StartAfter string

	// Limit caps the page size. Zero returns every match.
	Limit int
}

// IsCompound reports whether the query both filters and orders.
func (q Query) IsCompound() bool {
	return len(q.Where) > 0 && q.OrderBy != ""
}

// Result is one page of a query.
type Result struct {
	Records []record.Record
	// Next is the cursor of the last returned record, or empty for an empty page.
	Next string
}

// Capabilities describes what a backend can serve.
type Capabilities struct {
	// CompoundQueries is true when filter plus order queries are supported.
	CompoundQueries bool `json:"compoundQueries"`
}

// Store is a collection-oriented document store.
type Store interface {
	// Create inserts rec. An empty ID is replaced by a new ULID; createdAt defaults to now.
	Create(ctx context.Context, collection string, rec record.Record) (record.Record, error)
	// Get returns one record.
	Get(ctx context.Context, collection, id string) (record.Record, error)
	// Update merges patch into the stored record. Nil values delete fields.
	Update(ctx context.Context, collection, id string, patch record.Record) (record.Record, error)
	// Delete removes one record.
	Delete(ctx context.Context, collection, id string) error
	// Query returns one page of matching records.
	Query(ctx context.Context, q Query) (Result, error)
	// Capabilities reports which queries the backend serves.
	Capabilities() Capabilities
	// Close releases backend resources.
	Close() error
}
