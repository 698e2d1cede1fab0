// Package pagedlist implements a client-side cursor-paged list.
//
// A Controller fetches pages of records from a PageFetcher, accumulates them in
// arrival order, and tracks whether more pages may exist. At most one fetch is in
// flight at a time; load requests issued while a fetch is running are ignored.
// Errors are delivered once to subscribers and never stored in the list state.
//
// When a backend cannot serve an ordered and filtered query together, a
// ClientSortFetcher loads the filtered result set once and serves sorted pages
// from memory.
package pagedlist
