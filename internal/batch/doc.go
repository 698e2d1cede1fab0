// Package batch splits a slice into fixed-size batches and runs a callback per
// batch, sequentially or with bounded concurrency, reporting progress as it goes.
// The seed importer uses it to load tasks and budgets into a store.
package batch
