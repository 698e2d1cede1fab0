// Package record defines the document shape shared by every store backend and the
// typed Task, Budget and Message models layered on top of it.
//
// A Record is an opaque field map. Only two fields carry meaning for the paging
// machinery: the identifier ("id") and the creation timestamp ("createdAt"). The
// accessors tolerate the value shapes produced by JSON round-trips (RFC3339 strings,
// float64 numbers) so a record read back from the file, SQL or HTTP backends behaves
// the same as one built in memory.
package record
