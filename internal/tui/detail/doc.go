// Package detail shows one record in a Bubble Tea program, loading it only when the
// pane is opened.
//
// A failed load stays on screen as an inline error; pressing 'r' retries it.
package detail
