// Package listview renders only the visible window of a long list in a Bubble Tea
// program.
//
// Items can be replaced while the list is shown, which is how paged lists grow: the
// selection is kept and clamped, and AtBottom tells the caller when the cursor has
// reached the last loaded item so the next page can be requested.
package listview
