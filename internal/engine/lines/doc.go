// Package lines splits command-buffer content into logical lines and tracks
// shell construct nesting across them.
//
// Every line carries the shell parser state at its end, so an edit only has
// to reanalyze forward from the line it touched: the preceding line's end
// state is a reliable checkpoint. The line table always covers the whole
// buffer contiguously and holds at least one line, even for empty content.
package lines
