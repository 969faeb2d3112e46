package cursor

import "fmt"

// Position is a fully resolved cursor location. Offset is authoritative;
// every other field is derived from it and the buffer state.
type Position struct {
	Offset    int64 // byte offset, always on a codepoint boundary
	Codepoint int   // codepoint index of Offset
	Grapheme  int   // grapheme cluster index of Offset

	Line         int   // logical line number, 0-indexed
	ByteCol      int64 // bytes from line start
	CodepointCol int   // codepoints from line start
	GraphemeCol  int   // grapheme clusters from line start

	VisualLine int // display row after line wrapping
	VisualCol  int // display column in terminal cells
}

// String returns a compact human-readable form.
func (p Position) String() string {
	return fmt.Sprintf("@%d (%d:%d)", p.Offset, p.Line, p.GraphemeCol)
}

// Equals reports whether two positions resolve to the same byte offset.
func (p Position) Equals(other Position) bool {
	return p.Offset == other.Offset
}
