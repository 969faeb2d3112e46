// Package textindex maintains the byte / codepoint / grapheme position
// mappings for a command buffer.
//
// Four parallel slices cross-reference the three position spaces in both
// directions. All cross-references are index-based; no slice ever stores a
// position in another slice by address, so the index survives reallocation
// of the buffer it describes.
//
// The index is versioned against the buffer's modification counter. A full
// rebuild is a single O(n) scan. Small ASCII edits are patched in place;
// anything that could move a grapheme cluster boundary at the edit site
// (combining marks, CR/LF joins, emoji sequences) invalidates the index
// instead, and the next user rebuilds it. Correctness over incremental speed.
package textindex
