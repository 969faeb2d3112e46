// Package cursor maintains the editing cursor of a command buffer and keeps
// its position representations consistent: byte offset (primary), codepoint
// index, grapheme index, and line/column in byte, codepoint, grapheme, and
// visual units.
//
// Derivations use the buffer's UTF-8 index when it is valid for the current
// buffer version and fall back to an O(n) scan of the content otherwise.
// Vertical movement remembers a sticky preferred visual column that survives
// hops across lines of different lengths until the next horizontal move.
package cursor
