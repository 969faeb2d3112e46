// Package store owns the raw byte content of an in-progress command line.
//
// The store keeps content in a single contiguous growable array with a NUL
// terminator at content[length], mirroring the classic line-editor layout.
// Every successful mutation updates the byte/codepoint/grapheme counts, the
// modification counter, the modified timestamp, and the CRC-32 integrity
// checksum. Mutations are all-or-nothing: position and UTF-8 validation
// happens before any byte is moved, so a rejected call leaves the store
// byte-for-byte unchanged.
//
// Command lines are at most a few kilobytes, so insert and delete shift the
// tail of the array in place. This is a deliberate tradeoff; do not replace
// it with a rope or gap buffer unless the size envelope changes.
package store
