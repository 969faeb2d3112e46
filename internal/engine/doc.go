// Package engine is the command-buffer engine: it holds the text of an
// in-progress interactive command and keeps its Unicode structure, logical
// line structure, cursor position, and edit history in mutual consistency
// across every mutation.
//
// # Architecture
//
// The engine composes six sub-packages in leaf-to-root dependency order:
//
//   - textindex: byte / codepoint / grapheme position mappings
//   - store: contiguous byte content with counts, checksum, and terminator
//   - lines: logical line table and shell multiline construct tracking
//   - cursor: position representations and sticky-column movement
//   - history: atomic, invertible operation log for undo/redo
//   - validate: cross-component integrity checks
//
// # Concurrency
//
// The engine is single-threaded and cooperative. Every call runs to
// completion on the caller's goroutine; there are no internal locks and no
// suspension points. A caller that shares an engine across goroutines must
// serialize access itself, typically by feeding it from a single event loop.
//
// # Basic usage
//
//	e := engine.New()
//	e.Insert(0, "if true; then\n")
//	e.Complete()        // false: the if construct is still open
//	e.Insert(e.Len(), "  echo hi\nfi\n")
//	e.Complete()        // true
//	e.Undo()            // back to the unclosed if
//	rec, _ := e.Finalize()
package engine
