package engine

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/berrym/lusush-sub001/internal/engine/cursor"
	"github.com/berrym/lusush-sub001/internal/engine/history"
	"github.com/berrym/lusush-sub001/internal/engine/lines"
	"github.com/berrym/lusush-sub001/internal/engine/record"
	"github.com/berrym/lusush-sub001/internal/engine/store"
	"github.com/berrym/lusush-sub001/internal/engine/textindex"
	"github.com/berrym/lusush-sub001/internal/engine/validate"
)

// Re-export commonly used types for convenience.
type (
	// Position is a fully resolved cursor location.
	Position = cursor.Position

	// LineInfo describes one logical line.
	LineInfo = lines.LineInfo

	// ShellState is the multiline parser state at a point in the buffer.
	ShellState = lines.State

	// Operation is one atomic, invertible edit.
	Operation = history.Operation

	// Record is the history-subsystem exchange format.
	Record = record.Record
)

// Engine composes the command-buffer components and keeps them consistent.
// All methods are synchronous; see the package comment for the concurrency
// contract.
type Engine struct {
	st   *store.Store
	idx  *textindex.Index
	la   *lines.Analyzer
	cur  *cursor.Engine
	hist *history.Tracker
	val  *validate.Validator

	initialCapacity  int64
	maxCapacity      int64
	maxUndoSequences int
	tabWidth         int
	wrapWidth        int
}

// New creates an engine for a fresh editing session.
func New(opts ...Option) *Engine {
	e := &Engine{
		initialCapacity:  store.DefaultCapacity,
		maxCapacity:      store.DefaultMaxCapacity,
		maxUndoSequences: DefaultMaxUndoSequences,
		tabWidth:         DefaultTabWidth,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.st = store.New(
		store.WithCapacity(e.initialCapacity),
		store.WithMaxCapacity(e.maxCapacity),
	)
	e.idx = textindex.New(e.st.ModCount())
	e.la = lines.NewAnalyzer(e.tabWidth)
	e.la.Rebuild("", e.st.ModCount())
	e.cur = cursor.New(e.st, e.idx, e.la,
		cursor.WithTabWidth(e.tabWidth),
		cursor.WithWrapWidth(e.wrapWidth),
	)
	e.hist = history.NewTracker(history.WithMaxSequences(e.maxUndoSequences))
	e.val = validate.New(e.st, e.la)
	return e
}

// Read Operations

// Text returns the full buffer content.
func (e *Engine) Text() string { return e.st.Text() }

// TextRange returns the content in [start, end), clamped to the buffer.
func (e *Engine) TextRange(start, end int64) string { return e.st.TextRange(start, end) }

// Len returns the content length in bytes.
func (e *Engine) Len() int64 { return e.st.Len() }

// Capacity returns the buffer's current capacity in bytes.
func (e *Engine) Capacity() int64 { return e.st.Capacity() }

// CodepointCount returns the number of Unicode codepoints in the content.
func (e *Engine) CodepointCount() int64 { return e.st.CodepointCount() }

// GraphemeCount returns the number of grapheme clusters in the content.
func (e *Engine) GraphemeCount() int64 { return e.st.GraphemeCount() }

// Checksum returns the CRC-32 digest of the content.
func (e *Engine) Checksum() uint32 { return e.st.Checksum() }

// SessionID returns the identity of the editing session.
func (e *Engine) SessionID() string { return e.st.SessionID() }

// IsEmpty reports whether the buffer holds no content.
func (e *Engine) IsEmpty() bool { return e.st.IsEmpty() }

// LineCount returns the number of logical lines; always at least 1.
func (e *Engine) LineCount() int { return e.la.Count() }

// Lines returns a copy of the line table for the display layer.
func (e *Engine) Lines() []LineInfo { return e.la.Lines() }

// Line returns the line at index i, clamped to the table.
func (e *Engine) Line(i int) LineInfo { return e.la.Line(i) }

// Complete reports whether the buffer forms a complete command, ready for
// execution: no open construct, quote, or escaped newline at end of buffer.
func (e *Engine) Complete() bool { return e.la.Complete() }

// NeedsContinuation is the inverse of Complete, matching the prompt logic
// of an interactive reader.
func (e *Engine) NeedsContinuation() bool { return !e.la.Complete() }

// EndState returns the multiline parser state at end of buffer.
func (e *Engine) EndState() ShellState { return e.la.EndState() }

// Position returns the current cursor position.
func (e *Engine) Position() Position { return e.cur.Position() }

// CanUndo reports whether an undo unit is available.
func (e *Engine) CanUndo() bool { return e.hist.CanUndo() }

// CanRedo reports whether a redo unit is available.
func (e *Engine) CanRedo() bool { return e.hist.CanRedo() }

// Write Operations

// Insert places text at pos and moves the cursor to the end of the inserted
// text. The buffer is unchanged on error.
func (e *Engine) Insert(pos int64, text string) error {
	if len(text) == 0 {
		return nil
	}
	return e.insertTracked(pos, text)
}

// InsertAtCursor inserts text at the current cursor position.
func (e *Engine) InsertAtCursor(text string) error {
	return e.Insert(e.cur.Position().Offset, text)
}

// Delete removes n bytes starting at start and moves the cursor to start.
// The buffer is unchanged on error.
func (e *Engine) Delete(start, n int64) error {
	if n == 0 {
		return nil
	}
	return e.deleteTracked(start, n)
}

// Replace substitutes the n bytes at start with text, as one undo unit.
func (e *Engine) Replace(start, n int64, text string) error {
	if n < 0 {
		return ErrInvalidParameter
	}
	if start < 0 || start+n > e.st.Len() || !e.st.IsBoundary(start) || !e.st.IsBoundary(start+n) {
		return ErrInvalidPosition
	}
	if !utf8.ValidString(text) {
		return ErrInvalidUTF8
	}

	before := e.cur.Position()
	old := e.st.TextRange(start, start+n)

	if err := e.st.Delete(start, n); err != nil {
		return err
	}
	if err := e.st.Insert(start, text); err != nil {
		// Capacity ceiling hit between the two halves: put the old text
		// back so the rejection stays all-or-nothing.
		if restoreErr := e.st.Insert(start, old); restoreErr != nil {
			return fmt.Errorf("restoring replaced text: %v: %w", restoreErr, ErrBufferCorruption)
		}
		e.refresh(start)
		e.cur.Resolve()
		return err
	}

	e.idx.Invalidate()
	e.refresh(start)
	after := e.cur.MoveToByteOffset(start + int64(len(text)))
	e.hist.Record(history.Operation{
		Type:    history.OpReplace,
		Start:   start,
		OldText: old,
		NewText: text,
		Before:  before,
		After:   after,
	})
	return nil
}

// DeleteToLineEnd removes from the cursor to the end of the current line.
func (e *Engine) DeleteToLineEnd() error {
	p := e.cur.Position()
	ln := e.la.Line(p.Line)
	end := ln.Start + ln.Len
	if p.Offset >= end {
		return nil
	}
	return e.Delete(p.Offset, end-p.Offset)
}

// DeleteToLineStart removes from the start of the current line to the cursor.
func (e *Engine) DeleteToLineStart() error {
	p := e.cur.Position()
	ln := e.la.Line(p.Line)
	if p.Offset <= ln.Start {
		return nil
	}
	return e.Delete(ln.Start, p.Offset-ln.Start)
}

// Clear removes all content as a single undoable unit.
func (e *Engine) Clear() error {
	if e.st.IsEmpty() {
		return nil
	}
	return e.Delete(0, e.st.Len())
}

// Undo reverts the most recent undo unit and restores the cursor captured
// before it. On ErrPartialUndoFailure the buffer is consistent but only
// partially reverted; the caller decides whether to retry, abandon, or
// reload from history.
func (e *Engine) Undo() error {
	pos, err := e.hist.Undo(e.st)
	if err != nil {
		if errors.Is(err, ErrPartialUndoFailure) {
			e.idx.Invalidate()
			e.refresh(0)
			e.cur.Resolve()
		}
		return err
	}
	e.idx.Invalidate()
	e.refresh(0)
	e.ensureIndex()
	e.cur.Restore(pos)
	return nil
}

// Redo re-applies the most recently undone unit.
func (e *Engine) Redo() error {
	pos, err := e.hist.Redo(e.st)
	if err != nil {
		if errors.Is(err, ErrPartialUndoFailure) {
			e.idx.Invalidate()
			e.refresh(0)
			e.cur.Resolve()
		}
		return err
	}
	e.idx.Invalidate()
	e.refresh(0)
	e.ensureIndex()
	e.cur.Restore(pos)
	return nil
}

// BeginSequence opens an explicit undo unit; edits until EndSequence undo
// together. Cursor movements inside the unit are recorded so undo restores
// the full editing context.
func (e *Engine) BeginSequence() { e.hist.Begin() }

// EndSequence closes the open undo unit.
func (e *Engine) EndSequence() { e.hist.End() }

// Cursor Operations

// MoveToByteOffset places the cursor at offset, clamped and snapped to a
// codepoint boundary.
func (e *Engine) MoveToByteOffset(offset int64) Position {
	return e.trackMove(func() Position { return e.cur.MoveToByteOffset(offset) })
}

// MoveByGraphemes shifts the cursor by delta grapheme clusters.
func (e *Engine) MoveByGraphemes(delta int) Position {
	return e.trackMove(func() Position { return e.cur.MoveByGraphemes(delta) })
}

// MoveByLines shifts the cursor vertically, keeping the sticky column.
func (e *Engine) MoveByLines(delta int) Position {
	return e.trackMove(func() Position { return e.cur.MoveByLines(delta) })
}

// MoveByWords shifts the cursor by whitespace-delimited words.
func (e *Engine) MoveByWords(delta int) Position {
	return e.trackMove(func() Position { return e.cur.MoveByWords(delta) })
}

// MoveToLineStart places the cursor at the first byte of its line.
func (e *Engine) MoveToLineStart() Position {
	return e.trackMove(func() Position { return e.cur.MoveToLineStart() })
}

// MoveToLineEnd places the cursor after the last content byte of its line.
func (e *Engine) MoveToLineEnd() Position {
	return e.trackMove(func() Position { return e.cur.MoveToLineEnd() })
}

// Validation and History Exchange

// Validate cross-checks the buffer's integrity invariants and returns the
// first failure. It never repairs; recovery is the caller's decision.
func (e *Engine) Validate() error { return e.val.Check() }

// Finalize exposes the buffer as a history record: normalized command text
// plus the structural metadata needed to reconstruct the multi-line form.
func (e *Engine) Finalize() (Record, error) {
	if err := e.val.Check(); err != nil {
		return Record{}, err
	}

	text := e.st.Text()
	rec := Record{
		Text:      text,
		Complete:  e.la.Complete(),
		SessionID: e.st.SessionID(),
		CreatedAt: e.st.CreatedAt(),
	}
	for _, ln := range e.la.Lines() {
		content := text[ln.Start : ln.Start+ln.Len]
		rec.Lines = append(rec.Lines, record.LineMeta{
			Start:  ln.Start,
			Len:    ln.Len,
			Indent: indentOf(content),
			Depth:  ln.State.Depth(),
			Kind:   ln.Kind.String(),
		})
	}
	return rec, nil
}

// LoadRecord atomically replaces the buffer content with a historical
// entry, as a single undo unit, and leaves the cursor at end of buffer.
func (e *Engine) LoadRecord(rec Record) error {
	if !utf8.ValidString(rec.Text) {
		return ErrInvalidUTF8
	}
	if int64(len(rec.Text)) > e.maxCapacity {
		return ErrOutOfMemory
	}

	e.hist.Begin()
	defer e.hist.End()
	if !e.st.IsEmpty() {
		if err := e.deleteTracked(0, e.st.Len()); err != nil {
			return fmt.Errorf("clearing buffer for history load: %w", err)
		}
	}
	if len(rec.Text) == 0 {
		return nil
	}
	if err := e.insertTracked(0, rec.Text); err != nil {
		return fmt.Errorf("loading history entry: %w", err)
	}
	return nil
}

// Internals

// insertTracked performs a tracked insert: mutate, patch or invalidate the
// index, reanalyze lines, move the cursor, record the operation.
func (e *Engine) insertTracked(pos int64, text string) error {
	before := e.cur.Position()
	oldVersion := e.st.ModCount()

	if err := e.st.Insert(pos, text); err != nil {
		return err
	}

	if e.idx.Valid(oldVersion) {
		prev, prevOK := e.st.ByteAt(pos - 1)
		next, nextOK := e.st.ByteAt(pos + int64(len(text)))
		e.idx.PatchInsert(pos, text, prev, next, prevOK, nextOK, e.st.ModCount())
	} else {
		e.idx.Invalidate()
	}

	e.la.Reanalyze(e.st.Text(), pos, e.st.ModCount())
	after := e.cur.MoveToByteOffset(pos + int64(len(text)))
	e.hist.Record(history.Operation{
		Type:    history.OpInsert,
		Start:   pos,
		NewText: text,
		Before:  before,
		After:   after,
	})
	return nil
}

// deleteTracked performs a tracked delete, capturing the removed bytes
// before the mutation for inversion.
func (e *Engine) deleteTracked(start, n int64) error {
	before := e.cur.Position()
	old := e.st.TextRange(start, start+n)
	oldVersion := e.st.ModCount()

	if err := e.st.Delete(start, n); err != nil {
		return err
	}

	if e.idx.Valid(oldVersion) {
		prev, prevOK := e.st.ByteAt(start - 1)
		next, nextOK := e.st.ByteAt(start)
		e.idx.PatchDelete(start, old, prev, next, prevOK, nextOK, e.st.ModCount())
	} else {
		e.idx.Invalidate()
	}

	e.la.Reanalyze(e.st.Text(), start, e.st.ModCount())
	after := e.cur.MoveToByteOffset(start)
	e.hist.Record(history.Operation{
		Type:    history.OpDelete,
		Start:   start,
		OldText: old,
		Before:  before,
		After:   after,
	})
	return nil
}

// trackMove runs a cursor motion, recording it when an explicit sequence
// is open so grouped undo restores the editing context.
func (e *Engine) trackMove(move func() Position) Position {
	e.ensureIndex()
	before := e.cur.Position()
	after := move()
	if e.hist.InSequence() && before.Offset != after.Offset {
		e.hist.Record(history.Operation{
			Type:   history.OpCursorMove,
			Start:  after.Offset,
			Before: before,
			After:  after,
		})
	}
	return after
}

// ensureIndex lazily rebuilds the index on next use after invalidation.
// The content was validated on the way in, so a rebuild failure means
// corruption; the index then stays invalid and readers take the scan path
// until Validate surfaces the problem.
func (e *Engine) ensureIndex() {
	if e.idx.Valid(e.st.ModCount()) {
		return
	}
	_ = e.idx.Rebuild(e.st.Text(), e.st.ModCount())
}

// refresh rebuilds the line table after a non-incremental change.
func (e *Engine) refresh(from int64) {
	e.la.Reanalyze(e.st.Text(), from, e.st.ModCount())
}

// indentOf counts leading space and tab bytes.
func indentOf(s string) int {
	n := 0
	for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
		n++
	}
	return n
}
