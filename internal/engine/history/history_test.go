package history

import (
	"errors"
	"testing"

	"github.com/berrym/lusush-sub001/internal/engine/cursor"
	"github.com/berrym/lusush-sub001/internal/engine/store"
)

// doInsert mutates the store and records the operation, the way the engine
// facade does.
func doInsert(t *testing.T, tr *Tracker, st *store.Store, pos int64, text string) {
	t.Helper()
	before := cursor.Position{Offset: pos}
	if err := st.Insert(pos, text); err != nil {
		t.Fatalf("insert %q at %d: %v", text, pos, err)
	}
	tr.Record(Operation{
		Type:    OpInsert,
		Start:   pos,
		NewText: text,
		Before:  before,
		After:   cursor.Position{Offset: pos + int64(len(text))},
	})
}

func doDelete(t *testing.T, tr *Tracker, st *store.Store, pos, n int64) {
	t.Helper()
	old := st.TextRange(pos, pos+n)
	if err := st.Delete(pos, n); err != nil {
		t.Fatalf("delete %d+%d: %v", pos, n, err)
	}
	tr.Record(Operation{
		Type:    OpDelete,
		Start:   pos,
		OldText: old,
		Before:  cursor.Position{Offset: pos + n},
		After:   cursor.Position{Offset: pos},
	})
}

func TestUndoInsertRestoresState(t *testing.T) {
	st := store.New()
	tr := NewTracker()

	doInsert(t, tr, st, 0, "echo hi")
	sum := st.Checksum()
	doInsert(t, tr, st, 7, " there")

	pos, err := tr.Undo(st)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if st.Text() != "echo hi" {
		t.Errorf("expected %q, got %q", "echo hi", st.Text())
	}
	if st.Checksum() != sum {
		t.Error("undo did not restore checksum")
	}
	if pos.Offset != 7 {
		t.Errorf("cursor restored to %d, want 7", pos.Offset)
	}
}

func TestUndoDeleteReinsertsSavedText(t *testing.T) {
	st := store.New()
	tr := NewTracker()

	doInsert(t, tr, st, 0, "rm -rf ./build")
	doDelete(t, tr, st, 3, 4) // remove "-rf "

	if st.Text() != "rm ./build" {
		t.Fatalf("unexpected content %q", st.Text())
	}

	if _, err := tr.Undo(st); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if st.Text() != "rm -rf ./build" {
		t.Errorf("expected deleted text restored, got %q", st.Text())
	}
}

func TestRedoReproducesPreUndoState(t *testing.T) {
	st := store.New()
	tr := NewTracker()

	doInsert(t, tr, st, 0, "ls -al")
	sum := st.Checksum()

	if _, err := tr.Undo(st); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if st.Len() != 0 {
		t.Fatalf("expected empty buffer, got %q", st.Text())
	}

	pos, err := tr.Redo(st)
	if err != nil {
		t.Fatalf("redo failed: %v", err)
	}
	if st.Text() != "ls -al" || st.Checksum() != sum {
		t.Errorf("redo did not reproduce state: %q", st.Text())
	}
	if pos.Offset != 6 {
		t.Errorf("cursor restored to %d, want 6", pos.Offset)
	}
}

func TestUndoEmptyLog(t *testing.T) {
	tr := NewTracker()
	if _, err := tr.Undo(store.New()); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
	if _, err := tr.Redo(store.New()); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestSequenceGroupsUndoAsOneUnit(t *testing.T) {
	st := store.New()
	tr := NewTracker()

	tr.Begin()
	doInsert(t, tr, st, 0, "first ")
	doInsert(t, tr, st, 6, "second")
	tr.End()

	if tr.UndoCount() != 1 {
		t.Fatalf("expected 1 sequence, got %d", tr.UndoCount())
	}

	if _, err := tr.Undo(st); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if st.Len() != 0 {
		t.Errorf("grouped undo left content %q", st.Text())
	}
}

func TestSequenceStateMachine(t *testing.T) {
	st := store.New()
	tr := NewTracker()

	doInsert(t, tr, st, 0, "x")

	seqs := tr.Sequences()
	if len(seqs) != 1 || seqs[0].State() != SequenceClosed {
		t.Fatalf("expected one closed sequence, got %+v", seqs)
	}

	if _, err := tr.Undo(st); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if s := tr.Sequences()[0].State(); s != SequenceUndone {
		t.Errorf("state after undo = %v, want undone", s)
	}

	if _, err := tr.Redo(st); err != nil {
		t.Fatalf("redo failed: %v", err)
	}
	if s := tr.Sequences()[0].State(); s != SequenceRedone {
		t.Errorf("state after redo = %v, want redone", s)
	}
}

func TestNewEditDiscardsRedoTail(t *testing.T) {
	st := store.New()
	tr := NewTracker()

	doInsert(t, tr, st, 0, "one")
	if _, err := tr.Undo(st); err != nil {
		t.Fatalf("undo failed: %v", err)
	}

	doInsert(t, tr, st, 0, "two")
	if tr.CanRedo() {
		t.Error("redo tail must be discarded by a new edit")
	}
	if tr.UndoCount() != 1 {
		t.Errorf("expected 1 undoable sequence, got %d", tr.UndoCount())
	}
}

func TestEmptySequenceDropped(t *testing.T) {
	tr := NewTracker()
	tr.Begin()
	tr.End()

	if tr.UndoCount() != 0 {
		t.Errorf("empty sequence must be dropped, got %d", tr.UndoCount())
	}
}

func TestSuspendedRecordingIgnored(t *testing.T) {
	st := store.New()
	tr := NewTracker()

	tr.Suspend()
	doInsert(t, tr, st, 0, "untracked")
	tr.Resume()

	if tr.UndoCount() != 0 {
		t.Error("suspended recording must not add sequences")
	}
}

func TestPartialUndoFailureClearsLog(t *testing.T) {
	st := store.New()
	tr := NewTracker()

	doInsert(t, tr, st, 0, "abc")

	// A corrupted record whose inverse cannot apply: it claims a deletion
	// happened far past the end of the buffer.
	tr.Record(Operation{Type: OpDelete, Start: 100, OldText: "zzz"})

	_, err := tr.Undo(st)
	if !errors.Is(err, ErrPartialUndo) {
		t.Fatalf("expected ErrPartialUndo, got %v", err)
	}
	if tr.UndoCount() != 0 || tr.RedoCount() != 0 {
		t.Error("log must be cleared after a partial undo failure")
	}
	// The buffer is consistent but only partially reverted.
	if st.Text() != "abc" {
		t.Errorf("unexpected content %q", st.Text())
	}
}

func TestTrimOldestSequences(t *testing.T) {
	st := store.New()
	tr := NewTracker(WithMaxSequences(2))

	doInsert(t, tr, st, 0, "a")
	doInsert(t, tr, st, 1, "b")
	doInsert(t, tr, st, 2, "c")

	if tr.UndoCount() != 2 {
		t.Fatalf("expected log trimmed to 2, got %d", tr.UndoCount())
	}

	// Undo both remaining sequences; the first insert stays applied.
	if _, err := tr.Undo(st); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if _, err := tr.Undo(st); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if st.Text() != "a" {
		t.Errorf("expected %q after exhausting log, got %q", "a", st.Text())
	}
	if tr.CanUndo() {
		t.Error("log should be exhausted")
	}
}
