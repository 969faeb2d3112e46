package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/berrym/lusush-sub001/internal/engine/cursor"
	"github.com/berrym/lusush-sub001/internal/engine/store"
)

// Errors returned by tracker operations.
var (
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrNothingToRedo     = errors.New("nothing to redo")
	ErrPartialUndo       = errors.New("partial undo failure")
	ErrSequenceNotOpen   = errors.New("no open sequence")
	ErrSequenceStillOpen = errors.New("sequence still open")
)

// DefaultMaxSequences bounds the undo log.
const DefaultMaxSequences = 1000

// Tracker owns the operation arena and the sequence log for one buffer.
//
// Undo and redo apply inverse operations directly to the store; recording is
// suspended while they run so the replay does not track itself.
type Tracker struct {
	ops  []Operation // arena, ordered by time
	seqs []Sequence

	// applied is the number of sequences currently in effect; seqs[applied:]
	// is the redo tail.
	applied int

	openSeq   bool
	suspended bool

	maxSequences int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMaxSequences bounds the number of retained undo sequences.
func WithMaxSequences(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxSequences = n
		}
	}
}

// NewTracker creates an empty change tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{maxSequences: DefaultMaxSequences}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Suspended reports whether recording is currently suspended.
func (t *Tracker) Suspended() bool { return t.suspended }

// Suspend stops recording until Resume. Used while replaying inverses.
func (t *Tracker) Suspend() { t.suspended = true }

// Resume re-enables recording.
func (t *Tracker) Resume() { t.suspended = false }

// InSequence reports whether an explicit sequence is open.
func (t *Tracker) InSequence() bool { return t.openSeq }

// CanUndo reports whether an applied sequence is available.
func (t *Tracker) CanUndo() bool { return t.applied > 0 && !t.openSeq }

// CanRedo reports whether an undone sequence is available.
func (t *Tracker) CanRedo() bool { return t.applied < len(t.seqs) && !t.openSeq }

// UndoCount returns the number of sequences available to undo.
func (t *Tracker) UndoCount() int { return t.applied }

// RedoCount returns the number of sequences available to redo.
func (t *Tracker) RedoCount() int { return len(t.seqs) - t.applied }

// Begin opens a new sequence. Operations recorded until End become one
// undo unit. Opening a sequence discards the redo tail. Nested calls are
// ignored; the outermost sequence wins.
func (t *Tracker) Begin() {
	if t.suspended || t.openSeq {
		return
	}
	t.truncateRedo()
	t.seqs = append(t.seqs, Sequence{
		startOp: len(t.ops),
		endOp:   len(t.ops),
		state:   SequenceOpen,
		at:      time.Now(),
	})
	t.openSeq = true
}

// End closes the open sequence. An empty sequence is dropped.
func (t *Tracker) End() {
	if !t.openSeq {
		return
	}
	t.openSeq = false
	last := &t.seqs[len(t.seqs)-1]
	if last.Len() == 0 {
		t.seqs = t.seqs[:len(t.seqs)-1]
		return
	}
	last.state = SequenceClosed
	t.applied = len(t.seqs)
	t.trim()
}

// Record appends an operation. Outside an explicit sequence the operation
// becomes its own single-operation sequence. Recording is a no-op while
// the tracker is suspended.
func (t *Tracker) Record(op Operation) {
	if t.suspended {
		return
	}
	if op.At.IsZero() {
		op.At = time.Now()
	}
	if t.openSeq {
		t.ops = append(t.ops, op)
		t.seqs[len(t.seqs)-1].endOp = len(t.ops)
		return
	}
	t.Begin()
	t.ops = append(t.ops, op)
	t.seqs[len(t.seqs)-1].endOp = len(t.ops)
	t.End()
}

// Undo reverts the most recent applied sequence by replaying its operations
// in reverse with their inverse actions. It returns the cursor position
// captured before the sequence's first operation.
//
// If an inverse step fails mid-sequence the remaining steps are abandoned,
// the whole log is cleared (its offsets can no longer be trusted against the
// partially-reverted buffer), and the error wraps ErrPartialUndo.
func (t *Tracker) Undo(st *store.Store) (cursor.Position, error) {
	if t.openSeq {
		return cursor.Position{}, ErrSequenceStillOpen
	}
	if t.applied == 0 {
		return cursor.Position{}, ErrNothingToUndo
	}

	seq := &t.seqs[t.applied-1]
	t.Suspend()
	defer t.Resume()

	for i := seq.endOp - 1; i >= seq.startOp; i-- {
		op := t.ops[i]
		if err := t.invert(st, op); err != nil {
			t.Clear()
			return cursor.Position{}, fmt.Errorf("undo operation %d (%s): %v: %w",
				i, op.Type, err, ErrPartialUndo)
		}
	}

	seq.state = SequenceUndone
	t.applied--
	return t.ops[seq.startOp].Before, nil
}

// Redo re-applies the most recently undone sequence in forward order. It
// returns the cursor position captured after the sequence's last operation.
func (t *Tracker) Redo(st *store.Store) (cursor.Position, error) {
	if t.openSeq {
		return cursor.Position{}, ErrSequenceStillOpen
	}
	if t.applied >= len(t.seqs) {
		return cursor.Position{}, ErrNothingToRedo
	}

	seq := &t.seqs[t.applied]
	t.Suspend()
	defer t.Resume()

	for i := seq.startOp; i < seq.endOp; i++ {
		op := t.ops[i]
		if err := t.apply(st, op); err != nil {
			t.Clear()
			return cursor.Position{}, fmt.Errorf("redo operation %d (%s): %v: %w",
				i, op.Type, err, ErrPartialUndo)
		}
	}

	seq.state = SequenceRedone
	t.applied++
	return t.ops[seq.endOp-1].After, nil
}

// Sequences returns a copy of the sequence log, oldest first.
func (t *Tracker) Sequences() []Sequence {
	out := make([]Sequence, len(t.seqs))
	copy(out, t.seqs)
	return out
}

// Clear discards the whole log.
func (t *Tracker) Clear() {
	t.ops = nil
	t.seqs = nil
	t.applied = 0
	t.openSeq = false
}

// invert applies the inverse of op to the store:
// insert -> delete of the inserted range, delete -> insert of the saved
// text, replace -> delete new + insert old.
func (t *Tracker) invert(st *store.Store, op Operation) error {
	switch op.Type {
	case OpInsert:
		return st.Delete(op.Start, int64(len(op.NewText)))
	case OpDelete:
		return st.Insert(op.Start, op.OldText)
	case OpReplace:
		if err := st.Delete(op.Start, int64(len(op.NewText))); err != nil {
			return err
		}
		return st.Insert(op.Start, op.OldText)
	case OpCursorMove, OpSelection:
		return nil
	default:
		return fmt.Errorf("unknown operation type %d", op.Type)
	}
}

// apply re-applies op to the store in its forward direction.
func (t *Tracker) apply(st *store.Store, op Operation) error {
	switch op.Type {
	case OpInsert:
		return st.Insert(op.Start, op.NewText)
	case OpDelete:
		return st.Delete(op.Start, int64(len(op.OldText)))
	case OpReplace:
		if err := st.Delete(op.Start, int64(len(op.OldText))); err != nil {
			return err
		}
		return st.Insert(op.Start, op.NewText)
	case OpCursorMove, OpSelection:
		return nil
	default:
		return fmt.Errorf("unknown operation type %d", op.Type)
	}
}

// truncateRedo drops undone sequences (and their arena tail) before new
// recording begins.
func (t *Tracker) truncateRedo() {
	if t.applied == len(t.seqs) {
		return
	}
	t.seqs = t.seqs[:t.applied]
	if t.applied == 0 {
		t.ops = t.ops[:0]
		return
	}
	t.ops = t.ops[:t.seqs[t.applied-1].endOp]
}

// trim drops the oldest sequences when the log exceeds its bound,
// compacting the arena so indexes stay dense.
func (t *Tracker) trim() {
	excess := len(t.seqs) - t.maxSequences
	if excess <= 0 {
		return
	}
	cut := t.seqs[excess-1].endOp

	t.ops = append(t.ops[:0], t.ops[cut:]...)
	t.seqs = append(t.seqs[:0], t.seqs[excess:]...)
	for i := range t.seqs {
		t.seqs[i].startOp -= cut
		t.seqs[i].endOp -= cut
	}
	t.applied -= excess
	if t.applied < 0 {
		t.applied = 0
	}
}
