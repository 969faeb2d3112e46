package history

import (
	"time"

	"github.com/berrym/lusush-sub001/internal/engine/cursor"
)

// OpType categorizes a tracked operation.
type OpType uint8

const (
	// OpInsert added NewText at Start.
	OpInsert OpType = iota

	// OpDelete removed OldText starting at Start.
	OpDelete

	// OpReplace overwrote OldText with NewText at Start.
	OpReplace

	// OpCursorMove changed only the cursor position.
	OpCursorMove

	// OpSelection changed only the selection anchors, carried in the
	// Before/After positions. Composite groups are not an operation type;
	// they are sequences.
	OpSelection
)

// String returns a human-readable operation type.
func (t OpType) String() string {
	switch t {
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpReplace:
		return "replace"
	case OpCursorMove:
		return "cursor-move"
	case OpSelection:
		return "selection"
	default:
		return "unknown"
	}
}

// Operation is one atomic, invertible edit. OldText is captured before the
// mutation; it is what inversion re-inserts.
type Operation struct {
	Type    OpType
	Start   int64  // byte offset of the affected range
	OldText string // text overwritten or removed (pre-mutation capture)
	NewText string // text inserted

	Before cursor.Position // cursor immediately before the operation
	After  cursor.Position // cursor immediately after the operation

	At time.Time
}

// SequenceState tracks a sequence through its lifecycle.
type SequenceState uint8

const (
	// SequenceOpen is still accumulating operations.
	SequenceOpen SequenceState = iota

	// SequenceClosed has been finalized and can be undone.
	SequenceClosed

	// SequenceUndone has been reverted and can be redone.
	SequenceUndone

	// SequenceRedone has been re-applied after an undo.
	SequenceRedone
)

// String returns a human-readable sequence state.
func (s SequenceState) String() string {
	switch s {
	case SequenceOpen:
		return "open"
	case SequenceClosed:
		return "closed"
	case SequenceUndone:
		return "undone"
	case SequenceRedone:
		return "redone"
	default:
		return "unknown"
	}
}

// Sequence is an ordered, atomic group of operations treated as one
// undo/redo unit. It holds an index range into the tracker's arena.
type Sequence struct {
	startOp int
	endOp   int // exclusive
	state   SequenceState
	at      time.Time
}

// State returns the sequence's lifecycle state.
func (s *Sequence) State() SequenceState { return s.state }

// Len returns the number of operations in the sequence.
func (s *Sequence) Len() int { return s.endOp - s.startOp }

// At returns when the sequence was opened.
func (s *Sequence) At() time.Time { return s.at }
