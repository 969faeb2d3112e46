package engine

import (
	"github.com/berrym/lusush-sub001/internal/engine/history"
	"github.com/berrym/lusush-sub001/internal/engine/store"
	"github.com/berrym/lusush-sub001/internal/engine/validate"
)

// Errors returned by engine operations. They are the sub-package sentinels,
// re-exported so callers match with errors.Is against one package.
var (
	// ErrInvalidParameter indicates a malformed argument such as a negative length.
	ErrInvalidParameter = store.ErrInvalidParam

	// ErrInvalidPosition indicates an offset outside the buffer or off a
	// codepoint boundary.
	ErrInvalidPosition = store.ErrInvalidPosition

	// ErrInvalidUTF8 indicates text that is not valid UTF-8.
	ErrInvalidUTF8 = store.ErrInvalidUTF8

	// ErrOutOfMemory indicates the buffer's hard capacity ceiling was hit.
	ErrOutOfMemory = store.ErrOutOfMemory

	// ErrReadOnly indicates a mutation on a read-only buffer.
	ErrReadOnly = store.ErrReadOnly

	// ErrBufferCorruption indicates an integrity check failed.
	ErrBufferCorruption = validate.ErrCorrupt

	// ErrNothingToUndo indicates an empty undo log.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates an empty redo tail.
	ErrNothingToRedo = history.ErrNothingToRedo

	// ErrPartialUndoFailure indicates an inverse step failed mid-sequence,
	// leaving the buffer consistent but only partially reverted.
	ErrPartialUndoFailure = history.ErrPartialUndo
)
