package engine

// Default configuration values.
const (
	DefaultTabWidth         = 8
	DefaultMaxUndoSequences = 1000
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithInitialCapacity sets the buffer's starting capacity in bytes.
func WithInitialCapacity(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.initialCapacity = n
		}
	}
}

// WithMaxCapacity sets the hard capacity ceiling in bytes.
func WithMaxCapacity(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxCapacity = n
		}
	}
}

// WithMaxUndoSequences bounds the undo log.
func WithMaxUndoSequences(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxUndoSequences = n
		}
	}
}

// WithTabWidth sets the tab stop width used for visual columns.
func WithTabWidth(w int) Option {
	return func(e *Engine) {
		if w > 0 {
			e.tabWidth = w
		}
	}
}

// WithWrapWidth sets the display width used for visual line/column
// derivation. Zero disables wrapping.
func WithWrapWidth(w int) Option {
	return func(e *Engine) {
		if w > 0 {
			e.wrapWidth = w
		}
	}
}
