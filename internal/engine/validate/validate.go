// Package validate cross-checks the integrity invariants of a command
// buffer: stored content is valid UTF-8, the logical terminator is present,
// the line table tiles the content, and the stored checksum matches a fresh
// digest. Checks report the first failure and never repair anything; whether
// to rebuild caches or discard the buffer is the caller's decision.
package validate

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/berrym/lusush-sub001/internal/engine/lines"
	"github.com/berrym/lusush-sub001/internal/engine/store"
)

// ErrCorrupt marks an integrity failure. Errors returned by the checks wrap
// it together with the failing detail.
var ErrCorrupt = errors.New("buffer corruption")

// Validator holds read-only references to the structures it cross-checks.
type Validator struct {
	st *store.Store
	la *lines.Analyzer
}

// New creates a validator over the given store and line table.
func New(st *store.Store, la *lines.Analyzer) *Validator {
	return &Validator{st: st, la: la}
}

// Check runs all four checks and returns the first failure, or nil.
func (v *Validator) Check() error {
	if err := v.CheckContent(); err != nil {
		return err
	}
	if err := v.CheckTerminator(); err != nil {
		return err
	}
	if err := v.CheckLines(); err != nil {
		return err
	}
	return v.CheckChecksum()
}

// CheckContent verifies the stored content is valid UTF-8.
func (v *Validator) CheckContent() error {
	if !utf8.ValidString(v.st.Text()) {
		return fmt.Errorf("%w: content is not valid UTF-8", ErrCorrupt)
	}
	return nil
}

// CheckTerminator verifies the logical terminator at content[length].
func (v *Validator) CheckTerminator() error {
	if !v.st.TerminatorIntact() {
		return fmt.Errorf("%w: terminator missing at length %d", ErrCorrupt, v.st.Len())
	}
	return nil
}

// CheckLines verifies the line table covers the content contiguously with
// no gaps or overlaps and holds at least one line.
func (v *Validator) CheckLines() error {
	tbl := v.la.Lines()
	if len(tbl) == 0 {
		return fmt.Errorf("%w: line table is empty", ErrCorrupt)
	}
	var at int64
	for i, ln := range tbl {
		if ln.Start != at {
			return fmt.Errorf("%w: line %d starts at %d, expected %d", ErrCorrupt, i, ln.Start, at)
		}
		if ln.End < ln.Start {
			return fmt.Errorf("%w: line %d has negative span", ErrCorrupt, i)
		}
		at = ln.End
	}
	if at != v.st.Len() {
		return fmt.Errorf("%w: line table covers %d bytes, content has %d", ErrCorrupt, at, v.st.Len())
	}
	return nil
}

// CheckChecksum verifies the stored digest against a fresh one.
func (v *Validator) CheckChecksum() error {
	if stored, fresh := v.st.Checksum(), v.st.ComputeChecksum(); stored != fresh {
		return fmt.Errorf("%w: checksum %08x does not match content %08x", ErrCorrupt, stored, fresh)
	}
	return nil
}
