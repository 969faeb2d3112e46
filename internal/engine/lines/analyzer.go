package lines

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Kind classifies a logical line.
type Kind uint8

const (
	// KindCommand is the first line of a command.
	KindCommand Kind = iota

	// KindContinuation is a line still inside an open construct, quote, or
	// escaped newline from the previous line.
	KindContinuation
)

// String returns a human-readable line kind.
func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindContinuation:
		return "continuation"
	default:
		return "unknown"
	}
}

// LineInfo describes one logical line.
//
// Start and End delimit the line's full span including its trailing newline,
// so consecutive spans tile the buffer: lines[i].End == lines[i+1].Start and
// the last line ends at the buffer length. Len excludes the newline.
type LineInfo struct {
	Start int64 // first byte of the line
	End   int64 // one past the last byte of the span (newline included)
	Len   int64 // content length in bytes, newline excluded

	CodepointCount int
	GraphemeCount  int
	VisualWidth    int // terminal cells for the content, tabs expanded

	Kind  Kind
	State State // parser state at the end of this line
}

// Analyzer maintains the line table for a buffer.
type Analyzer struct {
	lines    []LineInfo
	version  uint64
	tabWidth int
}

// NewAnalyzer creates an analyzer with the line table for empty content.
func NewAnalyzer(tabWidth int) *Analyzer {
	if tabWidth <= 0 {
		tabWidth = 8
	}
	a := &Analyzer{tabWidth: tabWidth}
	a.Rebuild("", 0)
	return a
}

// Version returns the buffer version of the current line table.
func (a *Analyzer) Version() uint64 { return a.version }

// Count returns the number of logical lines; always at least 1.
func (a *Analyzer) Count() int { return len(a.lines) }

// Lines returns a copy of the line table.
func (a *Analyzer) Lines() []LineInfo {
	out := make([]LineInfo, len(a.lines))
	copy(out, a.lines)
	for i := range out {
		out[i].State = out[i].State.Clone()
	}
	return out
}

// Line returns the line at index i, clamped to the table range.
func (a *Analyzer) Line(i int) LineInfo {
	if i < 0 {
		i = 0
	}
	if i >= len(a.lines) {
		i = len(a.lines) - 1
	}
	out := a.lines[i]
	out.State = out.State.Clone()
	return out
}

// LineAt returns the index of the line whose span contains byte offset.
// The buffer-end offset belongs to the last line.
func (a *Analyzer) LineAt(offset int64) int {
	if offset <= 0 {
		return 0
	}
	i := sort.Search(len(a.lines), func(i int) bool {
		return a.lines[i].End > offset
	})
	if i >= len(a.lines) {
		return len(a.lines) - 1
	}
	return i
}

// EndState returns the parser state at the end of the buffer.
func (a *Analyzer) EndState() State {
	return a.lines[len(a.lines)-1].State.Clone()
}

// Complete reports whether the buffer forms a complete command: no open
// construct, no open quote, and no dangling continuation at end of buffer.
func (a *Analyzer) Complete() bool {
	return !a.EndState().NeedsContinuation()
}

// Rebuild reanalyzes all of content.
func (a *Analyzer) Rebuild(content string, version uint64) {
	a.lines = a.scan(content, 0, State{}, a.lines[:0])
	a.version = version
}

// Reanalyze updates the table after an edit whose lowest affected byte is
// editStart. Lines fully before the edit keep their spans and states; the
// analysis resumes from the start of the line containing the edit, using the
// previous line's end state as checkpoint.
func (a *Analyzer) Reanalyze(content string, editStart int64, version uint64) {
	if editStart < 0 {
		editStart = 0
	}
	li := a.LineAt(editStart)
	// The edit may have glued this line to the previous one (deleted \n);
	// resume one line earlier when the edit sits on the line's first byte.
	if li > 0 && a.lines[li].Start == editStart {
		li--
	}

	var checkpoint State
	var from int64
	if li > 0 {
		checkpoint = a.lines[li-1].State.Clone()
		from = a.lines[li-1].End
	}
	if from > int64(len(content)) {
		// Checkpoint beyond the new content; fall back to a full rebuild.
		a.Rebuild(content, version)
		return
	}

	a.lines = a.scan(content, from, checkpoint, a.lines[:li])
	a.version = version
}

// scan appends line records for content[from:] onto dst, threading the
// parser state forward. It always appends at least one line.
func (a *Analyzer) scan(content string, from int64, st State, dst []LineInfo) []LineInfo {
	rest := content[from:]
	for {
		nl := strings.IndexByte(rest, '\n')
		var text string
		var span int64
		last := nl < 0
		if last {
			text = rest
			span = int64(len(text))
		} else {
			text = rest[:nl]
			span = int64(nl) + 1
		}

		kind := KindCommand
		if st.NeedsContinuation() {
			kind = KindContinuation
		}
		st.Feed(text)

		dst = append(dst, LineInfo{
			Start:          from,
			End:            from + span,
			Len:            int64(len(text)),
			CodepointCount: utf8.RuneCountInString(text),
			GraphemeCount:  uniseg.GraphemeClusterCount(text),
			VisualWidth:    a.visualWidth(text),
			Kind:           kind,
			State:          st.Clone(),
		})

		if last {
			return dst
		}
		from += span
		rest = content[from:]
	}
}

// visualWidth measures content in terminal cells, expanding tabs to the
// next tab stop.
func (a *Analyzer) visualWidth(text string) int {
	width := 0
	for len(text) > 0 {
		tab := strings.IndexByte(text, '\t')
		if tab < 0 {
			return width + runewidth.StringWidth(text)
		}
		width += runewidth.StringWidth(text[:tab])
		width += a.tabWidth - width%a.tabWidth
		text = text[tab+1:]
	}
	return width
}
