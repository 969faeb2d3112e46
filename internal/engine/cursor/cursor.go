package cursor

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/berrym/lusush-sub001/internal/engine/lines"
	"github.com/berrym/lusush-sub001/internal/engine/store"
	"github.com/berrym/lusush-sub001/internal/engine/textindex"
)

// Engine maintains the cursor for one buffer. It reads the store, index, and
// line table but never mutates them.
type Engine struct {
	st  *store.Store
	idx *textindex.Index
	la  *lines.Analyzer

	pos       Position
	sticky    int // preferred visual column for vertical moves; -1 when unset
	tabWidth  int
	wrapWidth int // 0 disables wrapping; visual row == logical line
}

// Option configures a cursor engine.
type Option func(*Engine)

// WithTabWidth sets the tab stop width used for visual columns.
func WithTabWidth(w int) Option {
	return func(e *Engine) {
		if w > 0 {
			e.tabWidth = w
		}
	}
}

// WithWrapWidth sets the display width used to derive visual line/column.
func WithWrapWidth(w int) Option {
	return func(e *Engine) {
		if w > 0 {
			e.wrapWidth = w
		}
	}
}

// New creates a cursor engine at offset 0.
func New(st *store.Store, idx *textindex.Index, la *lines.Analyzer, opts ...Option) *Engine {
	e := &Engine{
		st:       st,
		idx:      idx,
		la:       la,
		sticky:   -1,
		tabWidth: 8,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Position returns the current resolved position.
func (e *Engine) Position() Position { return e.pos }

// StickyColumn returns the remembered visual column, or -1 when unset.
func (e *Engine) StickyColumn() int { return e.sticky }

// MoveToByteOffset places the cursor at offset, clamped to [0, length] and
// snapped back to the nearest codepoint boundary. Horizontal moves reset the
// sticky column.
func (e *Engine) MoveToByteOffset(offset int64) Position {
	e.sticky = -1
	return e.moveTo(offset)
}

// MoveByGraphemes shifts the cursor by delta grapheme clusters, clamping the
// target to [0, grapheme count].
func (e *Engine) MoveByGraphemes(delta int) Position {
	e.sticky = -1
	target := e.pos.Grapheme + delta
	if target < 0 {
		target = 0
	}
	if max := e.graphemeCount(); target > max {
		target = max
	}
	return e.moveTo(e.graphemeStart(target))
}

// MoveByLines shifts the cursor vertically by delta logical lines. The
// visual column is taken from the sticky column when one is remembered,
// otherwise from the current position, and becomes sticky for the next
// vertical move.
func (e *Engine) MoveByLines(delta int) Position {
	if e.sticky < 0 {
		e.sticky = e.pos.VisualCol
	}
	want := e.sticky

	target := e.pos.Line + delta
	if target < 0 {
		target = 0
	}
	if max := e.la.Count() - 1; target > max {
		target = max
	}

	ln := e.la.Line(target)
	off := e.offsetAtVisualCol(ln, want)
	pos := e.moveTo(off)
	e.sticky = want // moveTo derives, the preference survives
	return pos
}

// MoveByWords shifts the cursor by delta words. A word is a maximal run of
// non-space grapheme clusters.
func (e *Engine) MoveByWords(delta int) Position {
	e.sticky = -1
	content := e.st.Text()
	off := e.pos.Offset
	for ; delta > 0; delta-- {
		off = nextWordStart(content, off)
	}
	for ; delta < 0; delta++ {
		off = prevWordStart(content, off)
	}
	return e.moveTo(off)
}

// MoveToLineStart places the cursor at the first byte of the current line.
func (e *Engine) MoveToLineStart() Position {
	return e.MoveToByteOffset(e.la.Line(e.pos.Line).Start)
}

// MoveToLineEnd places the cursor after the last content byte of the
// current line, before its newline.
func (e *Engine) MoveToLineEnd() Position {
	ln := e.la.Line(e.pos.Line)
	return e.MoveToByteOffset(ln.Start + ln.Len)
}

// Resolve re-derives the position after a buffer mutation, clamping the
// offset into the new content. The sticky column is preserved.
func (e *Engine) Resolve() Position {
	return e.moveTo(e.pos.Offset)
}

// Restore places the cursor at a previously captured position, re-deriving
// everything from its byte offset.
func (e *Engine) Restore(p Position) Position {
	e.sticky = -1
	return e.moveTo(p.Offset)
}

// moveTo clamps, snaps to a codepoint boundary, and derives all position
// fields, using the index fast path when it matches the buffer version.
func (e *Engine) moveTo(offset int64) Position {
	if offset < 0 {
		offset = 0
	}
	if l := e.st.Len(); offset > l {
		offset = l
	}
	for offset > 0 && !e.st.IsBoundary(offset) {
		offset--
	}

	p := Position{Offset: offset}
	if e.idx.Valid(e.st.ModCount()) {
		p.Codepoint = e.idx.ByteToCodepoint(offset)
		p.Grapheme = e.idx.ByteToGrapheme(offset)
	} else {
		content := e.st.Text()
		p.Codepoint = utf8.RuneCountInString(content[:offset])
		p.Grapheme = graphemeAt(content, offset)
	}

	p.Line = e.la.LineAt(offset)
	ln := e.la.Line(p.Line)
	linePrefix := e.st.TextRange(ln.Start, offset)
	p.ByteCol = offset - ln.Start
	p.CodepointCol = utf8.RuneCountInString(linePrefix)
	p.GraphemeCol = uniseg.GraphemeClusterCount(linePrefix)

	col := e.visualWidth(linePrefix)
	if e.wrapWidth > 0 {
		rows := 0
		for i := 0; i < p.Line; i++ {
			rows += e.rowsOf(e.la.Line(i))
		}
		p.VisualLine = rows + col/e.wrapWidth
		p.VisualCol = col % e.wrapWidth
	} else {
		p.VisualLine = p.Line
		p.VisualCol = col
	}

	e.pos = p
	return p
}

// offsetAtVisualCol finds the byte offset on line ln closest to visual
// column want without passing it.
func (e *Engine) offsetAtVisualCol(ln lines.LineInfo, want int) int64 {
	text := e.st.TextRange(ln.Start, ln.Start+ln.Len)
	col := 0
	off := ln.Start
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		cluster := gr.Str()
		w := e.clusterWidth(cluster, col)
		if col+w > want {
			break
		}
		col += w
		off += int64(len(cluster))
	}
	return off
}

func (e *Engine) graphemeCount() int {
	if e.idx.Valid(e.st.ModCount()) {
		return e.idx.GraphemeCount()
	}
	return int(e.st.GraphemeCount())
}

// graphemeStart returns the byte offset where grapheme cluster g begins.
func (e *Engine) graphemeStart(g int) int64 {
	if e.idx.Valid(e.st.ModCount()) {
		return e.idx.GraphemeToByte(g)
	}
	// Index unavailable: O(n) scan.
	content := e.st.Text()
	off := int64(0)
	gr := uniseg.NewGraphemes(content)
	for i := 0; i < g && gr.Next(); i++ {
		off += int64(len(gr.Str()))
	}
	return off
}

// graphemeAt returns the index of the cluster containing offset, matching
// the index mapping: an offset inside a cluster resolves to that cluster,
// not the one after it. Segmenting the full content keeps a cluster cut by
// offset whole; offset == len(content) yields the cluster count.
func graphemeAt(content string, offset int64) int {
	n := 0
	var end int64
	gr := uniseg.NewGraphemes(content)
	for gr.Next() {
		end += int64(len(gr.Str()))
		if offset < end {
			return n
		}
		n++
	}
	return n
}

func (e *Engine) visualWidth(text string) int {
	width := 0
	for len(text) > 0 {
		tab := strings.IndexByte(text, '\t')
		if tab < 0 {
			return width + runewidth.StringWidth(text)
		}
		width += runewidth.StringWidth(text[:tab])
		width += e.tabWidth - width%e.tabWidth
		text = text[tab+1:]
	}
	return width
}

func (e *Engine) clusterWidth(cluster string, col int) int {
	if cluster == "\t" {
		return e.tabWidth - col%e.tabWidth
	}
	return runewidth.StringWidth(cluster)
}

// rowsOf returns the display rows a line occupies: ceil(width/wrapWidth),
// at least 1 so empty lines still take a row.
func (e *Engine) rowsOf(ln lines.LineInfo) int {
	if e.wrapWidth <= 0 {
		return 1
	}
	rows := (ln.VisualWidth + e.wrapWidth - 1) / e.wrapWidth
	if rows < 1 {
		rows = 1
	}
	return rows
}

// nextWordStart finds the start of the word after off, or the end of content.
func nextWordStart(content string, off int64) int64 {
	i := int(off)
	// Skip the rest of the current word.
	for i < len(content) && !isSpaceAt(content, i) {
		_, size := utf8.DecodeRuneInString(content[i:])
		i += size
	}
	// Skip separating whitespace.
	for i < len(content) && isSpaceAt(content, i) {
		_, size := utf8.DecodeRuneInString(content[i:])
		i += size
	}
	return int64(i)
}

// prevWordStart finds the start of the word before off, or 0.
func prevWordStart(content string, off int64) int64 {
	i := int(off)
	for i > 0 && isSpaceBefore(content, i) {
		_, size := utf8.DecodeLastRuneInString(content[:i])
		i -= size
	}
	for i > 0 && !isSpaceBefore(content, i) {
		_, size := utf8.DecodeLastRuneInString(content[:i])
		i -= size
	}
	return int64(i)
}

func isSpaceAt(content string, i int) bool {
	r, _ := utf8.DecodeRuneInString(content[i:])
	return r == ' ' || r == '\t' || r == '\n'
}

func isSpaceBefore(content string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(content[:i])
	return r == ' ' || r == '\t' || r == '\n'
}
