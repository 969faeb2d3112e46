package textindex

import (
	"errors"

	"github.com/rivo/uniseg"
)

// ErrInvalidUTF8 is returned when a rebuild finds a malformed sequence.
// The buffer validates text before storing it, so this indicates corruption.
var ErrInvalidUTF8 = errors.New("index rebuild found invalid UTF-8")

// Index maps positions between the byte, codepoint, and grapheme spaces.
//
// The zero value is an invalid, empty index; call Rebuild before use.
type Index struct {
	byteToCodepoint     []int32 // per byte: codepoint containing it; sentinel at [byteCount]
	codepointToByte     []int32 // per codepoint: its start byte; sentinel at [codepointCount]
	graphemeToCodepoint []int32 // per grapheme: its first codepoint; sentinel at [graphemeCount]
	codepointToGrapheme []int32 // per codepoint: grapheme containing it; sentinel at [codepointCount]

	byteCount      int
	codepointCount int
	graphemeCount  int

	valid   bool
	version uint64 // buffer modification count this index was built for
}

// New returns an index that is valid for an empty buffer at version.
func New(version uint64) *Index {
	idx := &Index{}
	// Rebuild of empty content cannot fail.
	_ = idx.Rebuild("", version)
	return idx
}

// Valid reports whether the index matches the given buffer version.
func (idx *Index) Valid(version uint64) bool {
	return idx.valid && idx.version == version
}

// Invalidate marks the index stale. The next user must rebuild it.
func (idx *Index) Invalidate() {
	idx.valid = false
}

// Version returns the buffer version the index was last built or patched for.
func (idx *Index) Version() uint64 { return idx.version }

// ByteCount returns the number of bytes covered by the index.
func (idx *Index) ByteCount() int { return idx.byteCount }

// CodepointCount returns the number of codepoints covered by the index.
func (idx *Index) CodepointCount() int { return idx.codepointCount }

// GraphemeCount returns the number of grapheme clusters covered by the index.
func (idx *Index) GraphemeCount() int { return idx.graphemeCount }

// Rebuild scans content once and reconstructs all four mappings.
// On failure the index is left invalid and the old mappings are discarded.
func (idx *Index) Rebuild(content string, version uint64) error {
	idx.valid = false

	n := len(content)
	idx.byteToCodepoint = grow(idx.byteToCodepoint, n+1)
	idx.codepointToByte = idx.codepointToByte[:0]
	idx.graphemeToCodepoint = idx.graphemeToCodepoint[:0]
	idx.codepointToGrapheme = idx.codepointToGrapheme[:0]

	// Byte pass: sequence length from the leading-byte pattern.
	cp := 0
	for b := 0; b < n; {
		size := sequenceLen(content[b])
		if size == 0 || b+size > n {
			return ErrInvalidUTF8
		}
		for i := 1; i < size; i++ {
			if content[b+i]&0xC0 != 0x80 {
				return ErrInvalidUTF8
			}
		}
		idx.codepointToByte = append(idx.codepointToByte, int32(b))
		for i := 0; i < size; i++ {
			idx.byteToCodepoint[b+i] = int32(cp)
		}
		b += size
		cp++
	}
	idx.byteToCodepoint[n] = int32(cp) // sentinel
	idx.codepointToByte = append(idx.codepointToByte, int32(n))

	// Grapheme pass: boundary detection between consecutive codepoints.
	g := 0
	cpAt := 0
	gr := uniseg.NewGraphemes(content)
	for gr.Next() {
		idx.graphemeToCodepoint = append(idx.graphemeToCodepoint, int32(cpAt))
		for range gr.Runes() {
			idx.codepointToGrapheme = append(idx.codepointToGrapheme, int32(g))
			cpAt++
		}
		g++
	}
	idx.graphemeToCodepoint = append(idx.graphemeToCodepoint, int32(cp))
	idx.codepointToGrapheme = append(idx.codepointToGrapheme, int32(g))

	idx.byteCount = n
	idx.codepointCount = cp
	idx.graphemeCount = g
	idx.version = version
	idx.valid = true
	return nil
}

// Conversions. Arguments are clamped to the covered range; callers are
// expected to have checked Valid first.

// ByteToCodepoint returns the index of the codepoint enclosing byte offset b.
func (idx *Index) ByteToCodepoint(b int64) int {
	return int(idx.byteToCodepoint[clamp(b, int64(idx.byteCount))])
}

// CodepointToByte returns the start byte offset of codepoint cp.
func (idx *Index) CodepointToByte(cp int) int64 {
	return int64(idx.codepointToByte[clamp(int64(cp), int64(idx.codepointCount))])
}

// CodepointToGrapheme returns the grapheme cluster containing codepoint cp.
func (idx *Index) CodepointToGrapheme(cp int) int {
	return int(idx.codepointToGrapheme[clamp(int64(cp), int64(idx.codepointCount))])
}

// GraphemeToCodepoint returns the first codepoint of grapheme cluster g.
func (idx *Index) GraphemeToCodepoint(g int) int {
	return int(idx.graphemeToCodepoint[clamp(int64(g), int64(idx.graphemeCount))])
}

// ByteToGrapheme returns the grapheme cluster enclosing byte offset b.
func (idx *Index) ByteToGrapheme(b int64) int {
	return idx.CodepointToGrapheme(idx.ByteToCodepoint(b))
}

// GraphemeToByte returns the start byte offset of grapheme cluster g.
func (idx *Index) GraphemeToByte(g int) int64 {
	return idx.CodepointToByte(idx.GraphemeToCodepoint(g))
}

// sequenceLen decodes a UTF-8 sequence length from its leading byte.
// Returns 0 for continuation bytes and illegal leading bytes.
func sequenceLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return 0
	}
}

func clamp(v, max int64) int64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func grow(s []int32, n int) []int32 {
	if cap(s) < n {
		return make([]int32, n)
	}
	return s[:n]
}
