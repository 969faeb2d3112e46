package textindex

// Incremental patching. A patch is only taken when the edit provably cannot
// move a grapheme cluster boundary: printable-ASCII text in a neighborhood
// whose adjacent bytes are ASCII and cannot join the edit into a cluster
// (CR is the only ASCII byte that clusters with a following byte). Anything
// else invalidates the index; the next user rebuilds it.

// PatchInsert updates the index in place for text inserted at pos.
// prev and next are the bytes adjacent to the insertion site in the new
// content (ok flags false at the buffer edges). It returns false, leaving
// the index invalidated, when the edit cannot be patched safely.
func (idx *Index) PatchInsert(pos int64, text string, prev, next byte, prevOK, nextOK bool, version uint64) bool {
	if !idx.valid || pos < 0 || pos > int64(idx.byteCount) {
		idx.valid = false
		return false
	}
	if !patchableText(text) || !patchableNeighbors(prev, next, prevOK, nextOK) {
		idx.valid = false
		return false
	}

	k := len(text)
	cpAt := int(idx.byteToCodepoint[pos])
	gAt := int(idx.codepointToGrapheme[cpAt])

	// Each inserted byte is its own codepoint and its own cluster.
	idx.byteToCodepoint = spliceRamp(idx.byteToCodepoint, int(pos), k, int32(cpAt), int32(k))
	idx.codepointToByte = spliceRamp(idx.codepointToByte, cpAt, k, int32(pos), int32(k))
	idx.codepointToGrapheme = spliceRamp(idx.codepointToGrapheme, cpAt, k, int32(gAt), int32(k))
	idx.graphemeToCodepoint = spliceRamp(idx.graphemeToCodepoint, gAt, k, int32(cpAt), int32(k))

	idx.byteCount += k
	idx.codepointCount += k
	idx.graphemeCount += k
	idx.version = version
	return true
}

// PatchDelete updates the index in place for removed bytes that started at
// pos. removed is the text captured before the mutation; prev and next are
// the bytes now adjacent to pos in the new content.
func (idx *Index) PatchDelete(pos int64, removed string, prev, next byte, prevOK, nextOK bool, version uint64) bool {
	if !idx.valid || pos < 0 || pos+int64(len(removed)) > int64(idx.byteCount) {
		idx.valid = false
		return false
	}
	if !patchableText(removed) || !patchableNeighbors(prev, next, prevOK, nextOK) {
		idx.valid = false
		return false
	}

	k := len(removed)
	cpAt := int(idx.byteToCodepoint[pos])
	gAt := int(idx.codepointToGrapheme[cpAt])

	idx.byteToCodepoint = cutRamp(idx.byteToCodepoint, int(pos), k, int32(k))
	idx.codepointToByte = cutRamp(idx.codepointToByte, cpAt, k, int32(k))
	idx.codepointToGrapheme = cutRamp(idx.codepointToGrapheme, cpAt, k, int32(k))
	idx.graphemeToCodepoint = cutRamp(idx.graphemeToCodepoint, gAt, k, int32(k))

	idx.byteCount -= k
	idx.codepointCount -= k
	idx.graphemeCount -= k
	idx.version = version
	return true
}

// patchableText accepts printable ASCII only. Control bytes (CR, LF, TAB)
// are excluded: LF can join a preceding CR into one cluster.
func patchableText(text string) bool {
	if len(text) == 0 {
		return false
	}
	for i := 0; i < len(text); i++ {
		if text[i] < 0x20 || text[i] > 0x7E {
			return false
		}
	}
	return true
}

// patchableNeighbors accepts ASCII neighbors that cannot start or continue
// a cluster across the edit site.
func patchableNeighbors(prev, next byte, prevOK, nextOK bool) bool {
	if prevOK && (prev >= 0x80 || prev == '\r') {
		return false
	}
	if nextOK && next >= 0x80 {
		return false
	}
	return true
}

// spliceRamp inserts k entries v, v+1, ... v+k-1 at position at, adding
// delta to every entry after the splice point (the sentinel included).
func spliceRamp(s []int32, at, k int, v, delta int32) []int32 {
	out := make([]int32, 0, len(s)+k)
	out = append(out, s[:at]...)
	for i := 0; i < k; i++ {
		out = append(out, v+int32(i))
	}
	for _, e := range s[at:] {
		out = append(out, e+delta)
	}
	return out
}

// cutRamp removes k entries at position at, subtracting delta from every
// entry after the cut point.
func cutRamp(s []int32, at, k int, delta int32) []int32 {
	out := make([]int32, 0, len(s)-k)
	out = append(out, s[:at]...)
	for _, e := range s[at+k:] {
		out = append(out, e-delta)
	}
	return out
}
