package store

import (
	"errors"
	"testing"
)

func TestNewStore(t *testing.T) {
	s := New()

	if !s.IsEmpty() {
		t.Error("new store should be empty")
	}
	if s.Len() != 0 {
		t.Errorf("expected length 0, got %d", s.Len())
	}
	if s.Capacity() != DefaultCapacity {
		t.Errorf("expected capacity %d, got %d", DefaultCapacity, s.Capacity())
	}
	if !s.TerminatorIntact() {
		t.Error("terminator should be present on a fresh store")
	}
	if s.SessionID() == "" {
		t.Error("session ID should be set")
	}
}

func TestInsertBasic(t *testing.T) {
	s := New()

	if err := s.Insert(0, "echo hello"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if s.Text() != "echo hello" {
		t.Errorf("expected %q, got %q", "echo hello", s.Text())
	}
	if s.Len() != 10 {
		t.Errorf("expected length 10, got %d", s.Len())
	}
	if !s.TerminatorIntact() {
		t.Error("terminator lost after insert")
	}
}

func TestInsertMiddle(t *testing.T) {
	s := New()
	mustInsert(t, s, 0, "echo world")

	if err := s.Insert(5, "big "); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if s.Text() != "echo big world" {
		t.Errorf("expected %q, got %q", "echo big world", s.Text())
	}
}

func TestInsertOutOfRange(t *testing.T) {
	s := New()
	mustInsert(t, s, 0, "ls")

	err := s.Insert(3, "x")
	if !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
	if s.Text() != "ls" {
		t.Errorf("failed insert mutated store: %q", s.Text())
	}
}

func TestInsertInvalidUTF8LeavesStoreUnchanged(t *testing.T) {
	s := New()
	mustInsert(t, s, 0, "ok")
	sum := s.Checksum()
	mods := s.ModCount()

	err := s.Insert(1, "bad\xff\xfe")
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
	if s.Text() != "ok" || s.Len() != 2 {
		t.Errorf("rejected insert mutated store: %q", s.Text())
	}
	if s.Checksum() != sum {
		t.Error("rejected insert changed checksum")
	}
	if s.ModCount() != mods {
		t.Error("rejected insert advanced modification count")
	}
}

func TestInsertInsideCodepoint(t *testing.T) {
	s := New()
	mustInsert(t, s, 0, "café")

	// Offset 4 is inside the two-byte é sequence.
	err := s.Insert(4, "x")
	if !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestDeleteBasic(t *testing.T) {
	s := New()
	mustInsert(t, s, 0, "echo big world")

	if err := s.Delete(5, 4); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if s.Text() != "echo world" {
		t.Errorf("expected %q, got %q", "echo world", s.Text())
	}
	if !s.TerminatorIntact() {
		t.Error("terminator lost after delete")
	}
}

func TestDeleteOutOfRange(t *testing.T) {
	s := New()
	mustInsert(t, s, 0, "ab")

	if err := s.Delete(1, 5); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
	if err := s.Delete(-1, 1); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
	if err := s.Delete(0, -1); !errors.Is(err, ErrInvalidParam) {
		t.Errorf("expected ErrInvalidParam, got %v", err)
	}
}

func TestInsertThenDeleteRestoresContent(t *testing.T) {
	s := New()
	mustInsert(t, s, 0, "git commit -m 'wip'")

	origText := s.Text()
	origLen := s.Len()
	origSum := s.Checksum()

	text := "--amend "
	if err := s.Insert(11, text); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := s.Delete(11, int64(len(text))); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if s.Text() != origText {
		t.Errorf("expected %q, got %q", origText, s.Text())
	}
	if s.Len() != origLen {
		t.Errorf("expected length %d, got %d", origLen, s.Len())
	}
	if s.Checksum() != origSum {
		t.Errorf("expected checksum %08x, got %08x", origSum, s.Checksum())
	}
}

func TestCountsUnicode(t *testing.T) {
	s := New()
	mustInsert(t, s, 0, "café\n")

	if s.Len() != 6 {
		t.Errorf("expected 6 bytes, got %d", s.Len())
	}
	if s.CodepointCount() != 5 {
		t.Errorf("expected 5 codepoints, got %d", s.CodepointCount())
	}
	if s.GraphemeCount() != 5 {
		t.Errorf("expected 5 graphemes, got %d", s.GraphemeCount())
	}
}

func TestCountsCombiningMark(t *testing.T) {
	s := New()
	// "e" plus U+0301 combining acute: 3 bytes, 2 codepoints, 1 grapheme.
	mustInsert(t, s, 0, "é")

	if s.Len() != 3 {
		t.Errorf("expected 3 bytes, got %d", s.Len())
	}
	if s.CodepointCount() != 2 {
		t.Errorf("expected 2 codepoints, got %d", s.CodepointCount())
	}
	if s.GraphemeCount() != 1 {
		t.Errorf("expected 1 grapheme, got %d", s.GraphemeCount())
	}
}

func TestCountOrdering(t *testing.T) {
	samples := []string{"", "plain ascii", "café", "héllo wörld", "🇺🇸 flag", "éé"}
	for _, text := range samples {
		s := New()
		if text != "" {
			mustInsert(t, s, 0, text)
		}
		if s.GraphemeCount() > s.CodepointCount() || s.CodepointCount() > s.Len() {
			t.Errorf("%q: want graphemes <= codepoints <= bytes, got %d, %d, %d",
				text, s.GraphemeCount(), s.CodepointCount(), s.Len())
		}
	}
}

func TestExpandGeometric(t *testing.T) {
	s := New(WithCapacity(8))

	if err := s.Insert(0, "0123456789"); err != nil {
		t.Fatalf("insert across capacity failed: %v", err)
	}
	if s.Capacity() < 10 {
		t.Errorf("capacity did not grow: %d", s.Capacity())
	}
	if s.Capacity() != 16 {
		t.Errorf("expected doubled capacity 16, got %d", s.Capacity())
	}
	if s.Text() != "0123456789" {
		t.Errorf("content corrupted by growth: %q", s.Text())
	}
}

func TestExpandCeiling(t *testing.T) {
	s := New(WithCapacity(4), WithMaxCapacity(8))
	mustInsert(t, s, 0, "12345678")

	err := s.Insert(8, "9")
	if !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}
	if s.Text() != "12345678" {
		t.Errorf("failed expand mutated store: %q", s.Text())
	}
}

func TestClear(t *testing.T) {
	s := New()
	mustInsert(t, s, 0, "some command")
	id := s.SessionID()

	if err := s.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if !s.IsEmpty() || s.Len() != 0 {
		t.Error("store not empty after clear")
	}
	if !s.TerminatorIntact() {
		t.Error("terminator lost after clear")
	}
	if s.SessionID() != id {
		t.Error("clear must keep session identity")
	}
}

func TestReadOnly(t *testing.T) {
	s := New(WithReadOnly())

	if err := s.Insert(0, "x"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestModCountAdvances(t *testing.T) {
	s := New()
	before := s.ModCount()

	mustInsert(t, s, 0, "a")
	if s.ModCount() != before+1 {
		t.Errorf("expected modcount %d, got %d", before+1, s.ModCount())
	}

	if err := s.Delete(0, 1); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if s.ModCount() != before+2 {
		t.Errorf("expected modcount %d, got %d", before+2, s.ModCount())
	}
}

func TestChecksumMatchesRecompute(t *testing.T) {
	s := New()
	mustInsert(t, s, 0, "for f in *; do echo $f; done")

	if s.Checksum() != s.ComputeChecksum() {
		t.Errorf("stored checksum %08x != recomputed %08x", s.Checksum(), s.ComputeChecksum())
	}
}

func TestIsBoundary(t *testing.T) {
	s := New()
	mustInsert(t, s, 0, "café") // é = bytes 3,4

	boundaries := map[int64]bool{0: true, 1: true, 2: true, 3: true, 4: false, 5: true}
	for off, want := range boundaries {
		if got := s.IsBoundary(off); got != want {
			t.Errorf("IsBoundary(%d) = %v, want %v", off, got, want)
		}
	}
	if s.IsBoundary(-1) || s.IsBoundary(6) {
		t.Error("out-of-range offsets are not boundaries")
	}
}

func mustInsert(t *testing.T, s *Store, pos int64, text string) {
	t.Helper()
	if err := s.Insert(pos, text); err != nil {
		t.Fatalf("insert %q at %d: %v", text, pos, err)
	}
}
