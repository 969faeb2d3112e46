package store

import (
	"errors"
	"hash/crc32"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
)

// Errors returned by store operations.
var (
	ErrInvalidPosition = errors.New("position out of range or not on a codepoint boundary")
	ErrInvalidUTF8     = errors.New("text is not valid UTF-8")
	ErrOutOfMemory     = errors.New("buffer capacity limit exceeded")
	ErrInvalidParam    = errors.New("invalid parameter")
	ErrReadOnly        = errors.New("buffer is read-only")
)

// ByteOffset is a byte position in the store's content.
type ByteOffset = int64

// Default sizes. A store holds one interactive command, not a file.
const (
	DefaultCapacity    = 1024
	DefaultMaxCapacity = 1 << 20 // 1 MiB hard ceiling
)

// Flags describe the store's status.
type Flags uint8

const (
	// FlagModified is set after the first successful mutation.
	FlagModified Flags = 1 << iota

	// FlagReadOnly rejects all mutations with ErrReadOnly.
	FlagReadOnly
)

// Store holds the byte content of a single editing session's command line.
//
// The underlying array always carries one byte more than the logical length:
// a NUL terminator at data[length], kept valid across every mutation so that
// slicing up to length is always safe.
type Store struct {
	data     []byte // len(data) == length+1, data[length] == 0
	length   int64
	capacity int64 // logical capacity, excludes the terminator byte
	maxCap   int64

	codepointCount int64
	graphemeCount  int64

	modCount   uint64
	checksum   uint32
	flags      Flags
	sessionID  string
	createdAt  time.Time
	modifiedAt time.Time
}

// Option configures a Store during creation.
type Option func(*Store)

// WithCapacity sets the initial logical capacity in bytes.
func WithCapacity(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithMaxCapacity sets the hard capacity ceiling. Mutations that would grow
// the store past the ceiling fail with ErrOutOfMemory.
func WithMaxCapacity(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxCap = n
		}
	}
}

// WithReadOnly marks the store read-only.
func WithReadOnly() Option {
	return func(s *Store) {
		s.flags |= FlagReadOnly
	}
}

// New creates an empty store for a fresh editing session.
func New(opts ...Option) *Store {
	now := time.Now()
	s := &Store{
		capacity:   DefaultCapacity,
		maxCap:     DefaultMaxCapacity,
		sessionID:  uuid.New().String(),
		createdAt:  now,
		modifiedAt: now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.capacity > s.maxCap {
		s.capacity = s.maxCap
	}
	s.data = make([]byte, 1, s.capacity+1)
	s.data[0] = 0
	s.checksum = crc32.ChecksumIEEE(nil)
	return s
}

// Read Operations

// Len returns the logical length in bytes.
func (s *Store) Len() int64 { return s.length }

// Capacity returns the logical capacity in bytes.
func (s *Store) Capacity() int64 { return s.capacity }

// CodepointCount returns the number of Unicode codepoints in the content.
func (s *Store) CodepointCount() int64 { return s.codepointCount }

// GraphemeCount returns the number of grapheme clusters in the content.
func (s *Store) GraphemeCount() int64 { return s.graphemeCount }

// ModCount returns the modification counter. It advances on every successful
// mutation and never decreases; dependent caches use it as a version tag.
func (s *Store) ModCount() uint64 { return s.modCount }

// Checksum returns the stored CRC-32 digest of the content.
func (s *Store) Checksum() uint32 { return s.checksum }

// ComputeChecksum recomputes the CRC-32 digest from the current content.
func (s *Store) ComputeChecksum() uint32 {
	return crc32.ChecksumIEEE(s.data[:s.length])
}

// Flags returns the status flags.
func (s *Store) Flags() Flags { return s.flags }

// SessionID returns the identity of the editing session that owns the store.
func (s *Store) SessionID() string { return s.sessionID }

// CreatedAt returns the session creation time.
func (s *Store) CreatedAt() time.Time { return s.createdAt }

// ModifiedAt returns the time of the last successful mutation.
func (s *Store) ModifiedAt() time.Time { return s.modifiedAt }

// IsEmpty reports whether the store holds no content.
func (s *Store) IsEmpty() bool { return s.length == 0 }

// Text returns the full content as a string.
func (s *Store) Text() string { return string(s.data[:s.length]) }

// TextRange returns the content in [start, end).
// Out-of-range bounds are clamped.
func (s *Store) TextRange(start, end int64) string {
	if start < 0 {
		start = 0
	}
	if end > s.length {
		end = s.length
	}
	if start >= end {
		return ""
	}
	return string(s.data[start:end])
}

// ByteAt returns the byte at offset, or false if offset is out of range.
func (s *Store) ByteAt(offset int64) (byte, bool) {
	if offset < 0 || offset >= s.length {
		return 0, false
	}
	return s.data[offset], true
}

// TerminatorIntact reports whether the logical NUL terminator is present.
func (s *Store) TerminatorIntact() bool {
	return int64(len(s.data)) == s.length+1 && s.data[s.length] == 0
}

// IsBoundary reports whether offset falls on a codepoint boundary.
// Both 0 and length are boundaries.
func (s *Store) IsBoundary(offset int64) bool {
	if offset < 0 || offset > s.length {
		return false
	}
	if offset == 0 || offset == s.length {
		return true
	}
	return !isContinuation(s.data[offset])
}

// Write Operations

// Insert places text at pos, shifting the tail of the content. It validates
// pos and text before moving any byte; on error the store is unchanged.
func (s *Store) Insert(pos int64, text string) error {
	if s.flags&FlagReadOnly != 0 {
		return ErrReadOnly
	}
	if len(text) == 0 {
		return nil
	}
	if pos < 0 || pos > s.length || !s.IsBoundary(pos) {
		return ErrInvalidPosition
	}
	if !utf8.ValidString(text) {
		return ErrInvalidUTF8
	}

	newLen := s.length + int64(len(text))
	if err := s.Expand(newLen); err != nil {
		return err
	}

	s.data = s.data[:newLen+1]
	copy(s.data[pos+int64(len(text)):], s.data[pos:s.length+1])
	copy(s.data[pos:], text)
	s.length = newLen
	s.data[s.length] = 0

	s.touch()
	return nil
}

// Delete removes n bytes starting at start, reclaiming the space. Both range
// ends must fall on codepoint boundaries; on error the store is unchanged.
func (s *Store) Delete(start, n int64) error {
	if s.flags&FlagReadOnly != 0 {
		return ErrReadOnly
	}
	if n < 0 {
		return ErrInvalidParam
	}
	if n == 0 {
		return nil
	}
	if start < 0 || start+n > s.length || !s.IsBoundary(start) || !s.IsBoundary(start+n) {
		return ErrInvalidPosition
	}

	copy(s.data[start:], s.data[start+n:s.length+1])
	s.length -= n
	s.data = s.data[:s.length+1]
	s.data[s.length] = 0

	s.touch()
	return nil
}

// Expand grows the logical capacity geometrically until it covers minCapacity.
// It fails with ErrOutOfMemory if minCapacity exceeds the hard ceiling; the
// store is not partially grown on failure.
func (s *Store) Expand(minCapacity int64) error {
	if minCapacity <= s.capacity {
		return nil
	}
	if minCapacity > s.maxCap {
		return ErrOutOfMemory
	}

	newCap := s.capacity
	for newCap < minCapacity {
		newCap *= 2
	}
	if newCap > s.maxCap {
		newCap = s.maxCap
	}

	grown := make([]byte, s.length+1, newCap+1)
	copy(grown, s.data[:s.length+1])
	s.data = grown
	s.capacity = newCap
	return nil
}

// Clear removes all content while keeping the session identity, capacity,
// and modification history counters.
func (s *Store) Clear() error {
	if s.flags&FlagReadOnly != 0 {
		return ErrReadOnly
	}
	if s.length == 0 {
		return nil
	}
	s.length = 0
	s.data = s.data[:1]
	s.data[0] = 0
	s.touch()
	return nil
}

// touch refreshes all derived state after a successful mutation.
func (s *Store) touch() {
	content := s.data[:s.length]
	s.codepointCount = int64(utf8.RuneCount(content))
	s.graphemeCount = int64(uniseg.GraphemeClusterCount(string(content)))
	s.checksum = crc32.ChecksumIEEE(content)
	s.modCount++
	s.modifiedAt = time.Now()
	s.flags |= FlagModified
}

// isContinuation reports whether b is a UTF-8 continuation byte (10xxxxxx).
func isContinuation(b byte) bool {
	return b&0xC0 == 0x80
}
