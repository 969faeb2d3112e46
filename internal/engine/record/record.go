// Package record defines the exchange format between the command buffer and
// the history subsystem: the normalized command text plus enough structural
// metadata (line boundaries, indentation, nesting) to reconstruct the
// original multi-line form later.
package record

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrMalformed is returned when a serialized record cannot be decoded.
var ErrMalformed = errors.New("malformed history record")

// LineMeta describes one logical line of the finalized command.
type LineMeta struct {
	Start  int64  // byte offset of the line in Text
	Len    int64  // content length, newline excluded
	Indent int    // leading space/tab bytes
	Depth  int    // construct nesting depth at line start
	Kind   string // "command" or "continuation"
}

// Record is a finalized command handed to the history subsystem, or loaded
// back from it.
type Record struct {
	Text      string // normalized command text
	Complete  bool   // parser saw no dangling construct at finalization
	SessionID string
	CreatedAt time.Time
	Lines     []LineMeta
}

// Encode serializes the record to JSON.
func (r Record) Encode() ([]byte, error) {
	out := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		out, err = sjson.SetBytes(out, path, value)
	}

	set("text", r.Text)
	set("complete", r.Complete)
	set("session_id", r.SessionID)
	set("created_at", r.CreatedAt.Format(time.RFC3339Nano))
	for i, ln := range r.Lines {
		prefix := fmt.Sprintf("lines.%d.", i)
		set(prefix+"start", ln.Start)
		set(prefix+"len", ln.Len)
		set(prefix+"indent", ln.Indent)
		set(prefix+"depth", ln.Depth)
		set(prefix+"kind", ln.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding history record: %w", err)
	}
	return out, nil
}

// Decode parses a serialized record.
func Decode(data []byte) (Record, error) {
	if !gjson.ValidBytes(data) {
		return Record{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	doc := gjson.ParseBytes(data)
	text := doc.Get("text")
	if !text.Exists() {
		return Record{}, fmt.Errorf("%w: missing text", ErrMalformed)
	}

	r := Record{
		Text:      text.String(),
		Complete:  doc.Get("complete").Bool(),
		SessionID: doc.Get("session_id").String(),
	}
	if at := doc.Get("created_at"); at.Exists() {
		parsed, err := time.Parse(time.RFC3339Nano, at.String())
		if err != nil {
			return Record{}, fmt.Errorf("%w: bad created_at: %v", ErrMalformed, err)
		}
		r.CreatedAt = parsed
	}

	var decodeErr error
	doc.Get("lines").ForEach(func(_, line gjson.Result) bool {
		ln := LineMeta{
			Start:  line.Get("start").Int(),
			Len:    line.Get("len").Int(),
			Indent: int(line.Get("indent").Int()),
			Depth:  int(line.Get("depth").Int()),
			Kind:   line.Get("kind").String(),
		}
		if ln.Start < 0 || ln.Len < 0 || ln.Start+ln.Len > int64(len(r.Text)) {
			decodeErr = fmt.Errorf("%w: line span [%d,+%d] outside text", ErrMalformed, ln.Start, ln.Len)
			return false
		}
		r.Lines = append(r.Lines, ln)
		return true
	})
	if decodeErr != nil {
		return Record{}, decodeErr
	}
	return r, nil
}
