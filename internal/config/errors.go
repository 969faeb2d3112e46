package config

import (
	"errors"
	"fmt"
)

// ErrInvalidValue indicates a setting outside its allowed range or with an
// unparseable representation.
var ErrInvalidValue = errors.New("invalid config value")

// ParseError reports a malformed configuration file.
type ParseError struct {
	Path string
	Err  error
}

// Error returns the formatted message.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing config file %s: %v", e.Path, e.Err)
}

// Unwrap returns the parser's underlying error.
func (e *ParseError) Unwrap() error { return e.Err }
