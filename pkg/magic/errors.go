package magic

import (
	"errors"
	"fmt"
)

// Sentinel parse failures. All of them abort the load of the definition
// file they occur in; none of them should ever crash the process.
var (
	// ErrTooFewFields reports an entry line that does not split into the
	// minimum offset, type, and condition fields.
	ErrTooFewFields = errors.New("signature line has fewer than 3 fields")

	// ErrBadEscape reports a malformed escape sequence in a condition.
	ErrBadEscape = errors.New("invalid escape sequence")

	// ErrUnsupportedType reports a numeric type keyword with no known
	// width. The original implementation silently gave these zero-length
	// conditions that matched everywhere; failing fast here is deliberate.
	ErrUnsupportedType = errors.New("unsupported type keyword")
)

// ParseError reports a malformed signature entry together with enough
// position information to find it in its definition file.
type ParseError struct {
	File string // definition source name; empty when parsing a bare line
	Line int    // 1-based line number; 0 when unknown
	Text string // offending line, line ending trimmed
	Err  error
}

// Error implements error.
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v: %q", e.File, e.Line, e.Err, e.Text)
	}
	return fmt.Sprintf("parse signature: %v: %q", e.Err, e.Text)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *ParseError) Unwrap() error {
	return e.Err
}
