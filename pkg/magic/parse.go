// Package magic parses libmagic-style signature definition lines into
// structured entries and renders numeric conditions into the literal bytes
// a candidate scanner can search for.
package magic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/praetorian-inc/magus/pkg/types"
)

// wildcardToken is the decoded condition that matches anything. The check
// runs against the decoded bytes, not the type keyword, so `0 string x ...`
// is a wildcard too.
const wildcardToken = "x"

// IsEntryLine reports whether a raw definition line begins a signature
// entry. Only lines whose first byte is an ASCII digit do; comments,
// `>`-continuations, and blank lines never parse as entries.
func IsEntryLine(line string) bool {
	return len(line) > 0 && line[0] >= '0' && line[0] <= '9'
}

// ParseLine parses one signature entry line. The returned error, when
// non-nil, is always a *ParseError; callers loading files fill in its File
// and Line fields.
//
// Tokenization protects `\ ` (escaped space) sequences by rewriting them to
// `\x20` before splitting on whitespace, so spaces inside condition values
// do not break the field count.
func ParseLine(line string) (types.Signature, error) {
	text := strings.TrimRight(line, "\r\n")

	protected := strings.ReplaceAll(line, `\ `, `\x20`)
	fields := strings.Fields(protected)
	if len(fields) < 3 {
		return types.Signature{}, &ParseError{Text: text, Err: ErrTooFewFields}
	}

	offset, err := strconv.ParseInt(fields[0], 0, 64)
	if err != nil {
		return types.Signature{}, &ParseError{Text: text, Err: fmt.Errorf("offset %q: %w", fields[0], err)}
	}

	decoded, err := Unescape(fields[2])
	if err != nil {
		return types.Signature{}, &ParseError{Text: text, Err: fmt.Errorf("condition %q: %w", fields[2], err)}
	}

	sig := types.Signature{
		Offset:      offset,
		Type:        fields[1],
		Description: strings.Join(fields[3:], " "),
	}

	// Textual entries and the wildcard keep their decoded bytes as-is.
	if strings.Contains(sig.Type, "string") || string(decoded) == wildcardToken {
		if string(decoded) == wildcardToken {
			sig.Condition = types.Wildcard()
		} else {
			sig.Condition = types.Literal(decoded)
		}
		sig.Length = len(decoded)
		return sig, nil
	}

	// Numeric entries render their value into exactly width bytes.
	if strings.HasPrefix(sig.Type, "be") {
		sig.Endianness = types.BigEndian
	}

	width, ok := typeWidth(sig.Type)
	if !ok {
		return types.Signature{}, &ParseError{Text: text, Err: fmt.Errorf("%q: %w", sig.Type, ErrUnsupportedType)}
	}
	sig.Length = width

	value, err := parseValue(strings.TrimRight(string(decoded), "L"))
	if err != nil {
		return types.Signature{}, &ParseError{Text: text, Err: fmt.Errorf("condition %q: %w", fields[2], err)}
	}

	sig.Condition = types.Literal(EncodeValue(value, width, sig.Endianness))
	return sig, nil
}

// ===== HELPERS =====

// typeWidth maps numeric type keywords to their byte widths.
func typeWidth(typ string) (int, bool) {
	switch {
	case typ == "byte":
		return 1, true
	case strings.Contains(typ, "short"):
		return 2, true
	case strings.Contains(typ, "long"):
		return 4, true
	case strings.Contains(typ, "quad"):
		return 8, true
	}
	return 0, false
}

// parseValue parses a numeric condition literal in decimal, hex, or octal
// form. Negative values are accepted and truncate through the encoder the
// same way the masking arithmetic would.
func parseValue(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err == nil {
		return v, nil
	}
	if n, err2 := strconv.ParseInt(s, 0, 64); err2 == nil {
		return uint64(n), nil
	}
	return 0, err
}
