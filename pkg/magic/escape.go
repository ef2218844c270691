package magic

import "fmt"

// Unescape decodes the C-style escape sequences condition fields use:
// \\ \n \r \t \a \b \f \v \' \", \xHH (exactly two hex digits), and one to
// three octal digits. An unrecognized escape keeps the backslash and the
// following character verbatim, matching how definition files in the wild
// are interpreted.
func Unescape(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			i++
			continue
		}
		if i+1 >= len(s) {
			return nil, fmt.Errorf("%w: trailing backslash", ErrBadEscape)
		}

		e := s[i+1]
		switch {
		case e == 'n':
			out = append(out, '\n')
			i += 2
		case e == 'r':
			out = append(out, '\r')
			i += 2
		case e == 't':
			out = append(out, '\t')
			i += 2
		case e == 'a':
			out = append(out, '\a')
			i += 2
		case e == 'b':
			out = append(out, '\b')
			i += 2
		case e == 'f':
			out = append(out, '\f')
			i += 2
		case e == 'v':
			out = append(out, '\v')
			i += 2
		case e == '\\', e == '\'', e == '"':
			out = append(out, e)
			i += 2
		case e == 'x':
			if i+4 > len(s) {
				return nil, fmt.Errorf("%w: truncated \\x escape", ErrBadEscape)
			}
			hi, ok1 := unhex(s[i+2])
			lo, ok2 := unhex(s[i+3])
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("%w: \\x%c%c is not hex", ErrBadEscape, s[i+2], s[i+3])
			}
			out = append(out, hi<<4|lo)
			i += 4
		case e >= '0' && e <= '7':
			v := 0
			j := i + 1
			for ; j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7'; j++ {
				v = v<<3 | int(s[j]-'0')
			}
			out = append(out, byte(v))
			i = j
		default:
			out = append(out, '\\', e)
			i += 2
		}
	}
	return out, nil
}

// Escape renders raw bytes as a single definition-file token: backslash,
// whitespace, and non-printable bytes become escape sequences so the value
// survives tokenization and re-parses to the same bytes.
func Escape(value []byte) string {
	out := make([]byte, 0, len(value))
	for _, b := range value {
		switch {
		case b == '\\':
			out = append(out, '\\', '\\')
		case b == '\n':
			out = append(out, '\\', 'n')
		case b == '\r':
			out = append(out, '\\', 'r')
		case b == '\t':
			out = append(out, '\\', 't')
		case b > 0x20 && b < 0x7f:
			out = append(out, b)
		default:
			out = append(out, fmt.Sprintf("\\x%02x", b)...)
		}
	}
	return string(out)
}

// ===== HELPERS =====

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
