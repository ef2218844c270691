package magic

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/magus/pkg/types"
)

func TestIsEntryLine(t *testing.T) {
	assert.True(t, IsEntryLine("0\tstring\tPK\tZip archive"))
	assert.True(t, IsEntryLine("257 string ustar tar archive"))
	assert.False(t, IsEntryLine("# comment"))
	assert.False(t, IsEntryLine(">4 byte x version %d"))
	assert.False(t, IsEntryLine(""))
	assert.False(t, IsEntryLine("\n"))
}

func TestParseLineNumeric(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		offset    int64
		length    int
		endian    types.Endianness
		condition []byte
		desc      string
	}{
		{
			name:      "big endian short",
			line:      "16\tbeshort\t0xCAFE\tmach-o executable",
			offset:    16,
			length:    2,
			endian:    types.BigEndian,
			condition: []byte{0xca, 0xfe},
			desc:      "mach-o executable",
		},
		{
			name:      "little endian long",
			line:      "0\tlelong\t0x28cd3d45\tLinux Compressed ROM filesystem",
			offset:    0,
			length:    4,
			endian:    types.LittleEndian,
			condition: []byte{0x45, 0x3d, 0xcd, 0x28},
			desc:      "Linux Compressed ROM filesystem",
		},
		{
			name:      "bare short defaults little",
			line:      "0 short 0x1985 jffs2 filesystem",
			offset:    0,
			length:    2,
			endian:    types.LittleEndian,
			condition: []byte{0x85, 0x19},
			desc:      "jffs2 filesystem",
		},
		{
			name:      "byte width",
			line:      "0 byte 0x27 header byte",
			offset:    0,
			length:    1,
			condition: []byte{0x27},
			desc:      "header byte",
		},
		{
			name:      "big endian quad",
			line:      "8 bequad 0x0102030405060708 test pattern",
			offset:    8,
			length:    8,
			endian:    types.BigEndian,
			condition: []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
			desc:      "test pattern",
		},
		{
			name:      "trailing long suffix stripped",
			line:      "0 belong 0xd00dfeedL device tree blob",
			offset:    0,
			length:    4,
			endian:    types.BigEndian,
			condition: []byte{0xd0, 0x0d, 0xfe, 0xed},
			desc:      "device tree blob",
		},
		{
			name:      "decimal and octal offsets",
			line:      "0x10 beshort 0777 octal condition",
			offset:    16,
			length:    2,
			endian:    types.BigEndian,
			condition: []byte{0x01, 0xff},
			desc:      "octal condition",
		},
		{
			name:      "empty description allowed",
			line:      "4 leshort 7",
			offset:    4,
			length:    2,
			condition: []byte{0x07, 0x00},
			desc:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := ParseLine(tt.line)
			require.NoError(t, err)

			assert.Equal(t, tt.offset, sig.Offset)
			assert.Equal(t, tt.length, sig.Length)
			assert.Equal(t, tt.endian, sig.Endianness)
			assert.Equal(t, types.KindLiteral, sig.Condition.Kind)
			assert.Equal(t, tt.condition, sig.Condition.Value)
			assert.Equal(t, tt.desc, sig.Description)
		})
	}
}

func TestParseLineString(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		offset    int64
		condition []byte
		length    int
		desc      string
	}{
		{
			name:      "plain string",
			line:      "0\tstring\tustar\tPOSIX tar archive",
			offset:    0,
			condition: []byte("ustar"),
			length:    5,
			desc:      "POSIX tar archive",
		},
		{
			name:      "hex escapes decode",
			line:      `0 string \x1f\x8b\x08 gzip compressed data`,
			offset:    0,
			condition: []byte{0x1f, 0x8b, 0x08},
			length:    3,
			desc:      "gzip compressed data",
		},
		{
			name:      "escaped space keeps one token",
			line:      `0 string BOOT\ LOADER boot partition`,
			offset:    0,
			condition: []byte("BOOT LOADER"),
			length:    11,
			desc:      "boot partition",
		},
		{
			name:      "bestring16 still textual",
			line:      "0 bestring16 AB wide string",
			offset:    0,
			condition: []byte("AB"),
			length:    2,
			desc:      "wide string",
		},
		{
			name:      "multi word description joined",
			line:      "0 string 7z 7-zip archive data, version",
			offset:    0,
			condition: []byte("7z"),
			length:    2,
			desc:      "7-zip archive data, version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := ParseLine(tt.line)
			require.NoError(t, err)

			assert.Equal(t, tt.offset, sig.Offset)
			assert.Equal(t, types.KindLiteral, sig.Condition.Kind)
			assert.Equal(t, tt.condition, sig.Condition.Value)
			assert.Equal(t, tt.length, sig.Length)
			assert.Equal(t, tt.desc, sig.Description)
		})
	}
}

func TestParseLineWildcard(t *testing.T) {
	// The wildcard check runs on the decoded condition, so both string and
	// numeric type keywords can carry it.
	for _, line := range []string{
		"0\tstring\tx\tdata",
		"0 lelong x raw value",
	} {
		sig, err := ParseLine(line)
		require.NoError(t, err)
		assert.True(t, sig.Condition.IsWildcard(), "line %q", line)
		assert.Equal(t, 1, sig.Length)
	}

	// A longer token containing x stays literal.
	sig, err := ParseLine("0 string xy not a wildcard")
	require.NoError(t, err)
	assert.False(t, sig.Condition.IsWildcard())
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{
			name: "two fields only",
			line: "0 string",
			want: ErrTooFewFields,
		},
		{
			name: "unsupported numeric type",
			line: "0 ubyte 5 unsigned byte entry",
			want: ErrUnsupportedType,
		},
		{
			name: "unsupported bebyte type",
			line: "0 bebyte 5 endian byte entry",
			want: ErrUnsupportedType,
		},
		{
			name: "bad escape in condition",
			line: `0 string \xgg broken escape`,
			want: ErrBadEscape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine(tt.line)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.NotEmpty(t, perr.Text)
		})
	}
}

func TestParseLineIntegerErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "offset not a number", line: "0xZZ string PK zip"},
		{name: "numeric condition garbage", line: "0 beshort 0xGG nonsense"},
		{name: "numeric condition words", line: "0 lelong notanumber junk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine(tt.line)
			require.Error(t, err)

			var numErr *strconv.NumError
			assert.True(t, errors.As(err, &numErr), "want a strconv failure, got %v", err)
		})
	}
}

func TestParseLineNegativeCondition(t *testing.T) {
	sig, err := ParseLine("0 leshort -1 all ones")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xff}, sig.Condition.Value)
}
