package catalog

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/magus/pkg/filter"
	"github.com/praetorian-inc/magus/pkg/magic"
	"github.com/praetorian-inc/magus/pkg/types"
)

// includePattern builds a filter engine or fails the test.
func includePattern(t *testing.T, cfg filter.Config) filter.Filter {
	t.Helper()
	f, err := filter.New(cfg)
	require.NoError(t, err)
	return f
}

func TestStreamCopiesIncludedLinesVerbatim(t *testing.T) {
	input := "# leading comment drops\n" +
		"0\tstring\thsqs\tSquashfs filesystem\n" +
		">28\tleshort\tx\tversion %d\n" +
		"\n" +
		"0\tstring\tJPEG\tJPEG image data\n" +
		">2\tbyte\tx\tmarker\n" +
		"0 beshort 0x1985 JFFS2 filesystem\n"

	s := New(WithFilter(includePattern(t, filter.Config{Exclude: []string{"jpeg"}})))
	load(t, s, input)

	want := "0\tstring\thsqs\tSquashfs filesystem\n" +
		">28\tleshort\tx\tversion %d\n" +
		"\n" +
		"0 beshort 0x1985 JFFS2 filesystem\n"
	assert.Equal(t, want, string(s.Stream()))
	assert.Equal(t, 2, s.SignatureCount())
}

func TestStreamPreservesLineEndings(t *testing.T) {
	input := "0 string ustar tar archive\r\n>4 byte x mode\r\n"
	s := New()
	load(t, s, input)

	assert.Equal(t, input, string(s.Stream()))

	var sb strings.Builder
	n, err := s.WriteStream(&sb)
	require.NoError(t, err)
	assert.Equal(t, int64(len(input)), n)
	assert.Equal(t, input, sb.String())
}

func TestStreamLastLineWithoutNewline(t *testing.T) {
	s := New()
	load(t, s, "0 string PK zip data")
	assert.Equal(t, "0 string PK zip data", string(s.Stream()))
}

func TestParseErrorCarriesFileAndLine(t *testing.T) {
	input := "0 string PK zip data\n0 beshort 0xGG broken entry\n"

	s := New()
	err := s.LoadReader("broken.magic", strings.NewReader(input))
	require.Error(t, err)

	var perr *magic.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "broken.magic", perr.File)
	assert.Equal(t, 2, perr.Line)
	assert.Contains(t, err.Error(), "broken.magic:2")
}

func TestFailedLoadCommitsNothing(t *testing.T) {
	s := New()
	load(t, s, "0 string hsqs Squashfs filesystem\n")

	err := s.LoadReader("bad.magic", strings.NewReader("0 string PK zip\n0 ubyte 1 boom\n"))
	require.ErrorIs(t, err, magic.ErrUnsupportedType)

	// The failed file's clean first line must not leak in.
	assert.Equal(t, 1, s.SignatureCount())
	assert.Equal(t, "0 string hsqs Squashfs filesystem\n", string(s.Stream()))
	assert.Len(t, s.Catalog().ConditionsAt(0), 1)
}

func TestLoadFileMissing(t *testing.T) {
	s := New()
	err := s.LoadFile(filepath.Join(t.TempDir(), "absent.magic"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadSkipsUnreadableAndKeepsGoing(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.magic")
	require.NoError(t, os.WriteFile(good, []byte("0 string hsqs Squashfs filesystem\n"), 0o644))

	var warnings []string
	s := New(WithLogFunc(func(format string, args ...interface{}) {
		warnings = append(warnings, format)
	}))

	err := s.Load(filepath.Join(dir, "missing.magic"), good)
	require.NoError(t, err)
	assert.Equal(t, 1, s.SignatureCount())
	assert.Len(t, warnings, 1)
}

func TestLoadCollectsParseErrorsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.magic")
	good := filepath.Join(dir, "good.magic")
	require.NoError(t, os.WriteFile(bad, []byte("0 string\n"), 0o644))
	require.NoError(t, os.WriteFile(good, []byte("0 string BZh bzip2 compressed data\n"), 0o644))

	s := New()
	err := s.Load(bad, good)
	require.Error(t, err)
	assert.ErrorIs(t, err, magic.ErrTooFewFields)

	// The good file still loaded.
	assert.Equal(t, 1, s.SignatureCount())
}

func TestAddRaw(t *testing.T) {
	s := New()
	require.NoError(t, s.AddRaw(0, []byte("\x1f\x8b\x08"), "gzip header"))
	require.NoError(t, s.AddRaw(64, []byte("BOOT LOADER"), ""))

	cat := s.Catalog()
	assert.Equal(t, 2, s.SignatureCount())
	require.Len(t, cat.ConditionsAt(0), 1)
	assert.Equal(t, []byte{0x1f, 0x8b, 0x08}, cat.ConditionsAt(0)[0].Value)

	// Spaces survive the synthetic line's tokenization.
	require.Len(t, cat.ConditionsAt(64), 1)
	assert.Equal(t, []byte("BOOT LOADER"), cat.ConditionsAt(64)[0].Value)

	assert.Error(t, s.AddRaw(0, nil, "empty"))
}

func TestAddRawRespectsFilter(t *testing.T) {
	s := New(WithFilter(includePattern(t, filter.Config{Exclude: []string{"raw"}})))
	require.NoError(t, s.AddRaw(0, []byte("PK"), ""))
	assert.Zero(t, s.SignatureCount(), "default description matches the exclude pattern")
}

func TestLoadBuiltin(t *testing.T) {
	s := New()
	require.NoError(t, s.LoadBuiltin())

	assert.Greater(t, s.SignatureCount(), 40)
	assert.NotEmpty(t, s.Stream())

	// Spot-check a few well-known entries landed.
	var found bool
	for _, c := range s.Catalog().ConditionsAt(0) {
		if string(c.Value) == "hsqs" {
			found = true
		}
	}
	assert.True(t, found, "builtin squashfs signature missing")
}

func TestLoadBuiltinWithFilter(t *testing.T) {
	all := New()
	require.NoError(t, all.LoadBuiltin())

	some := New(WithFilter(includePattern(t, filter.Config{Include: []string{"filesystem"}})))
	require.NoError(t, some.LoadBuiltin())

	assert.Less(t, some.SignatureCount(), all.SignatureCount())
	assert.Greater(t, some.SignatureCount(), 0)
}

func TestScenarioSingleEntry(t *testing.T) {
	s := New()
	load(t, s, "16\tbeshort\t0xCAFE\tmach-o\n")

	assert.Equal(t, 1, s.SignatureCount())
	conds := s.Catalog().ConditionsAt(16)
	require.Len(t, conds, 1)
	assert.Equal(t, types.KindLiteral, conds[0].Kind)
	assert.Equal(t, []byte{0xca, 0xfe}, conds[0].Value)
}
