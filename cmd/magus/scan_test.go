package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMagicDefs = "0\tstring\tPK\\x03\\x04\tZip archive data\n" +
	"0\tstring\thsqs\tSquashfs filesystem, little endian\n"

// writeMagicFile drops a definition file into dir and returns its path.
func writeMagicFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "test.magic")
	require.NoError(t, os.WriteFile(path, []byte(testMagicDefs), 0644))
	return path
}

func resetScanFlags() {
	scanMagicPaths = nil
	scanInclude = ""
	scanExclude = ""
	scanPolicyPath = ""
	scanOutputPath = "magus.db"
	scanOutputFormat = "human"
	scanBound = 0
	scanChunkSize = 0
	scanMaxFileSize = 10 * 1024 * 1024
	scanIncludeHidden = false
	scanArchives = ""
	scanIncremental = false
}

func TestRunScan(t *testing.T) {
	// Create a temporary directory with a test file
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "update.zip")
	err := os.WriteFile(testFile, []byte("....PK\x03\x04...."), 0644)
	require.NoError(t, err)

	magicFile := writeMagicFile(t, t.TempDir())

	// Create a buffer to capture output
	var buf bytes.Buffer

	// Create a test command with our buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	// Reset flags for test
	resetScanFlags()
	scanMagicPaths = []string{magicFile}
	scanOutputPath = filepath.Join(tmpDir, "scan.db")

	// Execute scan command
	err = runScan(cmd, []string{tmpDir})
	require.NoError(t, err)

	// Verify database was created
	_, err = os.Stat(scanOutputPath)
	assert.NoError(t, err, "database file should be created")

	output := buf.String()
	assert.Contains(t, output, "Scan complete:")
	assert.Contains(t, output, "update.zip")
	assert.Contains(t, output, "0x4")
}

func TestRunScanInvalidTarget(t *testing.T) {
	// Create a buffer to capture output
	var buf bytes.Buffer

	// Create a test command with our buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	// Reset flags for test
	resetScanFlags()
	scanOutputPath = ":memory:"

	// Execute scan command with nonexistent target
	err := runScan(cmd, []string{"/nonexistent/path"})
	assert.Error(t, err, "should error on nonexistent target")
}

func TestRunScanJSONFormat(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "rootfs.img")
	require.NoError(t, os.WriteFile(testFile, []byte("hsqs....hsqs"), 0644))

	magicFile := writeMagicFile(t, t.TempDir())

	var buf bytes.Buffer
	var errBuf bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetErr(&errBuf)

	resetScanFlags()
	scanMagicPaths = []string{magicFile}
	scanOutputPath = ":memory:"
	scanOutputFormat = "json"

	err := runScan(cmd, []string{testFile})
	require.NoError(t, err)

	// JSON goes to stdout, the summary to stderr
	assert.Contains(t, buf.String(), `"candidates"`)
	assert.Contains(t, buf.String(), "rootfs.img")
	assert.Contains(t, errBuf.String(), "Scan complete:")
}

func TestRunScanBound(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "rootfs.img")
	require.NoError(t, os.WriteFile(testFile, []byte("....hsqs....hsqs"), 0644))

	magicFile := writeMagicFile(t, t.TempDir())

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	resetScanFlags()
	scanMagicPaths = []string{magicFile}
	scanOutputPath = ":memory:"
	scanBound = 8 // excludes the match at offset 12

	err := runScan(cmd, []string{testFile})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "1 candidates")
}

func TestRunScanIncremental(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "update.zip")
	require.NoError(t, os.WriteFile(testFile, []byte("PK\x03\x04....."), 0644))

	magicFile := writeMagicFile(t, t.TempDir())
	dbPath := filepath.Join(tmpDir, "scan.db")

	// First scan populates the database
	resetScanFlags()
	scanMagicPaths = []string{magicFile}
	scanOutputPath = dbPath

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, runScan(cmd, []string{testFile}))

	// Second scan with --incremental skips the unchanged target
	var buf bytes.Buffer
	cmd = &cobra.Command{}
	cmd.SetOut(&buf)

	scanIncremental = true
	require.NoError(t, runScan(cmd, []string{testFile}))

	assert.Contains(t, buf.String(), "1 targets skipped")
}

func TestRunScanExcludeFilter(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "update.zip")
	require.NoError(t, os.WriteFile(testFile, []byte("PK\x03\x04....."), 0644))

	magicFile := writeMagicFile(t, t.TempDir())

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	resetScanFlags()
	scanMagicPaths = []string{magicFile}
	scanOutputPath = ":memory:"
	scanExclude = "zip"

	err := runScan(cmd, []string{testFile})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "No candidates.")
}

func TestFormatOffsets(t *testing.T) {
	assert.Equal(t, "[]", formatOffsets(nil, 8))
	assert.Equal(t, "[0x0 0x200]", formatOffsets([]int64{0, 512}, 8))
	assert.Equal(t, "[0x0 0x1 ... +2 more]", formatOffsets([]int64{0, 1, 2, 3}, 2))
}
