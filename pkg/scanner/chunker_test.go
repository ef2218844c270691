package scanner

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/magus/pkg/prefilter"
	"github.com/praetorian-inc/magus/pkg/types"
)

func TestScanChunked_MatchesSingleShot(t *testing.T) {
	set, err := prefilter.Compile([]types.Condition{
		types.Literal([]byte("PK\x03\x04")),
		types.Literal([]byte("ustar")),
		types.Literal([]byte("aa")),
	})
	require.NoError(t, err)
	defer set.Close()

	// Matches placed to straddle small chunk boundaries.
	buf := bytes.Join([][]byte{
		[]byte("PK\x03\x04"),
		bytes.Repeat([]byte("."), 13),
		[]byte("aaa"),
		bytes.Repeat([]byte("."), 5),
		[]byte("ustar"),
		[]byte("PK\x03\x04"),
	}, nil)

	want, err := set.FindCandidates(buf, len(buf))
	require.NoError(t, err)
	require.NotEmpty(t, want)

	for _, chunkSize := range []int{1, 2, 3, 5, 7, 16, len(buf), len(buf) * 2} {
		got, err := ScanChunked(set, buf, len(buf), chunkSize)
		require.NoError(t, err)
		assert.Equal(t, want, got, "chunk size %d", chunkSize)
	}
}

func TestScanChunked_Bound(t *testing.T) {
	set, err := prefilter.Compile([]types.Condition{types.Literal([]byte("PK"))})
	require.NoError(t, err)
	defer set.Close()

	buf := []byte("PK..PK..PK") // matches at 0, 4, 8

	for _, chunkSize := range []int{1, 3, 4, 100} {
		got, err := ScanChunked(set, buf, 8, chunkSize)
		require.NoError(t, err)
		assert.Equal(t, []int64{0, 4}, got, "chunk size %d", chunkSize)

		got, err = ScanChunked(set, buf, 0, chunkSize)
		require.NoError(t, err)
		assert.Empty(t, got, "chunk size %d", chunkSize)
	}
}

func TestScanChunked_BoundaryStraddle(t *testing.T) {
	// A match that starts in one chunk and ends in the next must still be
	// seen through the overlap.
	set, err := prefilter.Compile([]types.Condition{types.Literal([]byte("hsqs"))})
	require.NoError(t, err)
	defer set.Close()

	buf := []byte("......hsqs....")
	got, err := ScanChunked(set, buf, len(buf), 8) // "hsqs" spans bytes 6-9
	require.NoError(t, err)
	assert.Equal(t, []int64{6}, got)
}

func TestScanChunked_Wildcard(t *testing.T) {
	set, err := prefilter.Compile([]types.Condition{types.Wildcard()})
	require.NoError(t, err)
	defer set.Close()

	buf := []byte("abcdef")
	for _, chunkSize := range []int{1, 2, 4, 100} {
		got, err := ScanChunked(set, buf, 4, chunkSize)
		require.NoError(t, err)
		assert.Equal(t, []int64{0, 1, 2, 3}, got, "chunk size %d", chunkSize)
	}
}

func TestScanChunked_EmptySet(t *testing.T) {
	set, err := prefilter.Compile(nil)
	require.NoError(t, err)
	defer set.Close()

	got, err := ScanChunked(set, []byte("whatever"), 8, 2)
	require.NoError(t, err)
	assert.Empty(t, got)
}
