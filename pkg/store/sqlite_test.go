//go:build !wasm

package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/magus/pkg/types"
)

func TestSQLite_RoundTrip(t *testing.T) {
	// Arrange
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	defer s.Close()

	content := []byte("\x1f\x8b\x08 gzip header")
	tgt := types.Target{
		ID:   types.ComputeTargetID(content),
		Path: "images/rootfs.img",
		Size: int64(len(content)),
	}

	// Act
	err = s.AddTarget(tgt)
	require.NoError(t, err)

	err = s.AddCandidates(tgt.ID, []int64{0, 512, 64})
	require.NoError(t, err)

	// Assert - ordered retrieval
	offsets, err := s.Candidates(tgt.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 64, 512}, offsets)

	targets, err := s.Targets()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, tgt, targets[0])

	exists, err := s.TargetExists(tgt.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSQLite_CandidateDedup(t *testing.T) {
	// Arrange
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	id := types.ComputeTargetID([]byte("dedup me"))
	err = s.AddTarget(types.Target{ID: id, Path: "a.bin", Size: 8})
	require.NoError(t, err)

	// Act - insert overlapping batches
	err = s.AddCandidates(id, []int64{1, 2, 3})
	require.NoError(t, err)
	err = s.AddCandidates(id, []int64{2, 3, 4})
	require.NoError(t, err)

	// Assert
	offsets, err := s.Candidates(id)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, offsets)

	sum, err := s.Summary()
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Candidates)
}

func TestSQLite_AddTarget_Duplicate(t *testing.T) {
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	tgt := types.Target{ID: types.ComputeTargetID([]byte("x")), Path: "x.bin", Size: 1}

	err = s.AddTarget(tgt)
	require.NoError(t, err)
	err = s.AddTarget(tgt)
	require.NoError(t, err)

	sum, err := s.Summary()
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Targets)
}

func TestSQLite_EmptyOffsets(t *testing.T) {
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	id := types.ComputeTargetID([]byte("nothing found"))
	err = s.AddCandidates(id, nil)
	assert.NoError(t, err)

	offsets, err := s.Candidates(id)
	require.NoError(t, err)
	assert.Empty(t, offsets)
}

func TestSQLite_Persistence(t *testing.T) {
	// Arrange
	dbPath := filepath.Join(t.TempDir(), "persist.db")

	s, err := NewSQLite(dbPath)
	require.NoError(t, err)

	id := types.ComputeTargetID([]byte("persist"))
	require.NoError(t, s.AddTarget(types.Target{ID: id, Path: "p.bin", Size: 7}))
	require.NoError(t, s.AddCandidates(id, []int64{7, 49}))
	require.NoError(t, s.Close())

	// Act - reopen
	reopened, err := NewSQLite(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	// Assert
	offsets, err := reopened.Candidates(id)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 49}, offsets)

	exists, err := reopened.TargetExists(id)
	require.NoError(t, err)
	assert.True(t, exists)
}
