//go:build !wasm

package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackendSelection(t *testing.T) {
	t.Run("memory path", func(t *testing.T) {
		s, err := New(Config{Path: ":memory:"})
		require.NoError(t, err)
		defer s.Close()

		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("file path", func(t *testing.T) {
		s, err := New(Config{Path: filepath.Join(t.TempDir(), "magus.db")})
		require.NoError(t, err)
		defer s.Close()

		assert.IsType(t, &SQLiteStore{}, s)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "path is required")
	})
}
