package store

import (
	"fmt"

	"github.com/praetorian-inc/magus/pkg/types"
)

// Store provides persistence for scan results.
// This interface abstracts the underlying storage implementation,
// allowing for different backends (SQLite, in-memory, etc.).
type Store interface {
	// AddTarget stores a scanned target record.
	AddTarget(tgt types.Target) error

	// AddCandidates stores candidate offsets for a target (deduplicated).
	AddCandidates(id types.TargetID, offsets []int64) error

	// Candidates retrieves the candidate offsets for a target, ascending.
	Candidates(id types.TargetID) ([]int64, error)

	// Targets retrieves all scanned targets.
	Targets() ([]types.Target, error)

	// TargetExists checks if a target has already been scanned.
	TargetExists(id types.TargetID) (bool, error)

	// Summary reports aggregate counts for reporting.
	Summary() (*Summary, error)

	// Close closes the database connection.
	Close() error
}

// Summary holds aggregate counts across the whole store.
type Summary struct {
	Targets    int `json:"targets"`
	Candidates int `json:"candidates"`
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store (useful for testing).
	Path string
}

// New creates a Store. ":memory:" selects the in-memory backend; any
// other path selects the build's persistent backend.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path == ":memory:" {
		return NewMemory(), nil
	}

	return newBackend(cfg)
}
