package store

import (
	"sort"
	"sync"

	"github.com/praetorian-inc/magus/pkg/types"
)

// MemoryStore implements Store using in-memory data structures.
// It backs ":memory:" paths on every platform and is the only backend
// available in WASM builds.
type MemoryStore struct {
	mu         sync.RWMutex
	targets    map[string]types.Target       // keyed by TargetID.Hex()
	candidates map[string]map[int64]struct{} // keyed by TargetID.Hex()
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		targets:    make(map[string]types.Target),
		candidates: make(map[string]map[int64]struct{}),
	}
}

// AddTarget stores a scanned target record. Re-adding is idempotent.
func (m *MemoryStore) AddTarget(tgt types.Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := tgt.ID.Hex()
	if _, exists := m.targets[key]; exists {
		return nil
	}

	m.targets[key] = tgt
	return nil
}

// AddCandidates stores candidate offsets for a target (deduplicated).
func (m *MemoryStore) AddCandidates(id types.TargetID, offsets []int64) error {
	if len(offsets) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := id.Hex()
	set := m.candidates[key]
	if set == nil {
		set = make(map[int64]struct{}, len(offsets))
		m.candidates[key] = set
	}
	for _, off := range offsets {
		set[off] = struct{}{}
	}
	return nil
}

// Candidates retrieves the candidate offsets for a target, ascending.
func (m *MemoryStore) Candidates(id types.TargetID) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.candidates[id.Hex()]
	if len(set) == 0 {
		return nil, nil
	}

	offsets := make([]int64, 0, len(set))
	for off := range set {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets, nil
}

// Targets retrieves all scanned targets, ordered by path.
func (m *MemoryStore) Targets() ([]types.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	targets := make([]types.Target, 0, len(m.targets))
	for _, tgt := range m.targets {
		targets = append(targets, tgt)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Path < targets[j].Path })
	return targets, nil
}

// TargetExists checks if a target has already been scanned.
func (m *MemoryStore) TargetExists(id types.TargetID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.targets[id.Hex()]
	return exists, nil
}

// Summary reports aggregate counts for reporting.
func (m *MemoryStore) Summary() (*Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := &Summary{Targets: len(m.targets)}
	for _, set := range m.candidates {
		sum.Candidates += len(set)
	}
	return sum, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
