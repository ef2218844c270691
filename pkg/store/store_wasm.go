//go:build wasm

package store

// newBackend falls back to the in-memory store: WASM builds have no
// filesystem for SQLite, so cfg.Path is ignored.
func newBackend(cfg Config) (Store, error) {
	return NewMemory(), nil
}
