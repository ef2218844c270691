//go:build !wasm

package store

// newBackend creates the persistent store for native builds. The SQLite
// driver is pure Go, so no CGO toggle is involved.
func newBackend(cfg Config) (Store, error) {
	return NewSQLite(cfg.Path)
}
