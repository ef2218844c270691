//go:build !wasm

package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/praetorian-inc/magus/pkg/types"
)

// SQLiteStore implements Store using SQLite through the pure-Go driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for an in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single connection: SQLite permits one writer, and a pooled second
	// connection to ":memory:" would see a different database entirely.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// dsn decorates file paths with the pragmas every connection needs.
func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// AddTarget stores a scanned target record.
func (s *SQLiteStore) AddTarget(tgt types.Target) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO targets (id, path, size) VALUES (?, ?, ?)",
		tgt.ID.Hex(), tgt.Path, tgt.Size,
	)
	if err != nil {
		return fmt.Errorf("inserting target: %w", err)
	}
	return nil
}

// AddCandidates stores candidate offsets for a target. Re-inserting an
// offset is a no-op, so re-scanning a target is idempotent.
func (s *SQLiteStore) AddCandidates(id types.TargetID, offsets []int64) error {
	if len(offsets) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO candidates (target_id, byte_offset) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, off := range offsets {
		if _, err := stmt.Exec(id.Hex(), off); err != nil {
			return fmt.Errorf("inserting candidate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Candidates retrieves the candidate offsets for a target, ascending.
func (s *SQLiteStore) Candidates(id types.TargetID) ([]int64, error) {
	rows, err := s.db.Query(
		"SELECT byte_offset FROM candidates WHERE target_id = ? ORDER BY byte_offset",
		id.Hex(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var offsets []int64
	for rows.Next() {
		var off int64
		if err := rows.Scan(&off); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		offsets = append(offsets, off)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}

	return offsets, nil
}

// Targets retrieves all scanned targets.
func (s *SQLiteStore) Targets() ([]types.Target, error) {
	rows, err := s.db.Query("SELECT id, path, size FROM targets ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("querying targets: %w", err)
	}
	defer rows.Close()

	var targets []types.Target
	for rows.Next() {
		var tgt types.Target
		var idHex string

		if err := rows.Scan(&idHex, &tgt.Path, &tgt.Size); err != nil {
			return nil, fmt.Errorf("scanning target: %w", err)
		}

		id, err := types.ParseTargetID(idHex)
		if err != nil {
			return nil, fmt.Errorf("parsing target ID: %w", err)
		}
		tgt.ID = id

		targets = append(targets, tgt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating targets: %w", err)
	}

	return targets, nil
}

// TargetExists checks if a target has already been scanned.
func (s *SQLiteStore) TargetExists(id types.TargetID) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM targets WHERE id = ?", id.Hex()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking target existence: %w", err)
	}
	return count > 0, nil
}

// Summary reports aggregate counts for reporting.
func (s *SQLiteStore) Summary() (*Summary, error) {
	var sum Summary
	if err := s.db.QueryRow("SELECT COUNT(*) FROM targets").Scan(&sum.Targets); err != nil {
		return nil, fmt.Errorf("counting targets: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM candidates").Scan(&sum.Candidates); err != nil {
		return nil, fmt.Errorf("counting candidates: %w", err)
	}
	return &sum, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
