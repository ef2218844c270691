//go:build !wasm

package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// MergeConfig names the databases taking part in a merge.
type MergeConfig struct {
	// SourcePaths list the scan databases to read.
	SourcePaths []string
	// DestPath receives the combined rows.
	DestPath string
}

// MergeStats counts what a merge actually moved.
type MergeStats struct {
	TargetsMerged    int
	CandidatesMerged int
	SourcesProcessed int
}

// Merge combines several scan databases into one. Rows already present in
// the destination are skipped; the composite keys make the copy idempotent.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	dest, err := sql.Open("sqlite", dsn(cfg.DestPath))
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer dest.Close()
	dest.SetMaxOpenConns(1)

	if err := CreateSchema(dest); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	stats := &MergeStats{}
	for _, sourcePath := range cfg.SourcePaths {
		targets, candidates, err := mergeFrom(dest, sourcePath)
		if err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.TargetsMerged += targets
		stats.CandidatesMerged += candidates
		stats.SourcesProcessed++
	}
	return stats, nil
}

// mergeFrom copies one source database into the destination inside a single
// transaction.
func mergeFrom(dest *sql.DB, sourcePath string) (targets, candidates int, err error) {
	src, err := sql.Open("sqlite", dsn(sourcePath))
	if err != nil {
		return 0, 0, fmt.Errorf("opening source database: %w", err)
	}
	defer src.Close()
	src.SetMaxOpenConns(1)

	tx, err := dest.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	targets, err = copyTable(tx, src,
		"SELECT id, path, size FROM targets",
		"INSERT OR IGNORE INTO targets (id, path, size) VALUES (?, ?, ?)", 3)
	if err != nil {
		return 0, 0, fmt.Errorf("merging targets: %w", err)
	}

	candidates, err = copyTable(tx, src,
		"SELECT target_id, byte_offset FROM candidates",
		"INSERT OR IGNORE INTO candidates (target_id, byte_offset) VALUES (?, ?)", 2)
	if err != nil {
		return 0, 0, fmt.Errorf("merging candidates: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing transaction: %w", err)
	}
	return targets, candidates, nil
}

// copyTable streams rows of one table from src into the destination
// transaction, counting rows actually inserted (duplicates fall out of the
// INSERT OR IGNORE with zero rows affected).
func copyTable(tx *sql.Tx, src *sql.DB, selectSQL, insertSQL string, cols int) (int, error) {
	rows, err := src.Query(selectSQL)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	ins, err := tx.Prepare(insertSQL)
	if err != nil {
		return 0, err
	}
	defer ins.Close()

	vals := make([]any, cols)
	ptrs := make([]any, cols)
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	inserted := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return inserted, err
		}
		res, err := ins.Exec(vals...)
		if err != nil {
			return inserted, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, rows.Err()
}
