//go:build !wasm

package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// schemaDDL holds every table definition. The composite key on candidates
// makes inserts idempotent; offsets live in byte_offset because OFFSET is an
// SQL keyword.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS targets (
		id   TEXT PRIMARY KEY NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS candidates (
		target_id   TEXT NOT NULL REFERENCES targets(id),
		byte_offset INTEGER NOT NULL,
		PRIMARY KEY (target_id, byte_offset)
	) WITHOUT ROWID`,
}

// CreateSchema creates the tables if they don't exist and stamps the schema
// version on first creation.
func CreateSchema(db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return stampVersion(db)
}

func stampVersion(db *sql.DB) error {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
	return err
}
