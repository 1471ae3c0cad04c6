package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is the version written to index_metadata.
const SchemaVersion = "1.0"

// Open opens (or creates) an index database at path and ensures the schema
// exists. Foreign keys are enabled on the connection.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	// A single connection keeps PRAGMAs and :memory: databases consistent.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// CreateSchema creates all tables and indexes of the index database.
// Uses transactions for atomicity - all schema creation succeeds or fails together.
// Re-running it on an existing database is a no-op apart from the
// metadata refresh, so successive runs accumulate in one file.
//
// Schema includes:
//   - runs: one row per indexing run
//   - files: the indexed paths of a run
//   - declarations: one row per extracted record
//   - index_metadata: schema version bookkeeping
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Enable foreign keys (must be set for each connection)
	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Create all tables in dependency order
	tables := []struct {
		name string
		ddl  string
	}{
		{"runs", createRunsTable},
		{"files", createFilesTable},
		{"declarations", createDeclarationsTable},
		{"index_metadata", createIndexMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range allIndexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	bootstrapSQL := `
		INSERT INTO index_metadata (key, value, updated_at)
		VALUES ('schema_version', ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := tx.Exec(bootstrapSQL, SchemaVersion, now); err != nil {
		return fmt.Errorf("failed to bootstrap index_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}

	return nil
}

// GetSchemaVersion retrieves the schema version from index_metadata.
// Returns "0" if the table doesn't exist (new database).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='index_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check index_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM index_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in index_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// Table DDL constants

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,                     -- UUID
    root TEXT NOT NULL,                          -- Absolute project root
    file_count INTEGER NOT NULL DEFAULT 0,
    declaration_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL                     -- ISO 8601
)`

const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
    run_id TEXT NOT NULL,
    file_path TEXT NOT NULL,                     -- Relative slash path from root
    language TEXT NOT NULL,                      -- Language tag
    markup_only INTEGER NOT NULL DEFAULT 0,      -- Boolean: recorded by path only
    PRIMARY KEY (run_id, file_path),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
)`

const createDeclarationsTable = `
CREATE TABLE IF NOT EXISTS declarations (
    declaration_id TEXT PRIMARY KEY,             -- UUID
    run_id TEXT NOT NULL,
    file_path TEXT NOT NULL,
    ordinal INTEGER NOT NULL,                    -- Emission order within the file
    kind TEXT NOT NULL,                          -- class, struct, function, ...
    name TEXT NOT NULL,
    line INTEGER NOT NULL,                       -- 1-based anchor line
    scope TEXT,                                  -- Enclosing type or namespace, NULL at file level
    payload TEXT NOT NULL,                       -- Record as rendered in the structured index
    FOREIGN KEY (run_id, file_path) REFERENCES files(run_id, file_path) ON DELETE CASCADE
)`

const createIndexMetadataTable = `
CREATE TABLE IF NOT EXISTS index_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

var allIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_declarations_name ON declarations(name)",
	"CREATE INDEX IF NOT EXISTS idx_declarations_file ON declarations(run_id, file_path)",
	"CREATE INDEX IF NOT EXISTS idx_declarations_kind ON declarations(run_id, kind)",
	"CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)",
}
