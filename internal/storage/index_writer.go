package storage

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
)

// IndexWriter persists a ProjectIndex as one run of the index database.
type IndexWriter struct {
	db  *sql.DB
	now func() time.Time
}

// NewIndexWriter creates an IndexWriter instance.
// DB must have schema already created via CreateSchema().
func NewIndexWriter(db *sql.DB) *IndexWriter {
	return &IndexWriter{db: db, now: time.Now}
}

// WriteRun stores every file and declaration of index under a new run id
// in a single transaction and returns the run id.
func (w *IndexWriter) WriteRun(root string, index *extraction.ProjectIndex) (string, error) {
	runID := uuid.New().String()

	tx, err := w.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	_, err = sq.Insert("runs").
		Columns("run_id", "root", "file_count", "declaration_count", "created_at").
		Values(runID, root, index.Len(), index.DeclarationCount(), w.now().UTC().Format(time.RFC3339)).
		RunWith(tx).
		Exec()
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	// Build the queries once with Squirrel, then prepare them
	fileSQL, _, err := sq.Insert("files").
		Columns("run_id", "file_path", "language", "markup_only").
		Values("", "", "", false).
		Options("OR REPLACE").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build SQL: %w", err)
	}
	declSQL, _, err := sq.Insert("declarations").
		Columns("declaration_id", "run_id", "file_path", "ordinal", "kind", "name", "line", "scope", "payload").
		Values("", "", "", 0, "", "", 0, nil, "").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build SQL: %w", err)
	}

	fileStmt, err := tx.Prepare(fileSQL)
	if err != nil {
		return "", fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer fileStmt.Close()

	declStmt, err := tx.Prepare(declSQL)
	if err != nil {
		return "", fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer declStmt.Close()

	for _, path := range index.Paths() {
		result, _ := index.Get(path)
		if _, err := fileStmt.Exec(runID, path, result.Language, result.MarkupOnly); err != nil {
			return "", fmt.Errorf("failed to insert file %s: %w", path, err)
		}

		for ordinal, rec := range result.All() {
			payload, err := encodePayload(rec)
			if err != nil {
				return "", fmt.Errorf("failed to encode %s in %s: %w", rec.Kind, path, err)
			}
			var scope any
			if rec.Scope != "" {
				scope = rec.Scope
			}
			_, err = declStmt.Exec(
				uuid.New().String(),
				runID,
				path,
				ordinal,
				rec.Kind.String(),
				rec.Name,
				rec.Line,
				scope,
				payload,
			)
			if err != nil {
				return "", fmt.Errorf("failed to insert %s %s in %s: %w", rec.Kind, rec.Name, path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return runID, nil
}

// encodePayload renders a record exactly as the structured JSON index does.
func encodePayload(rec extraction.Record) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
