package storage

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Run is one row of the runs table.
type Run struct {
	RunID            string
	Root             string
	FileCount        int
	DeclarationCount int
	CreatedAt        string
}

// Declaration is one row of the declarations table.
type Declaration struct {
	FilePath string
	Ordinal  int
	Kind     string
	Name     string
	Line     int
	Scope    string // "" when the declaration is at file level
	Payload  string
}

// IndexReader queries runs written by IndexWriter.
type IndexReader struct {
	db *sql.DB
}

// NewIndexReader creates an IndexReader instance.
func NewIndexReader(db *sql.DB) *IndexReader {
	return &IndexReader{db: db}
}

// LatestRun returns the most recent run, or nil when the database is empty.
func (r *IndexReader) LatestRun() (*Run, error) {
	row := sq.Select("run_id", "root", "file_count", "declaration_count", "created_at").
		From("runs").
		OrderBy("created_at DESC", "rowid DESC").
		Limit(1).
		RunWith(r.db).
		QueryRow()

	var run Run
	err := row.Scan(&run.RunID, &run.Root, &run.FileCount, &run.DeclarationCount, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return &run, nil
}

// FilePaths returns the paths stored for a run in sorted order.
func (r *IndexReader) FilePaths(runID string) ([]string, error) {
	rows, err := sq.Select("file_path").
		From("files").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("file_path").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// FileDeclarations returns the declarations of one file in emission order.
func (r *IndexReader) FileDeclarations(runID, filePath string) ([]Declaration, error) {
	return r.queryDeclarations(sq.Eq{"run_id": runID, "file_path": filePath})
}

// FindByName returns every declaration of a run with the given name.
func (r *IndexReader) FindByName(runID, name string) ([]Declaration, error) {
	return r.queryDeclarations(sq.Eq{"run_id": runID, "name": name})
}

func (r *IndexReader) queryDeclarations(where sq.Eq) ([]Declaration, error) {
	rows, err := sq.Select("file_path", "ordinal", "kind", "name", "line", "scope", "payload").
		From("declarations").
		Where(where).
		OrderBy("file_path", "ordinal").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query declarations: %w", err)
	}
	defer rows.Close()

	var decls []Declaration
	for rows.Next() {
		var d Declaration
		var scope sql.NullString
		if err := rows.Scan(&d.FilePath, &d.Ordinal, &d.Kind, &d.Name, &d.Line, &scope, &d.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan declaration: %w", err)
		}
		d.Scope = scope.String
		decls = append(decls, d)
	}
	return decls, rows.Err()
}
