package indexer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	"github.com/mvp-joe/project-indexer/internal/storage"
)

// Output formats.
const (
	FormatStructured = "structured"
	FormatFlat       = "flat"
	FormatSQLite     = "sqlite"
)

// Formats lists the supported output formats.
var Formats = []string{FormatStructured, FormatFlat, FormatSQLite}

// AtomicWriter handles atomic file writing using temp → rename pattern.
// The temp file lives next to the destination so the rename never crosses
// file systems.
type AtomicWriter struct {
	path string
}

// NewAtomicWriter creates a writer for the destination path.
func NewAtomicWriter(path string) *AtomicWriter {
	return &AtomicWriter{path: path}
}

// Write replaces the destination with data.
func (w *AtomicWriter) Write(data []byte) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	// Rename to final location (atomic operation)
	if err := os.Rename(tempPath, w.path); err != nil {
		// Clean up temp file on error
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// WriteIndex serializes index in the given format to outputPath. root is
// recorded with SQLite runs. Failures are returned as *WriteError; the index
// itself is never modified.
func WriteIndex(index *extraction.ProjectIndex, format, outputPath, root string) error {
	var data []byte
	var err error

	switch format {
	case FormatStructured, "":
		data, err = EncodeStructured(index)
	case FormatFlat:
		data, err = EncodeFlat(index)
	case FormatSQLite:
		err = writeSQLite(index, outputPath, root)
		if err != nil {
			return &WriteError{Path: outputPath, Err: err}
		}
		return nil
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if err != nil {
		return &WriteError{Path: outputPath, Err: err}
	}

	if err := NewAtomicWriter(outputPath).Write(data); err != nil {
		return &WriteError{Path: outputPath, Err: err}
	}
	return nil
}

// EncodeStructured renders the path-keyed index with 4-space indentation.
func EncodeStructured(index *extraction.ProjectIndex) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(index); err != nil {
		return nil, fmt.Errorf("failed to marshal index: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeFlat renders a compact array of [name, path, scope] tuples for the
// type-like declarations of every file, with markup-only files as bare path
// strings. Files are in sorted order and declarations in source order.
func EncodeFlat(index *extraction.ProjectIndex) ([]byte, error) {
	entries := []any{}

	for _, path := range index.Paths() {
		result, _ := index.Get(path)
		if result.MarkupOnly {
			entries = append(entries, path)
			continue
		}

		var types []extraction.Record
		for _, rec := range result.All() {
			if rec.Kind.IsType() {
				types = append(types, rec)
			}
		}
		sort.SliceStable(types, func(i, j int) bool {
			if types[i].Line != types[j].Line {
				return types[i].Line < types[j].Line
			}
			return types[i].Offset < types[j].Offset
		})

		for _, rec := range types {
			var scope any
			if rec.Scope != "" {
				scope = rec.Scope
			}
			entries = append(entries, []any{rec.Name, path, scope})
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("failed to marshal flat index: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSQLite(index *extraction.ProjectIndex, outputPath, root string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	db, err := storage.Open(outputPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := storage.NewIndexWriter(db).WriteRun(root, index); err != nil {
		return err
	}
	return nil
}
