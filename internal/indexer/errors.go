package indexer

import (
	"errors"
	"fmt"
)

var (
	// ErrFileTimeout indicates a file exceeded its extraction budget.
	ErrFileTimeout = errors.New("file extraction timed out")

	// ErrBinaryFile indicates a file that looks binary (NUL in the first block).
	ErrBinaryFile = errors.New("binary content")

	// ErrInvalidUTF8 indicates a file that is not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")

	// ErrUnknownFormat indicates an output format the writer does not support.
	ErrUnknownFormat = errors.New("unknown output format")
)

// InvalidRootError reports a project root that is missing or not a directory.
type InvalidRootError struct {
	Path string
	Err  error
}

func (e *InvalidRootError) Error() string {
	return fmt.Sprintf("invalid project root %s: %v", e.Path, e.Err)
}

func (e *InvalidRootError) Unwrap() error {
	return e.Err
}

// PerFileReadError reports a file that could not be read as text.
type PerFileReadError struct {
	Path string
	Err  error
}

func (e *PerFileReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *PerFileReadError) Unwrap() error {
	return e.Err
}

// PerFileSyntaxError reports a file whose tree contained errors. When Partial
// is set the valid parts of the file were still indexed.
type PerFileSyntaxError struct {
	Path    string
	Partial bool
	Err     error
}

func (e *PerFileSyntaxError) Error() string {
	if e.Partial {
		return fmt.Sprintf("syntax errors in %s (indexed partially): %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *PerFileSyntaxError) Unwrap() error {
	return e.Err
}

// WriteError reports a failure to serialize or persist the final index.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write index %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
