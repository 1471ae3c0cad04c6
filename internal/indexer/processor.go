package indexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	"github.com/mvp-joe/project-indexer/internal/indexer/parsers"
)

// sniffSize is how many leading bytes are checked for NUL.
const sniffSize = 512

// processFile reads, validates and extracts one file. A non-nil result with
// a non-nil error is a partially indexed file.
func (w *Walker) processFile(ctx context.Context, file sourceFile) (*extraction.FileResult, bool, error) {
	extractor, ok := w.extractors.For(file.language)
	if !ok {
		return nil, false, fmt.Errorf("no extractor for %s: %w", file.relPath, grammar.ErrUnknownTag)
	}

	// Markup files are recorded by path without reading them.
	if file.language.IsMarkup() {
		result, err := extractor.Extract(ctx, file.relPath, nil)
		return result, false, err
	}

	content, err := readSource(file.path)
	if err != nil {
		return nil, false, &PerFileReadError{Path: file.relPath, Err: err}
	}

	key := cacheKey(content, file.language, w.imports)
	if cached, ok := w.cache.Get(key); ok {
		return cached, true, nil
	}

	result, err := w.extractWithTimeout(ctx, extractor, file.relPath, content)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTimeout), errors.Is(err, context.Canceled):
			return nil, false, err
		case errors.Is(err, grammar.ErrSyntax) && result != nil:
			return result, false, &PerFileSyntaxError{Path: file.relPath, Partial: true, Err: err}
		default:
			return nil, false, &PerFileSyntaxError{Path: file.relPath, Err: err}
		}
	}

	w.cache.Set(key, result)
	return result, false, nil
}

// extractOutcome carries an extraction result across goroutines.
type extractOutcome struct {
	result *extraction.FileResult
	err    error
}

// extractWithTimeout runs the extractor under the per-file budget. On expiry
// the extraction goroutine is abandoned; its result is discarded.
func (w *Walker) extractWithTimeout(ctx context.Context, extractor parsers.Extractor, relPath string, content []byte) (*extraction.FileResult, error) {
	fileCtx, cancel := context.WithTimeout(ctx, w.fileTimeout)
	defer cancel()

	done := make(chan extractOutcome, 1)
	go func() {
		result, err := extractor.Extract(fileCtx, relPath, content)
		done <- extractOutcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-fileCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s after %v: %w", relPath, w.fileTimeout, ErrFileTimeout)
	}
}

// readSource reads a file and rejects binary or non-UTF-8 content.
func readSource(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := checkText(content); err != nil {
		return nil, err
	}
	return content, nil
}

// checkText applies the NUL-byte heuristic used by tools like 'file' to the
// first block, then requires the whole content to be valid UTF-8.
func checkText(content []byte) error {
	head := content
	if len(head) > sniffSize {
		head = head[:sniffSize]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return ErrBinaryFile
	}
	if !utf8.Valid(content) {
		return ErrInvalidUTF8
	}
	return nil
}
