package parsers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
)

// Extractor turns the content of one source file into a file result.
// Implementations are safe for concurrent use.
type Extractor interface {
	// Extract returns the declarations found in src. A result may come back
	// together with grammar.ErrSyntax when only part of the file parsed.
	Extract(ctx context.Context, relPath string, src []byte) (*extraction.FileResult, error)
}

// ErrRegistryClosed is returned by extractors used after Registry.Close.
var ErrRegistryClosed = errors.New("extractor registry closed")

// Go backend names.
const (
	GoBackendTreeSitter = "treesitter"
	GoBackendAST        = "goast"
)

// Options configures which declarations are extracted.
type Options struct {
	// Imports enables import and export extraction.
	Imports bool

	// GoBackend selects how Go files are parsed: GoBackendTreeSitter or
	// GoBackendAST.
	GoBackend string
}

// Registry maps each language tag to its extractor. It is built once and
// shared across workers.
type Registry struct {
	extractors map[grammar.Tag]Extractor
	compiled   []*CompiledCatalog

	// mu is held shared by every tree-sitter extraction and exclusively by
	// Close. Queries are freed only after running extractions, including
	// ones abandoned on timeout, have returned.
	mu     sync.RWMutex
	closed bool
}

// NewRegistry compiles the catalog of every loaded grammar and wires the
// markup and compiler-backed extractors. Any catalog that fails to compile
// is a *grammar.FatalStartupError.
func NewRegistry(grammars *grammar.Registry, opts Options) (*Registry, error) {
	r := &Registry{extractors: make(map[grammar.Tag]Extractor)}

	for _, tag := range grammars.Tags() {
		if tag == grammar.Go && opts.GoBackend == GoBackendAST {
			r.extractors[tag] = &goASTExtractor{imports: opts.Imports}
			continue
		}

		catalog, ok := CatalogFor(tag)
		if !ok {
			r.Close()
			return nil, &grammar.FatalStartupError{Tag: tag, Err: errors.New("no query catalog")}
		}
		capability, _ := grammars.Get(tag)

		compiled, err := CompileCatalog(capability, catalog)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.compiled = append(r.compiled, compiled)
		r.extractors[tag] = &treeSitterExtractor{
			registry:   r,
			capability: capability,
			catalog:    compiled,
			imports:    opts.Imports,
		}
	}

	if opts.GoBackend == GoBackendAST {
		if _, ok := r.extractors[grammar.Go]; !ok {
			r.extractors[grammar.Go] = &goASTExtractor{imports: opts.Imports}
		}
	}
	r.extractors[grammar.Razor] = markupExtractor{tag: grammar.Razor}

	return r, nil
}

// For returns the extractor for a tag.
func (r *Registry) For(tag grammar.Tag) (Extractor, bool) {
	e, ok := r.extractors[tag]
	return e, ok
}

// Close waits for running extractions and releases compiled queries.
// Extractions started afterwards fail with ErrRegistryClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for _, c := range r.compiled {
		c.Close()
	}
	r.compiled = nil
}

// treeSitterExtractor parses with a grammar capability and normalizes the
// captures of a compiled catalog.
type treeSitterExtractor struct {
	registry   *Registry
	capability *grammar.Capability
	catalog    *CompiledCatalog
	imports    bool
}

func (e *treeSitterExtractor) Extract(ctx context.Context, relPath string, src []byte) (*extraction.FileResult, error) {
	e.registry.mu.RLock()
	defer e.registry.mu.RUnlock()
	if e.registry.closed {
		return nil, ErrRegistryClosed
	}

	tree, err := e.capability.Parse(ctx, src)
	if tree == nil {
		if err == nil {
			err = grammar.ErrParseFailed
		}
		return nil, fmt.Errorf("failed to parse %s file %s: %w", e.capability.Tag, relPath, err)
	}
	defer tree.Close()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	result := e.catalog.Normalize(tree.RootNode(), src, e.imports)
	if err != nil {
		return result, fmt.Errorf("%s: %w", relPath, err)
	}
	return result, nil
}

// markupExtractor records files by path only.
type markupExtractor struct {
	tag grammar.Tag
}

func (m markupExtractor) Extract(ctx context.Context, relPath string, src []byte) (*extraction.FileResult, error) {
	return extraction.NewMarkupResult(string(m.tag)), nil
}
