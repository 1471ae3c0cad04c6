package parsers

import (
	"fmt"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Pattern is the structural query for one declaration kind. Capture names
// take the form "<kind>.<label>" (e.g. "class.name"); only the label is used
// for grouping. Query lists the bare form of each declaration and, where the
// language has one, the form wrapped in an export or decorator node.
type Pattern struct {
	Kind    extraction.Kind
	Query   string
	Anchors []string

	// Require is the label a capture set must carry to be kept.
	// Defaults to "name".
	Require string
}

func (p Pattern) required() string {
	if p.Require == "" {
		return "name"
	}
	return p.Require
}

// ImportSpec is one imported module and the items taken from it.
type ImportSpec struct {
	Source string
	Items  []string
}

// Catalog describes how declarations are found in one language. Patterns
// locate them; the hooks read language-specific details off the anchor.
type Catalog struct {
	Tag       grammar.Tag
	KeyPrefix string
	Style     SignatureStyle
	Patterns  []Pattern

	// Wrappers maps wrapper node kinds (export_statement, decorated_definition)
	// to the field holding the wrapped declaration.
	Wrappers map[string]string

	// LocalScopes are node kinds whose contents are not top-level: a
	// function found below one of them is not indexed.
	LocalScopes []string

	// FileScopes are namespace kinds that scope the rest of the file without
	// enclosing it (C# file-scoped namespaces, Go package clauses).
	FileScopes []string

	Bases      func(class *sitter.Node, set *CaptureSet, src []byte) []string
	Decorators func(anchor *sitter.Node, src []byte) []string
	ReturnType func(fn *sitter.Node, set *CaptureSet, src []byte) string
	Imports    func(set *CaptureSet, src []byte) []ImportSpec
	Exports    func(set *CaptureSet, src []byte) []string
	Namespace  func(set *CaptureSet, src []byte) string

	// Receiver resolves a method's owning type by name (Go receivers).
	Receiver func(fn *sitter.Node, src []byte) (string, bool)

	// ImplBlocks maps container kinds that attach methods by type name
	// (Rust impl blocks) to a function returning that name.
	ImplBlocks map[string]func(impl *sitter.Node, src []byte) string

	// Method builds structured method records (C#).
	Method func(set *CaptureSet, src []byte) (name, params, returns string, modifiers []string)
}

type compiledPattern struct {
	Pattern
	query   *sitter.Query
	anchors map[string]bool
}

// CompiledCatalog is a catalog whose queries have been compiled for one
// grammar. It is read-only after creation and shared across goroutines;
// each extraction uses its own cursor.
type CompiledCatalog struct {
	*Catalog
	patterns    []compiledPattern
	localScopes map[string]bool
	fileScopes  map[string]bool
}

// CompileCatalog compiles every pattern of the catalog. A pattern that does
// not compile is a startup failure.
func CompileCatalog(capability *grammar.Capability, catalog *Catalog) (*CompiledCatalog, error) {
	cc := &CompiledCatalog{
		Catalog:     catalog,
		localScopes: toSet(catalog.LocalScopes),
		fileScopes:  toSet(catalog.FileScopes),
	}

	for _, p := range catalog.Patterns {
		query, err := capability.Compile(p.Query)
		if err != nil {
			cc.Close()
			return nil, &grammar.FatalStartupError{
				Tag: catalog.Tag,
				Err: fmt.Errorf("%s pattern: %w", p.Kind, err),
			}
		}
		cc.patterns = append(cc.patterns, compiledPattern{
			Pattern: p,
			query:   query,
			anchors: toSet(p.Anchors),
		})
	}

	return cc, nil
}

// Close releases the compiled queries.
func (cc *CompiledCatalog) Close() {
	for _, p := range cc.patterns {
		p.query.Close()
	}
	cc.patterns = nil
}

func toSet(kinds []string) map[string]bool {
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return set
}

// catalogs lists the tree-sitter catalog of every parsed language.
var catalogs = map[grammar.Tag]*Catalog{
	grammar.Python:     pythonCatalog,
	grammar.TypeScript: typescriptCatalog(grammar.TypeScript),
	grammar.TSX:        typescriptCatalog(grammar.TSX),
	grammar.JavaScript: javascriptCatalog,
	grammar.CSharp:     csharpCatalog,
	grammar.Java:       javaCatalog,
	grammar.Rust:       rustCatalog,
	grammar.Go:         goCatalog,
	grammar.C:          cCatalog,
	grammar.PHP:        phpCatalog,
	grammar.Ruby:       rubyCatalog,
}

// CatalogFor returns the catalog for a language tag.
func CatalogFor(tag grammar.Tag) (*Catalog, bool) {
	c, ok := catalogs[tag]
	return c, ok
}
