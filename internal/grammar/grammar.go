// Package grammar loads the tree-sitter grammars used by the indexer into an
// immutable registry that is built once at startup and shared by reference.
package grammar

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unsafe"

	sitter "github.com/tree-sitter/go-tree-sitter"
	clang "github.com/tree-sitter/tree-sitter-c/bindings/go"
	csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Tag names a supported language.
type Tag string

const (
	Python     Tag = "python"
	TypeScript Tag = "typescript"
	TSX        Tag = "tsx"
	JavaScript Tag = "javascript"
	CSharp     Tag = "csharp"
	Razor      Tag = "razor"
	Java       Tag = "java"
	Rust       Tag = "rust"
	Go         Tag = "go"
	C          Tag = "c"
	PHP        Tag = "php"
	Ruby       Tag = "ruby"
)

var (
	// ErrSyntax indicates the parsed tree contains ERROR or MISSING nodes.
	// The tree is still returned alongside it.
	ErrSyntax = errors.New("syntax errors in source")

	// ErrParseFailed indicates the parser produced no tree at all.
	ErrParseFailed = errors.New("parser returned no tree")

	// ErrUnknownTag indicates a tag with no grammar binding.
	ErrUnknownTag = errors.New("unknown language tag")
)

// FatalStartupError reports a grammar that could not be loaded. The indexer
// refuses to run without every requested grammar.
type FatalStartupError struct {
	Tag Tag
	Err error
}

func (e *FatalStartupError) Error() string {
	return fmt.Sprintf("failed to load %s grammar: %v", e.Tag, e.Err)
}

func (e *FatalStartupError) Unwrap() error {
	return e.Err
}

// bindings maps each parsed language to its compiled grammar.
var bindings = map[Tag]func() unsafe.Pointer{
	Python:     python.Language,
	TypeScript: typescript.LanguageTypescript,
	TSX:        typescript.LanguageTSX,
	JavaScript: javascript.Language,
	CSharp:     csharp.Language,
	Java:       java.Language,
	Rust:       rust.Language,
	Go:         golang.Language,
	C:          clang.Language,
	PHP:        php.LanguagePHP,
	Ruby:       ruby.Language,
}

var extensions = map[string]Tag{
	".py":     Python,
	".ts":     TypeScript,
	".tsx":    TSX,
	".js":     JavaScript,
	".mjs":    JavaScript,
	".cjs":    JavaScript,
	".jsx":    JavaScript,
	".cs":     CSharp,
	".razor":  Razor,
	".cshtml": Razor,
	".java":   Java,
	".rs":     Rust,
	".go":     Go,
	".c":      C,
	".h":      C,
	".php":    PHP,
	".rb":     Ruby,
}

// ForPath returns the language tag for a file path based on its extension.
func ForPath(path string) (Tag, bool) {
	tag, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return tag, ok
}

// ParsedTags returns every tag backed by a tree-sitter grammar.
func ParsedTags() []Tag {
	return []Tag{Python, TypeScript, TSX, JavaScript, CSharp, Java, Rust, Go, C, PHP, Ruby}
}

// IsMarkup reports whether files of this tag are indexed by path only.
func (t Tag) IsMarkup() bool {
	return t == Razor
}

// Registry holds one loaded grammar per tag. It is never modified after Load.
type Registry struct {
	languages map[Tag]*sitter.Language
}

// Load builds a registry for the given tags. Each grammar is checked by
// assigning it to a parser, which rejects incompatible ABI versions.
func Load(tags ...Tag) (*Registry, error) {
	r := &Registry{languages: make(map[Tag]*sitter.Language, len(tags))}

	for _, tag := range tags {
		if tag.IsMarkup() {
			continue
		}
		binding, ok := bindings[tag]
		if !ok {
			return nil, &FatalStartupError{Tag: tag, Err: ErrUnknownTag}
		}

		lang := sitter.NewLanguage(binding())
		if lang == nil {
			return nil, &FatalStartupError{Tag: tag, Err: errors.New("binding returned nil language")}
		}

		parser := sitter.NewParser()
		err := parser.SetLanguage(lang)
		parser.Close()
		if err != nil {
			return nil, &FatalStartupError{Tag: tag, Err: err}
		}

		r.languages[tag] = lang
	}

	return r, nil
}

// Get returns the parsing capability for a tag.
func (r *Registry) Get(tag Tag) (*Capability, bool) {
	lang, ok := r.languages[tag]
	if !ok {
		return nil, false
	}
	return &Capability{Tag: tag, language: lang}, true
}

// Tags returns the loaded tags.
func (r *Registry) Tags() []Tag {
	var tags []Tag
	for _, tag := range ParsedTags() {
		if _, ok := r.languages[tag]; ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Capability parses source and compiles queries for one language.
type Capability struct {
	Tag      Tag
	language *sitter.Language
}

// Language returns the underlying grammar.
func (c *Capability) Language() *sitter.Language {
	return c.language
}

// Parse parses src with a fresh parser (parsers are not safe for concurrent
// use). When the tree contains syntax errors it is returned together with
// ErrSyntax so callers can still query the valid parts. The caller owns the
// returned tree and must Close it.
func (c *Capability) Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(c.language); err != nil {
		return nil, fmt.Errorf("failed to set %s language: %w", c.Tag, err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, ErrParseFailed
	}

	if tree.RootNode().HasError() {
		return tree, ErrSyntax
	}
	return tree, nil
}

// Compile compiles a query against this language.
func (c *Capability) Compile(source string) (*sitter.Query, error) {
	query, qErr := sitter.NewQuery(c.language, source)
	if qErr != nil {
		return nil, fmt.Errorf("invalid %s query: %v", c.Tag, qErr)
	}
	return query, nil
}
