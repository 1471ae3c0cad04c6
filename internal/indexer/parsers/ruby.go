package parsers

import (
	"strings"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

const rubyClassQuery = `
(class
  name: (_) @class.name) @class.def
`

const rubyFunctionQuery = `
(method
  name: (_) @function.name) @function.def

(singleton_method
  name: (_) @function.name) @function.def
`

const rubyImportQuery = `
(call
  method: (identifier) @import.method
  arguments: (argument_list
    (string) @import.source)) @import.def
`

const rubyNamespaceQuery = `
(module
  name: (_) @namespace.name) @namespace.def
`

// rubyRequires are the calls that load other files.
var rubyRequires = map[string]bool{
	"require":          true,
	"require_relative": true,
	"load":             true,
}

// rubyCatalog indexes modules as namespaces; methods defined directly in a
// module are reported as functions.
var rubyCatalog = &Catalog{
	Tag:   grammar.Ruby,
	Style: StyleBare,
	Patterns: []Pattern{
		{Kind: extraction.KindClass, Query: rubyClassQuery, Anchors: []string{"class"}},
		{Kind: extraction.KindFunction, Query: rubyFunctionQuery, Anchors: []string{"method", "singleton_method"}},
		{Kind: extraction.KindImport, Query: rubyImportQuery, Anchors: []string{"call"}, Require: "source"},
		{Kind: extraction.KindNamespace, Query: rubyNamespaceQuery, Anchors: []string{"module"}},
	},
	LocalScopes: []string{"method", "singleton_method", "block", "do_block", "lambda"},
	Bases:       rubyBases,
	Imports:     rubyImports,
}

func rubyBases(class *sitter.Node, _ *CaptureSet, src []byte) []string {
	super := class.ChildByFieldName("superclass")
	if super == nil {
		return nil
	}
	base := strings.TrimSpace(strings.TrimPrefix(compactText(super, src), "<"))
	if base == "" {
		return nil
	}
	return []string{base}
}

func rubyImports(set *CaptureSet, src []byte) []ImportSpec {
	if !rubyRequires[set.Text("method", src)] {
		return nil
	}
	// Only the literal first argument names the file.
	args := set.Anchor.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	first := args.NamedChild(0)
	if first.Kind() != "string" {
		return nil
	}
	return []ImportSpec{{Source: unquote(compactText(first, src)), Items: []string{"*"}}}
}
