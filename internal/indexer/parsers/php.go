package parsers

import (
	"strings"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

const phpClassQuery = `
(class_declaration
  name: (name) @class.name) @class.def
`

const phpInterfaceQuery = `
(interface_declaration
  name: (name) @interface.name) @interface.def
`

const phpEnumQuery = `
(enum_declaration
  name: (name) @enum.name) @enum.def
`

const phpFunctionQuery = `
(function_definition
  name: (name) @function.name
  parameters: (formal_parameters) @function.parameters) @function.def

(method_declaration
  name: (name) @function.name
  parameters: (formal_parameters) @function.parameters) @function.def
`

const phpImportQuery = `
(namespace_use_declaration) @import.def
`

const phpNamespaceQuery = `
(namespace_definition
  name: (namespace_name) @namespace.name) @namespace.def
`

// phpCatalog treats trait members as local: traits are not indexed.
var phpCatalog = &Catalog{
	Tag:   grammar.PHP,
	Style: StyleColon,
	Patterns: []Pattern{
		{Kind: extraction.KindClass, Query: phpClassQuery, Anchors: []string{"class_declaration"}},
		{Kind: extraction.KindInterface, Query: phpInterfaceQuery, Anchors: []string{"interface_declaration"}},
		{Kind: extraction.KindEnum, Query: phpEnumQuery, Anchors: []string{"enum_declaration"}},
		{Kind: extraction.KindFunction, Query: phpFunctionQuery, Anchors: []string{"function_definition", "method_declaration"}},
		{Kind: extraction.KindImport, Query: phpImportQuery, Anchors: []string{"namespace_use_declaration"}, Require: "def"},
		{Kind: extraction.KindNamespace, Query: phpNamespaceQuery, Anchors: []string{"namespace_definition"}},
	},
	LocalScopes: []string{
		"function_definition",
		"method_declaration",
		"anonymous_function",
		"anonymous_function_creation_expression",
		"arrow_function",
		"trait_declaration",
		"object_creation_expression",
	},
	FileScopes: []string{"namespace_definition"},
	Bases:      phpBases,
	Imports:    phpImports,
}

// phpBases lists the parent class followed by implemented interfaces.
func phpBases(class *sitter.Node, _ *CaptureSet, src []byte) []string {
	var bases []string
	for _, clause := range []string{"base_clause", "class_interface_clause"} {
		node := findChildByType(class, clause)
		for _, child := range namedChildren(node) {
			bases = append(bases, compactText(child, src))
		}
	}
	return bases
}

// phpImports expands use declarations, including group uses
// ("use App\{Foo, Bar as Baz};").
func phpImports(set *CaptureSet, src []byte) []ImportSpec {
	text := compactText(set.Anchor, src)
	text = strings.TrimSuffix(strings.TrimSpace(text), ";")
	text = strings.TrimPrefix(text, "use ")
	text = strings.TrimPrefix(text, "function ")
	text = strings.TrimPrefix(text, "const ")
	text = strings.TrimSpace(text)

	if strings.HasSuffix(text, "}") {
		spec := splitPathImport(text, `\`)
		spec.Source = strings.TrimPrefix(spec.Source, `\`)
		return []ImportSpec{spec}
	}

	var specs []ImportSpec
	for _, clause := range splitTopLevel(text, ',') {
		spec := splitPathImport(clause, `\`)
		spec.Source = strings.TrimPrefix(spec.Source, `\`)
		specs = append(specs, spec)
	}
	return specs
}
