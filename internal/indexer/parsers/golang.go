package parsers

import (
	"path"
	"strings"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

const goStructQuery = `
(type_spec
  name: (type_identifier) @struct.name
  type: (struct_type)) @struct.def
`

const goInterfaceQuery = `
(type_spec
  name: (type_identifier) @interface.name
  type: (interface_type)) @interface.def
`

const goFunctionQuery = `
(function_declaration
  name: (identifier) @function.name
  parameters: (parameter_list) @function.parameters
  result: (_)? @function.return_type) @function.def

(method_declaration
  receiver: (parameter_list) @function.receiver
  name: (field_identifier) @function.name
  parameters: (parameter_list) @function.parameters
  result: (_)? @function.return_type) @function.def
`

const goImportQuery = `
(import_spec
  path: (_) @import.source) @import.def
`

const goNamespaceQuery = `
(package_clause
  (package_identifier) @namespace.name) @namespace.def
`

// goCatalog attaches methods to structs by receiver type name. Methods on
// types that are not structs declared in the same file stay functions.
var goCatalog = &Catalog{
	Tag:   grammar.Go,
	Style: StyleSpace,
	Patterns: []Pattern{
		{Kind: extraction.KindStruct, Query: goStructQuery, Anchors: []string{"type_spec"}},
		{Kind: extraction.KindInterface, Query: goInterfaceQuery, Anchors: []string{"type_spec"}},
		{Kind: extraction.KindFunction, Query: goFunctionQuery, Anchors: []string{"function_declaration", "method_declaration"}},
		{Kind: extraction.KindImport, Query: goImportQuery, Anchors: []string{"import_spec"}, Require: "source"},
		{Kind: extraction.KindNamespace, Query: goNamespaceQuery, Anchors: []string{"package_clause"}},
	},
	LocalScopes: []string{"func_literal"},
	FileScopes:  []string{"package_clause"},
	Receiver:    goReceiver,
	Imports:     goImports,
}

// goReceiver returns the base type name of a method receiver, without
// pointer or type parameters.
func goReceiver(fn *sitter.Node, src []byte) (string, bool) {
	if fn.Kind() != "method_declaration" {
		return "", false
	}
	receiver := fn.ChildByFieldName("receiver")
	if receiver == nil {
		return "", false
	}
	if id := findDescendantByType(receiver, "type_identifier"); id != nil {
		return extractNodeText(id, src), true
	}
	return "", false
}

// goImports imports the package under its alias, or under the last path
// element when there is none.
func goImports(set *CaptureSet, src []byte) []ImportSpec {
	importPath := unquote(set.Text("source", src))
	name := importPath
	if alias := set.Anchor.ChildByFieldName("name"); alias != nil {
		name = extractNodeText(alias, src)
	} else if base := path.Base(importPath); base != "." && base != "/" {
		name = base
	}
	return []ImportSpec{{Source: importPath, Items: []string{strings.TrimSpace(name)}}}
}
