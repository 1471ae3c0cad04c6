package parsers

import (
	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

const cStructQuery = `
(struct_specifier
  name: (type_identifier) @struct.name
  body: (field_declaration_list)) @struct.def

(type_definition
  type: (struct_specifier
    !name
    body: (field_declaration_list))
  declarator: (type_identifier) @struct.name) @struct.def
`

const cEnumQuery = `
(enum_specifier
  name: (type_identifier) @enum.name
  body: (enumerator_list)) @enum.def
`

const cFunctionQuery = `
(function_definition
  declarator: (function_declarator
    declarator: (identifier) @function.name
    parameters: (parameter_list) @function.parameters)) @function.def

(function_definition
  declarator: (pointer_declarator
    declarator: (function_declarator
      declarator: (identifier) @function.name
      parameters: (parameter_list) @function.parameters))) @function.def
`

const cImportQuery = `
(preproc_include
  path: (_) @import.source) @import.def
`

var cCatalog = &Catalog{
	Tag:   grammar.C,
	Style: StyleColon,
	Patterns: []Pattern{
		{Kind: extraction.KindStruct, Query: cStructQuery, Anchors: []string{"struct_specifier", "type_definition"}},
		{Kind: extraction.KindEnum, Query: cEnumQuery, Anchors: []string{"enum_specifier"}},
		{Kind: extraction.KindFunction, Query: cFunctionQuery, Anchors: []string{"function_definition"}},
		{Kind: extraction.KindImport, Query: cImportQuery, Anchors: []string{"preproc_include"}, Require: "source"},
	},
	ReturnType: cReturnType,
	Imports:    cImports,
}

// cReturnType renders the declared type, adding "*" for functions declared
// through a pointer declarator.
func cReturnType(fn *sitter.Node, _ *CaptureSet, src []byte) string {
	ret := compactText(fn.ChildByFieldName("type"), src)
	for d := fn.ChildByFieldName("declarator"); d != nil && d.Kind() == "pointer_declarator"; d = d.ChildByFieldName("declarator") {
		ret += "*"
	}
	return ret
}

func cImports(set *CaptureSet, src []byte) []ImportSpec {
	return []ImportSpec{{Source: unquote(set.Text("source", src)), Items: []string{"*"}}}
}
