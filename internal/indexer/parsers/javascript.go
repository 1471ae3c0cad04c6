package parsers

import (
	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
)

const javascriptClassQuery = `
(class_declaration
  name: (identifier) @class.name) @class.def

(export_statement
  declaration: (class_declaration
    name: (identifier) @class.name)) @class.wrapper
`

const javascriptFunctionQuery = `
(function_declaration
  name: (identifier) @function.name
  parameters: (formal_parameters) @function.parameters) @function.def

(generator_function_declaration
  name: (identifier) @function.name
  parameters: (formal_parameters) @function.parameters) @function.def

(method_definition
  name: (_) @function.name
  parameters: (formal_parameters) @function.parameters) @function.def

(variable_declarator
  name: (identifier) @function.name
  value: [(arrow_function) (function_expression)]) @function.def

(export_statement
  declaration: (function_declaration
    name: (identifier) @function.name)) @function.wrapper

(export_statement
  declaration: (lexical_declaration
    (variable_declarator
      name: (identifier) @function.name
      value: [(arrow_function) (function_expression)]))))
`

// javascriptCatalog shares import, export and heritage handling with
// TypeScript; the grammar has no type annotations.
var javascriptCatalog = &Catalog{
	Tag:   grammar.JavaScript,
	Style: StyleColon,
	Patterns: []Pattern{
		{Kind: extraction.KindClass, Query: javascriptClassQuery, Anchors: []string{"class_declaration"}},
		{Kind: extraction.KindFunction, Query: javascriptFunctionQuery, Anchors: []string{
			"function_declaration", "generator_function_declaration", "method_definition", "variable_declarator",
		}},
		{Kind: extraction.KindImport, Query: ecmascriptImportQuery, Anchors: []string{"import_statement"}, Require: "source"},
		{Kind: extraction.KindExport, Query: ecmascriptExportQuery, Anchors: []string{"export_statement"}, Require: "def"},
	},
	Wrappers:    map[string]string{"export_statement": "declaration"},
	LocalScopes: ecmascriptLocalScopes,
	Bases:       ecmascriptBases,
	Decorators:  ecmascriptDecorators,
	Imports:     ecmascriptImports,
	Exports:     ecmascriptExports,
}
