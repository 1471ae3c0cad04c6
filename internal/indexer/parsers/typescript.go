package parsers

import (
	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

const typescriptClassQuery = `
(class_declaration
  name: (type_identifier) @class.name) @class.def

(abstract_class_declaration
  name: (type_identifier) @class.name) @class.def

(export_statement
  declaration: (class_declaration
    name: (type_identifier) @class.name)) @class.wrapper

(export_statement
  declaration: (abstract_class_declaration
    name: (type_identifier) @class.name)) @class.wrapper
`

const typescriptInterfaceQuery = `
(interface_declaration
  name: (type_identifier) @interface.name) @interface.def

(export_statement
  declaration: (interface_declaration
    name: (type_identifier) @interface.name)) @interface.wrapper
`

const typescriptEnumQuery = `
(enum_declaration
  name: (identifier) @enum.name) @enum.def

(export_statement
  declaration: (enum_declaration
    name: (identifier) @enum.name)) @enum.wrapper
`

const typescriptFunctionQuery = `
(function_declaration
  name: (identifier) @function.name
  parameters: (formal_parameters) @function.parameters
  return_type: (_)? @function.return_type) @function.def

(generator_function_declaration
  name: (identifier) @function.name
  parameters: (formal_parameters) @function.parameters
  return_type: (_)? @function.return_type) @function.def

(method_definition
  name: (_) @function.name
  parameters: (formal_parameters) @function.parameters
  return_type: (_)? @function.return_type) @function.def

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

const ecmascriptImportQuery = `
(import_statement
  source: (string) @import.source) @import.def
`

const ecmascriptExportQuery = `
(export_statement) @export.def
`

// ecmascriptLocalScopes are the function-like nodes of the JavaScript family
// plus anonymous class expressions, whose members are not indexed.
var ecmascriptLocalScopes = []string{
	"function_declaration",
	"generator_function_declaration",
	"function_expression",
	"function",
	"generator_function",
	"arrow_function",
	"method_definition",
	"class",
}

func typescriptCatalog(tag grammar.Tag) *Catalog {
	return &Catalog{
		Tag:   tag,
		Style: StyleColon,
		Patterns: []Pattern{
			{Kind: extraction.KindClass, Query: typescriptClassQuery, Anchors: []string{"class_declaration", "abstract_class_declaration"}},
			{Kind: extraction.KindInterface, Query: typescriptInterfaceQuery, Anchors: []string{"interface_declaration"}},
			{Kind: extraction.KindEnum, Query: typescriptEnumQuery, Anchors: []string{"enum_declaration"}},
			{Kind: extraction.KindFunction, Query: typescriptFunctionQuery, Anchors: []string{
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
}

// ecmascriptBases reads the class heritage. TypeScript splits it into
// extends and implements clauses; type arguments belong to the base before
// them. JavaScript holds the extended expression directly.
func ecmascriptBases(class *sitter.Node, _ *CaptureSet, src []byte) []string {
	heritage := findChildByType(class, "class_heritage")
	if heritage == nil {
		return nil
	}

	bases := []string{}
	for _, child := range namedChildren(heritage) {
		switch child.Kind() {
		case "extends_clause", "implements_clause":
			for _, item := range namedChildren(child) {
				if item.Kind() == "type_arguments" && len(bases) > 0 {
					bases[len(bases)-1] += compactText(item, src)
					continue
				}
				bases = append(bases, compactText(item, src))
			}
		default:
			bases = append(bases, compactText(child, src))
		}
	}
	return bases
}

// ecmascriptDecorators collects decorators from the export statement
// wrapping the anchor, from the anchor itself, and from decorator siblings
// directly preceding it (class members). Preceding siblings are found
// nearest-first and reversed into source order.
func ecmascriptDecorators(anchor *sitter.Node, src []byte) []string {
	var decorators []string

	if parent := anchor.Parent(); parent != nil && parent.Kind() == "export_statement" {
		for _, d := range findChildrenByType(parent, "decorator") {
			decorators = append(decorators, decoratorText(d, src))
		}
	}

	for _, d := range findChildrenByType(anchor, "decorator") {
		decorators = append(decorators, decoratorText(d, src))
	}

	var preceding []string
	for sib := anchor.PrevNamedSibling(); sib != nil && sib.Kind() == "decorator"; sib = sib.PrevNamedSibling() {
		preceding = append(preceding, decoratorText(sib, src))
	}
	for i := len(preceding) - 1; i >= 0; i-- {
		decorators = append(decorators, preceding[i])
	}

	return decorators
}

// ecmascriptImports renders the import clause: default bindings as
// "default as X", namespace imports as "* as X", named imports as "a" or
// "a as b". A side-effect import takes everything ("*").
func ecmascriptImports(set *CaptureSet, src []byte) []ImportSpec {
	source := unquote(set.Text("source", src))

	clause := findChildByType(set.Anchor, "import_clause")
	if clause == nil {
		return []ImportSpec{{Source: source, Items: []string{"*"}}}
	}

	items := []string{}
	for _, child := range namedChildren(clause) {
		switch child.Kind() {
		case "identifier":
			items = append(items, "default as "+compactText(child, src))
		case "namespace_import":
			if id := findChildByType(child, "identifier"); id != nil {
				items = append(items, "* as "+compactText(id, src))
			}
		case "named_imports":
			for _, spec := range findChildrenByType(child, "import_specifier") {
				name := compactText(spec.ChildByFieldName("name"), src)
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					name += " as " + compactText(alias, src)
				}
				items = append(items, name)
			}
		}
	}

	return []ImportSpec{{Source: source, Items: items}}
}

// ecmascriptExports lists the names an export statement makes public.
// Default exports render as "default: name".
func ecmascriptExports(set *CaptureSet, src []byte) []string {
	stmt := set.Anchor
	isDefault := hasChildToken(stmt, "default")

	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		var names []string
		switch decl.Kind() {
		case "lexical_declaration", "variable_declaration":
			for _, d := range findChildrenByType(decl, "variable_declarator") {
				names = append(names, compactText(d.ChildByFieldName("name"), src))
			}
		default:
			if name := decl.ChildByFieldName("name"); name != nil {
				names = append(names, compactText(name, src))
			}
		}
		if isDefault {
			for i := range names {
				names[i] = "default: " + names[i]
			}
		}
		return names
	}

	if clause := findChildByType(stmt, "export_clause"); clause != nil {
		var names []string
		for _, spec := range findChildrenByType(clause, "export_specifier") {
			name := spec.ChildByFieldName("alias")
			if name == nil {
				name = spec.ChildByFieldName("name")
			}
			names = append(names, unquote(compactText(name, src)))
		}
		return names
	}

	if isDefault {
		value := stmt.ChildByFieldName("value")
		if value == nil {
			for _, child := range namedChildren(stmt) {
				if child.Kind() != "decorator" {
					value = child
					break
				}
			}
		}
		if value != nil && value.Kind() == "identifier" {
			return []string{"default: " + compactText(value, src)}
		}
		return []string{"default"}
	}

	return nil
}
