package parsers

import (
	"strings"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

const javaClassQuery = `
(class_declaration
  name: (identifier) @class.name) @class.def

(record_declaration
  name: (identifier) @class.name) @class.def
`

const javaInterfaceQuery = `
(interface_declaration
  name: (identifier) @interface.name) @interface.def
`

const javaEnumQuery = `
(enum_declaration
  name: (identifier) @enum.name) @enum.def
`

const javaFunctionQuery = `
(method_declaration
  name: (identifier) @function.name
  parameters: (formal_parameters) @function.parameters) @function.def

(constructor_declaration
  name: (identifier) @function.name
  parameters: (formal_parameters) @function.parameters) @function.def
`

const javaImportQuery = `
(import_declaration) @import.def
`

const javaNamespaceQuery = `
(package_declaration) @namespace.def
`

var javaCatalog = &Catalog{
	Tag:   grammar.Java,
	Style: StyleColon,
	Patterns: []Pattern{
		{Kind: extraction.KindClass, Query: javaClassQuery, Anchors: []string{"class_declaration", "record_declaration"}},
		{Kind: extraction.KindInterface, Query: javaInterfaceQuery, Anchors: []string{"interface_declaration"}},
		{Kind: extraction.KindEnum, Query: javaEnumQuery, Anchors: []string{"enum_declaration"}},
		{Kind: extraction.KindFunction, Query: javaFunctionQuery, Anchors: []string{"method_declaration", "constructor_declaration"}},
		{Kind: extraction.KindImport, Query: javaImportQuery, Anchors: []string{"import_declaration"}, Require: "def"},
		{Kind: extraction.KindNamespace, Query: javaNamespaceQuery, Anchors: []string{"package_declaration"}, Require: "def"},
	},
	LocalScopes: []string{
		"method_declaration",
		"constructor_declaration",
		"lambda_expression",
		"object_creation_expression",
		"annotation_type_declaration",
	},
	FileScopes: []string{"package_declaration"},
	Bases:      javaBases,
	ReturnType: javaReturnType,
	Imports:    javaImports,
	Namespace:  javaPackage,
}

// javaBases lists the superclass followed by implemented interfaces.
func javaBases(class *sitter.Node, _ *CaptureSet, src []byte) []string {
	var bases []string

	if super := findChildByType(class, "superclass"); super != nil {
		for _, t := range namedChildren(super) {
			bases = append(bases, compactText(t, src))
		}
	}

	if ifaces := findChildByType(class, "super_interfaces"); ifaces != nil {
		for _, child := range namedChildren(ifaces) {
			if child.Kind() == "type_list" {
				for _, t := range namedChildren(child) {
					bases = append(bases, compactText(t, src))
				}
				continue
			}
			bases = append(bases, compactText(child, src))
		}
	}

	return bases
}

// javaReturnType reads the declared type; constructors have none.
func javaReturnType(fn *sitter.Node, _ *CaptureSet, src []byte) string {
	return compactText(fn.ChildByFieldName("type"), src)
}

// javaImports splits "java.util.List" into the package and the imported
// name; wildcard imports take everything.
func javaImports(set *CaptureSet, src []byte) []ImportSpec {
	text := compactText(set.Anchor, src)
	text = strings.TrimSuffix(strings.TrimSpace(text), ";")
	text = strings.TrimPrefix(text, "import ")
	text = strings.TrimPrefix(text, "static ")
	text = strings.ReplaceAll(text, " ", "")

	idx := strings.LastIndex(text, ".")
	if idx < 0 {
		return []ImportSpec{{Source: text, Items: []string{text}}}
	}
	return []ImportSpec{{Source: text[:idx], Items: []string{text[idx+1:]}}}
}

func javaPackage(set *CaptureSet, src []byte) string {
	for _, child := range namedChildren(set.Anchor) {
		switch child.Kind() {
		case "scoped_identifier", "identifier":
			return compactText(child, src)
		}
	}
	return ""
}
