package parsers

import (
	"strings"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

const csharpClassQuery = `
(class_declaration
  name: (identifier) @class.name) @class.def
`

const csharpStructQuery = `
(struct_declaration
  name: (identifier) @struct.name) @struct.def
`

const csharpInterfaceQuery = `
(interface_declaration
  name: (identifier) @interface.name) @interface.def
`

const csharpEnumQuery = `
(enum_declaration
  name: (identifier) @enum.name) @enum.def
`

const csharpMethodQuery = `
(method_declaration
  name: (identifier) @method.name) @method.def
`

const csharpNamespaceQuery = `
(namespace_declaration
  name: (_) @namespace.name) @namespace.def

(file_scoped_namespace_declaration
  name: (_) @namespace.name) @namespace.def
`

const csharpImportQuery = `
(using_directive) @import.def
`

// csharpCatalog keeps methods as a flat structured list, separate from the
// types that declare them.
var csharpCatalog = &Catalog{
	Tag:   grammar.CSharp,
	Style: StyleStructured,
	Patterns: []Pattern{
		{Kind: extraction.KindClass, Query: csharpClassQuery, Anchors: []string{"class_declaration"}},
		{Kind: extraction.KindStruct, Query: csharpStructQuery, Anchors: []string{"struct_declaration"}},
		{Kind: extraction.KindInterface, Query: csharpInterfaceQuery, Anchors: []string{"interface_declaration"}},
		{Kind: extraction.KindEnum, Query: csharpEnumQuery, Anchors: []string{"enum_declaration"}},
		{Kind: extraction.KindMethod, Query: csharpMethodQuery, Anchors: []string{"method_declaration"}},
		{Kind: extraction.KindNamespace, Query: csharpNamespaceQuery, Anchors: []string{"namespace_declaration", "file_scoped_namespace_declaration"}},
		{Kind: extraction.KindImport, Query: csharpImportQuery, Anchors: []string{"using_directive"}, Require: "def"},
	},
	FileScopes: []string{"file_scoped_namespace_declaration"},
	Bases:      csharpBases,
	Imports:    csharpImports,
	Method:     csharpMethod,
}

func csharpBases(class *sitter.Node, _ *CaptureSet, src []byte) []string {
	list := class.ChildByFieldName("bases")
	if list == nil {
		list = findChildByType(class, "base_list")
	}
	if list == nil {
		return nil
	}

	bases := []string{}
	for _, child := range namedChildren(list) {
		bases = append(bases, compactText(child, src))
	}
	return bases
}

// csharpMethod reads the structured parts of a method declaration. The
// return type field has been named "returns" and "type" across grammar
// versions; without either, the node right before the name is used.
func csharpMethod(set *CaptureSet, src []byte) (name, params, returns string, modifiers []string) {
	method := set.Anchor
	nameNode := set.Node("name")

	name = compactText(nameNode, src)
	paramsNode := method.ChildByFieldName("parameters")
	if paramsNode == nil {
		paramsNode = findChildByType(method, "parameter_list")
	}
	params = compactText(paramsNode, src)

	returnNode := method.ChildByFieldName("returns")
	if returnNode == nil {
		returnNode = method.ChildByFieldName("type")
	}
	if returnNode == nil && nameNode != nil {
		if prev := nameNode.PrevNamedSibling(); prev != nil && prev.Kind() != "modifier" && prev.Kind() != "attribute_list" {
			returnNode = prev
		}
	}
	returns = compactText(returnNode, src)

	modifiers = []string{}
	for _, m := range findChildrenByType(method, "modifier") {
		modifiers = append(modifiers, compactText(m, src))
	}
	return name, params, returns, modifiers
}

// csharpImports renders using directives. An alias directive
// ("using IO = System.IO;") imports the alias; the others import the whole
// namespace or type.
func csharpImports(set *CaptureSet, src []byte) []ImportSpec {
	text := compactText(set.Anchor, src)
	text = strings.TrimSuffix(strings.TrimSpace(text), ";")
	text = strings.TrimPrefix(text, "global ")
	text = strings.TrimPrefix(text, "using ")
	text = strings.TrimPrefix(text, "static ")
	text = strings.TrimSpace(text)

	if alias, target, ok := strings.Cut(text, "="); ok {
		return []ImportSpec{{Source: strings.TrimSpace(target), Items: []string{strings.TrimSpace(alias)}}}
	}
	return []ImportSpec{{Source: text, Items: []string{"*"}}}
}
