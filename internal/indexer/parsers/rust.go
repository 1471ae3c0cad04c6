package parsers

import (
	"strings"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

const rustStructQuery = `
(struct_item
  name: (type_identifier) @struct.name) @struct.def
`

const rustInterfaceQuery = `
(trait_item
  name: (type_identifier) @interface.name) @interface.def
`

const rustEnumQuery = `
(enum_item
  name: (type_identifier) @enum.name) @enum.def
`

const rustFunctionQuery = `
(function_item
  name: (identifier) @function.name
  parameters: (parameters) @function.parameters
  return_type: (_)? @function.return_type) @function.def
`

const rustImportQuery = `
(use_declaration
  argument: (_) @import.source) @import.def
`

const rustNamespaceQuery = `
(mod_item
  name: (identifier) @namespace.name) @namespace.def
`

// rustCatalog attaches functions in impl blocks to the struct named by the
// impl's type; impls of enums or foreign types are not indexed.
var rustCatalog = &Catalog{
	Tag:   grammar.Rust,
	Style: StyleArrow,
	Patterns: []Pattern{
		{Kind: extraction.KindStruct, Query: rustStructQuery, Anchors: []string{"struct_item"}},
		{Kind: extraction.KindInterface, Query: rustInterfaceQuery, Anchors: []string{"trait_item"}},
		{Kind: extraction.KindEnum, Query: rustEnumQuery, Anchors: []string{"enum_item"}},
		{Kind: extraction.KindFunction, Query: rustFunctionQuery, Anchors: []string{"function_item"}},
		{Kind: extraction.KindImport, Query: rustImportQuery, Anchors: []string{"use_declaration"}, Require: "source"},
		{Kind: extraction.KindNamespace, Query: rustNamespaceQuery, Anchors: []string{"mod_item"}},
	},
	LocalScopes: []string{"function_item", "closure_expression"},
	ImplBlocks: map[string]func(*sitter.Node, []byte) string{
		"impl_item": rustImplTarget,
	},
	Imports: rustImports,
}

// rustImplTarget returns the bare type name an impl block is for, without
// path or generic arguments.
func rustImplTarget(impl *sitter.Node, src []byte) string {
	name := compactText(impl.ChildByFieldName("type"), src)
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	return strings.TrimSpace(name)
}

// rustImports expands a use tree into the path and the names it brings into
// scope: "a::b::{c, d as e}" becomes source "a::b" with items c and "d as e".
func rustImports(set *CaptureSet, src []byte) []ImportSpec {
	return []ImportSpec{splitPathImport(compactText(set.Node("source"), src), "::")}
}

// splitPathImport splits a separator-delimited import path into source and
// items. Brace groups list several items; a trailing "*" imports everything.
func splitPathImport(path, sep string) ImportSpec {
	path = strings.TrimSpace(path)

	if strings.HasSuffix(path, "}") {
		if open := strings.Index(path, "{"); open >= 0 {
			source := strings.TrimSuffix(strings.TrimSpace(path[:open]), sep)
			items := splitTopLevel(path[open+1:len(path)-1], ',')
			if items == nil {
				items = []string{}
			}
			return ImportSpec{Source: source, Items: items}
		}
	}

	target, alias, hasAlias := strings.Cut(path, " as ")
	target = strings.TrimSpace(target)

	idx := strings.LastIndex(target, sep)
	if idx < 0 {
		item := target
		if hasAlias {
			item += " as " + strings.TrimSpace(alias)
		}
		return ImportSpec{Source: target, Items: []string{item}}
	}

	item := target[idx+len(sep):]
	if hasAlias {
		item += " as " + strings.TrimSpace(alias)
	}
	return ImportSpec{Source: target[:idx], Items: []string{item}}
}
