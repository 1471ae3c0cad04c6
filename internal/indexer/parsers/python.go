package parsers

import (
	"strings"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

const pythonClassQuery = `
(class_definition
  name: (identifier) @class.name
  superclasses: (argument_list)? @class.bases) @class.def

(decorated_definition
  definition: (class_definition
    name: (identifier) @class.name)) @class.wrapper
`

const pythonFunctionQuery = `
(function_definition
  name: (identifier) @function.name
  parameters: (parameters) @function.parameters
  return_type: (_)? @function.return_type) @function.def

(decorated_definition
  definition: (function_definition
    name: (identifier) @function.name)) @function.wrapper
`

const pythonImportQuery = `
(import_statement) @import.def

(import_from_statement
  module_name: (_) @import.source) @import.def
`

// pythonCatalog keeps the py_ key prefix of the original index format.
var pythonCatalog = &Catalog{
	Tag:       grammar.Python,
	KeyPrefix: "py_",
	Style:     StylePython,
	Patterns: []Pattern{
		{Kind: extraction.KindClass, Query: pythonClassQuery, Anchors: []string{"class_definition"}},
		{Kind: extraction.KindFunction, Query: pythonFunctionQuery, Anchors: []string{"function_definition"}},
		{Kind: extraction.KindImport, Query: pythonImportQuery, Anchors: []string{"import_statement", "import_from_statement"}, Require: "def"},
	},
	Wrappers:    map[string]string{"decorated_definition": "definition"},
	LocalScopes: []string{"function_definition", "lambda"},
	Bases:       pythonBases,
	Decorators:  pythonDecorators,
	Imports:     pythonImports,
}

// pythonBases lists the positional superclass arguments; keyword arguments
// such as metaclass=... are not bases.
func pythonBases(class *sitter.Node, set *CaptureSet, src []byte) []string {
	args := set.Node("bases")
	if args == nil {
		args = class.ChildByFieldName("superclasses")
	}
	if args == nil {
		return nil
	}

	bases := []string{}
	for _, arg := range namedChildren(args) {
		if arg.Kind() == "keyword_argument" {
			continue
		}
		bases = append(bases, compactText(arg, src))
	}
	return bases
}

// pythonDecorators reads decorators off the decorated_definition wrapping
// the anchor, in source order.
func pythonDecorators(anchor *sitter.Node, src []byte) []string {
	parent := anchor.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return nil
	}

	var decorators []string
	for _, d := range findChildrenByType(parent, "decorator") {
		decorators = append(decorators, decoratorText(d, src))
	}
	return decorators
}

// decoratorText returns a decorator's expression without the leading "@".
func decoratorText(decorator *sitter.Node, src []byte) string {
	if expr := decorator.NamedChild(0); expr != nil {
		return compactText(expr, src)
	}
	return strings.TrimPrefix(compactText(decorator, src), "@")
}

func pythonImports(set *CaptureSet, src []byte) []ImportSpec {
	stmt := set.Anchor

	if stmt.Kind() == "import_statement" {
		var specs []ImportSpec
		for _, child := range namedChildren(stmt) {
			switch child.Kind() {
			case "dotted_name":
				name := compactText(child, src)
				specs = append(specs, ImportSpec{Source: name, Items: []string{name}})
			case "aliased_import":
				name := compactText(child.ChildByFieldName("name"), src)
				alias := compactText(child.ChildByFieldName("alias"), src)
				specs = append(specs, ImportSpec{Source: name, Items: []string{name + " as " + alias}})
			}
		}
		return specs
	}

	module := set.Node("source")
	if module == nil {
		module = stmt.ChildByFieldName("module_name")
	}
	if module == nil {
		return nil
	}

	items := []string{}
	for _, child := range namedChildren(stmt) {
		if child.Id() == module.Id() {
			continue
		}
		switch child.Kind() {
		case "dotted_name", "identifier":
			items = append(items, compactText(child, src))
		case "aliased_import":
			name := compactText(child.ChildByFieldName("name"), src)
			alias := compactText(child.ChildByFieldName("alias"), src)
			items = append(items, name+" as "+alias)
		case "wildcard_import":
			items = append(items, "*")
		}
	}

	return []ImportSpec{{Source: compactText(module, src), Items: items}}
}
