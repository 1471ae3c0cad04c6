package parsers

import (
	"sort"

	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// typeEntry accumulates one class-like declaration while its methods are
// being attached.
type typeEntry struct {
	kind    extraction.Kind
	name    string
	pos     extraction.Position
	bases   []string
	methods []string
}

func (e *typeEntry) ownsMethods() bool {
	return e.kind == extraction.KindClass || e.kind == extraction.KindStruct
}

func (e *typeEntry) record() extraction.Record {
	switch e.kind {
	case extraction.KindClass:
		return extraction.NewClass(e.pos, e.name, e.bases, e.methods)
	case extraction.KindStruct:
		return extraction.NewStruct(e.pos, e.name, e.methods)
	case extraction.KindInterface:
		return extraction.NewInterface(e.pos, e.name)
	default:
		return extraction.NewEnum(e.pos, e.name)
	}
}

type fileScope struct {
	start uint
	name  string
}

// normalizer builds one file's result from the grouped captures.
type normalizer struct {
	cc  *CompiledCatalog
	src []byte

	types      map[uintptr]*typeEntry
	typeOrder  []*typeEntry
	byName     map[string]*typeEntry
	scopes     map[uintptr]string
	fileScopes []fileScope

	records map[extraction.Kind][]extraction.Record
}

// Normalize runs every pattern of the catalog over the tree rooted at root
// and assembles the sparse per-file result. Import and export patterns only
// run when imports is set.
func (cc *CompiledCatalog) Normalize(root *sitter.Node, src []byte, imports bool) *extraction.FileResult {
	n := &normalizer{
		cc:      cc,
		src:     src,
		types:   make(map[uintptr]*typeEntry),
		byName:  make(map[string]*typeEntry),
		scopes:  make(map[uintptr]string),
		records: make(map[extraction.Kind][]extraction.Record),
	}

	groups := make(map[extraction.Kind][]*CaptureSet)
	for i := range cc.patterns {
		p := &cc.patterns[i]
		if !imports && (p.Kind == extraction.KindImport || p.Kind == extraction.KindExport) {
			continue
		}
		groups[p.Kind] = append(groups[p.Kind], groupCaptures(p, root, src, cc.Wrappers)...)
	}
	for _, sets := range groups {
		sortSets(sets)
	}

	n.collectNamespaces(groups[extraction.KindNamespace])
	n.collectTypes(groups)
	n.collectFunctions(groups[extraction.KindFunction])
	n.collectMethods(groups[extraction.KindMethod])
	n.collectImports(groups[extraction.KindImport])
	n.collectExports(groups[extraction.KindExport])

	result := extraction.NewFileResult(string(cc.Tag), cc.KeyPrefix)
	for _, entry := range n.typeOrder {
		result.Add(entry.record())
	}
	for _, kind := range extraction.Kinds {
		for _, rec := range n.records[kind] {
			result.Add(rec)
		}
	}
	return result
}

func sortSets(sets []*CaptureSet) {
	sort.SliceStable(sets, func(i, j int) bool {
		return sets[i].Anchor.StartByte() < sets[j].Anchor.StartByte()
	})
}

func (n *normalizer) position(node *sitter.Node) extraction.Position {
	return extraction.Position{Line: lineOf(node), Offset: int(node.StartByte()), Scope: n.scopeOf(node)}
}

// scopeOf returns the nearest enclosing type or namespace name, falling
// back to a file-level namespace declared before the node.
func (n *normalizer) scopeOf(node *sitter.Node) string {
	for a := node.Parent(); a != nil; a = a.Parent() {
		if name, ok := n.scopes[a.Id()]; ok {
			return name
		}
	}
	scope := ""
	for _, fs := range n.fileScopes {
		if fs.start <= node.StartByte() {
			scope = fs.name
		}
	}
	return scope
}

func (n *normalizer) collectNamespaces(sets []*CaptureSet) {
	for _, set := range sets {
		name := set.Text("name", n.src)
		if n.cc.Namespace != nil {
			name = n.cc.Namespace(set, n.src)
		}
		name = collapseWhitespace(name)
		if name == "" {
			continue
		}

		pos := n.position(set.Anchor)
		n.records[extraction.KindNamespace] = append(n.records[extraction.KindNamespace],
			extraction.NewNamespace(pos, name))

		if n.cc.fileScopes[set.Anchor.Kind()] {
			n.fileScopes = append(n.fileScopes, fileScope{start: set.Anchor.StartByte(), name: name})
		} else {
			n.scopes[set.Anchor.Id()] = name
		}
	}
}

func (n *normalizer) collectTypes(groups map[extraction.Kind][]*CaptureSet) {
	var sets []*CaptureSet
	kinds := make(map[*CaptureSet]extraction.Kind)
	for _, kind := range []extraction.Kind{
		extraction.KindClass, extraction.KindStruct, extraction.KindInterface, extraction.KindEnum,
	} {
		for _, set := range groups[kind] {
			sets = append(sets, set)
			kinds[set] = kind
		}
	}

	// Register every type before computing scopes so nested declarations
	// resolve their parents regardless of kind.
	entries := make([]*typeEntry, len(sets))
	for i, set := range sets {
		entry := &typeEntry{
			kind: kinds[set],
			name: collapseWhitespace(set.Text("name", n.src)),
		}
		if entry.kind == extraction.KindClass && n.cc.Bases != nil {
			entry.bases = n.cc.Bases(set.Anchor, set, n.src)
		}
		entries[i] = entry
		n.types[set.Anchor.Id()] = entry
		n.scopes[set.Anchor.Id()] = entry.name
		if _, exists := n.byName[entry.name]; !exists {
			n.byName[entry.name] = entry
		}
	}
	for i, set := range sets {
		entries[i].pos = n.position(set.Anchor)
	}

	n.typeOrder = append(n.typeOrder, entries...)
}

// owner finds the class or struct a function belongs to. local reports a
// function that is nested somewhere it should not be indexed.
func (n *normalizer) owner(fn *sitter.Node) (entry *typeEntry, local bool) {
	if n.cc.Receiver != nil {
		if name, ok := n.cc.Receiver(fn, n.src); ok {
			if e := n.byName[name]; e != nil && e.ownsMethods() {
				return e, false
			}
			return nil, false
		}
	}

	for a := fn.Parent(); a != nil; a = a.Parent() {
		if e, ok := n.types[a.Id()]; ok {
			if e.ownsMethods() {
				return e, false
			}
			return nil, true
		}
		if resolve, ok := n.cc.ImplBlocks[a.Kind()]; ok {
			if e := n.byName[resolve(a, n.src)]; e != nil && e.ownsMethods() {
				return e, false
			}
			return nil, true
		}
		if n.cc.localScopes[a.Kind()] {
			return nil, true
		}
	}
	return nil, false
}

// functionNode returns the node holding a function's parameters: the anchor
// itself, or the function value of an arrow-style binding.
func functionNode(anchor *sitter.Node) *sitter.Node {
	if value := anchor.ChildByFieldName("value"); value != nil {
		switch value.Kind() {
		case "arrow_function", "function_expression", "function":
			return value
		}
	}
	return anchor
}

func (n *normalizer) signature(set *CaptureSet) Signature {
	fn := functionNode(set.Anchor)

	params := set.Node("parameters")
	if params == nil {
		params = fn.ChildByFieldName("parameters")
	}
	if params == nil {
		params = fn.ChildByFieldName("parameter")
	}

	var ret string
	if n.cc.ReturnType != nil {
		ret = n.cc.ReturnType(fn, set, n.src)
	} else if node := set.Node("return_type"); node != nil {
		ret = extractNodeText(node, n.src)
	} else {
		ret = extractNodeText(fn.ChildByFieldName("return_type"), n.src)
	}

	var decorators []string
	if n.cc.Decorators != nil {
		decorators = n.cc.Decorators(set.Anchor, n.src)
	}

	return Signature{
		Decorators: decorators,
		Name:       set.Text("name", n.src),
		Parameters: extractNodeText(params, n.src),
		ReturnType: ret,
	}
}

func (n *normalizer) collectFunctions(sets []*CaptureSet) {
	for _, set := range sets {
		owner, local := n.owner(set.Anchor)
		if local {
			continue
		}

		sig := n.signature(set)
		rendered := sig.Render(n.cc.Style)
		if owner != nil {
			owner.methods = append(owner.methods, rendered)
			continue
		}

		n.records[extraction.KindFunction] = append(n.records[extraction.KindFunction],
			extraction.NewFunction(n.position(set.Anchor), collapseWhitespace(sig.Name), rendered))
	}
}

// collectMethods emits structured method records as their own top-level
// list instead of attaching them to a type.
func (n *normalizer) collectMethods(sets []*CaptureSet) {
	if n.cc.Method == nil {
		return
	}
	for _, set := range sets {
		name, params, returns, modifiers := n.cc.Method(set, n.src)
		n.records[extraction.KindMethod] = append(n.records[extraction.KindMethod],
			extraction.NewMethod(n.position(set.Anchor), name, params, returns, modifiers))
	}
}

func (n *normalizer) collectImports(sets []*CaptureSet) {
	if n.cc.Imports == nil {
		return
	}
	for _, set := range sets {
		pos := n.position(set.Anchor)
		for _, spec := range n.cc.Imports(set, n.src) {
			if spec.Source == "" {
				continue
			}
			n.records[extraction.KindImport] = append(n.records[extraction.KindImport],
				extraction.NewImport(pos, spec.Source, spec.Items))
		}
	}
}

func (n *normalizer) collectExports(sets []*CaptureSet) {
	if n.cc.Exports == nil {
		return
	}
	for _, set := range sets {
		pos := n.position(set.Anchor)
		for _, name := range n.cc.Exports(set, n.src) {
			if name == "" {
				continue
			}
			n.records[extraction.KindExport] = append(n.records[extraction.KindExport],
				extraction.NewExport(pos, name))
		}
	}
}
