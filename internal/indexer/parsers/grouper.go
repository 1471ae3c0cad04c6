package parsers

import (
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// CaptureSet collects the captures that belong to one declaration, keyed by
// label. The anchor is the declaration node itself (never a wrapper).
type CaptureSet struct {
	Anchor   *sitter.Node
	captures map[string][]*sitter.Node
	seen     map[uintptr]map[string]bool
}

func newCaptureSet(anchor *sitter.Node) *CaptureSet {
	return &CaptureSet{
		Anchor:   anchor,
		captures: make(map[string][]*sitter.Node),
		seen:     make(map[uintptr]map[string]bool),
	}
}

func (s *CaptureSet) add(label string, node *sitter.Node) {
	id := node.Id()
	if s.seen[id] == nil {
		s.seen[id] = make(map[string]bool)
	}
	if s.seen[id][label] {
		return
	}
	s.seen[id][label] = true
	s.captures[label] = append(s.captures[label], node)
}

// Node returns the first node captured under label, or nil.
func (s *CaptureSet) Node(label string) *sitter.Node {
	nodes := s.captures[label]
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Nodes returns every node captured under label in capture order.
func (s *CaptureSet) Nodes(label string) []*sitter.Node {
	return s.captures[label]
}

// Has reports whether anything was captured under label.
func (s *CaptureSet) Has(label string) bool {
	return len(s.captures[label]) > 0
}

// Text returns the text of the first node captured under label.
func (s *CaptureSet) Text(label string, src []byte) string {
	return extractNodeText(s.Node(label), src)
}

// captureLabel strips the kind prefix from a capture name.
func captureLabel(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// groupCaptures runs a compiled pattern over root and folds the flat capture
// stream into one CaptureSet per declaration. Each capture is attributed to
// the nearest enclosing anchor node; a capture on a wrapper is attributed to
// the declaration the wrapper holds. Sets come back in source order, and sets
// missing the pattern's required label are dropped.
func groupCaptures(p *compiledPattern, root *sitter.Node, src []byte, wrappers map[string]string) []*CaptureSet {
	names := p.query.CaptureNames()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	sets := make(map[uintptr]*CaptureSet)
	captures := cursor.Captures(p.query, root, src)
	for {
		match, index := captures.Next()
		if match == nil {
			break
		}
		capture := match.Captures[index]
		node := capture.Node

		anchor := resolveAnchor(&node, p.anchors, wrappers)
		if anchor == nil {
			continue
		}

		set, ok := sets[anchor.Id()]
		if !ok {
			set = newCaptureSet(anchor)
			sets[anchor.Id()] = set
		}
		set.add(captureLabel(names[capture.Index]), &node)
	}

	required := p.required()
	result := make([]*CaptureSet, 0, len(sets))
	for _, set := range sets {
		if !set.Has(required) {
			continue
		}
		result = append(result, set)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Anchor, result[j].Anchor
		if a.StartByte() != b.StartByte() {
			return a.StartByte() < b.StartByte()
		}
		if a.EndByte() != b.EndByte() {
			return a.EndByte() > b.EndByte()
		}
		return a.Kind() < b.Kind()
	})
	return result
}

// resolveAnchor walks up from node to the nearest node whose kind is an
// anchor. Reaching a wrapper first resolves to the declaration it wraps.
func resolveAnchor(node *sitter.Node, anchors map[string]bool, wrappers map[string]string) *sitter.Node {
	for n := node; n != nil; n = n.Parent() {
		kind := n.Kind()
		if anchors[kind] {
			return n
		}
		if field, ok := wrappers[kind]; ok {
			inner := n.ChildByFieldName(field)
			if inner != nil && anchors[inner.Kind()] {
				return inner
			}
			return nil
		}
	}
	return nil
}
