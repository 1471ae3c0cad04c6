package parsers

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// collapseWhitespace folds every run of whitespace into a single space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// compactText returns the node text with whitespace collapsed.
func compactText(node *sitter.Node, source []byte) string {
	return collapseWhitespace(extractNodeText(node, source))
}

// lineOf returns the 1-based start line of a node.
func lineOf(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		walkTree(child, visitor)
	}
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// findChildrenByType finds all child nodes with the given type.
func findChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			results = append(results, child)
		}
	}
	return results
}

// namedChildren returns the named children of a node, skipping comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(uint(i))
		if child == nil || strings.Contains(child.Kind(), "comment") {
			continue
		}
		results = append(results, child)
	}
	return results
}

// findDescendantByType returns the first node of the given type in a
// pre-order walk below node.
func findDescendantByType(node *sitter.Node, nodeType string) *sitter.Node {
	var found *sitter.Node
	walkTree(node, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.Kind() == nodeType {
			found = n
			return false
		}
		return true
	})
	return found
}

// hasChildToken reports whether node has a direct child of the given kind,
// named or anonymous (e.g. the "default" keyword).
func hasChildToken(node *sitter.Node, kind string) bool {
	return findChildByType(node, kind) != nil
}

// unquote strips surrounding string delimiters.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			return s[1 : len(s)-1]
		}
		if first == '<' && last == '>' {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// splitTopLevel splits s on sep, ignoring separators nested in brackets.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '{', '(', '[', '<':
			depth++
		case '}', ')', ']', '>':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}
