package indexer

import (
	"path"
	"strings"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/project-indexer/internal/grammar"
)

// DefaultExcludedDirs are directory names never descended into.
var DefaultExcludedDirs = []string{
	"node_modules",
	"vendor",
	".git",
	"dist",
	"build",
	"obj",
	"bin",
	"__pycache__",
	"venv",
	".venv",
	"target",
}

// testRule matches test sources of one language by file name glob or by a
// directory segment anywhere in the path.
type testRule struct {
	names []string
	dirs  []string
}

var testRules = map[grammar.Tag]testRule{
	grammar.Python:     {names: []string{"test_*.py", "*_test.py"}},
	grammar.TypeScript: {names: []string{"*.test.*", "*.spec.*"}, dirs: []string{"__tests__"}},
	grammar.TSX:        {names: []string{"*.test.*", "*.spec.*"}, dirs: []string{"__tests__"}},
	grammar.JavaScript: {names: []string{"*.test.*", "*.spec.*"}, dirs: []string{"__tests__"}},
	grammar.CSharp:     {names: []string{"*Tests.cs"}, dirs: []string{"*.Tests"}},
	grammar.Go:         {names: []string{"*_test.go"}},
	grammar.Java:       {names: []string{"*Test.java"}, dirs: []string{"src/test"}},
	grammar.Rust:       {dirs: []string{"tests"}},
	grammar.Ruby:       {names: []string{"*_spec.rb"}, dirs: []string{"spec"}},
	grammar.PHP:        {names: []string{"*Test.php"}},
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Decision is the gate's verdict for one path.
type Decision struct {
	Skip     bool
	Language grammar.Tag
	Reason   string
}

// Gate decides which files are indexed and in which language. It is pure:
// decisions depend only on the relative path and the gate's configuration.
type Gate struct {
	excludedDirs   map[string]bool
	ignorePatterns []compiledPattern
	includeTests   bool
}

// NewGate creates a gate. ignorePatterns are gobwas/glob patterns matched
// against slash-separated relative paths.
func NewGate(ignorePatterns []string, includeTests bool) (*Gate, error) {
	g := &Gate{
		excludedDirs: make(map[string]bool, len(DefaultExcludedDirs)),
		includeTests: includeTests,
	}
	for _, dir := range DefaultExcludedDirs {
		g.excludedDirs[dir] = true
	}

	for _, pattern := range ignorePatterns {
		compiled, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		g.ignorePatterns = append(g.ignorePatterns, compiledPattern{pattern: pattern, glob: compiled})
	}

	return g, nil
}

// SkipDir reports whether a directory (relative slash path) is pruned from
// the walk.
func (g *Gate) SkipDir(relDir string) bool {
	if relDir == "." || relDir == "" {
		return false
	}
	if g.excludedDirs[path.Base(relDir)] {
		return true
	}
	return g.matchesIgnore(relDir)
}

// Classify decides whether relPath is indexed and maps it to a language.
func (g *Gate) Classify(relPath string) Decision {
	for _, segment := range strings.Split(path.Dir(relPath), "/") {
		if g.excludedDirs[segment] {
			return Decision{Skip: true, Reason: "excluded directory " + segment}
		}
	}

	tag, ok := grammar.ForPath(relPath)
	if !ok {
		return Decision{Skip: true, Reason: "unsupported extension"}
	}

	if g.matchesIgnore(relPath) {
		return Decision{Skip: true, Language: tag, Reason: "ignore pattern"}
	}

	if !g.includeTests && isTestFile(tag, relPath) {
		return Decision{Skip: true, Language: tag, Reason: "test file"}
	}

	return Decision{Language: tag}
}

// matchesIgnore checks if a path matches any ignore pattern.
func (g *Gate) matchesIgnore(relPath string) bool {
	for _, cp := range g.ignorePatterns {
		if cp.glob.Match(relPath) {
			return true
		}
	}

	// Also check if this is a directory that would match with /** suffix
	// For example, "generated" should match pattern "generated/**"
	withSuffix := relPath + "/**"
	for _, cp := range g.ignorePatterns {
		if cp.glob.Match(withSuffix) {
			return true
		}
	}
	return false
}

// isTestFile determines if a file is a test file for its language.
func isTestFile(tag grammar.Tag, relPath string) bool {
	rule, ok := testRules[tag]
	if !ok {
		return false
	}

	base := path.Base(relPath)
	for _, pattern := range rule.names {
		if matched, _ := path.Match(pattern, base); matched {
			return true
		}
	}

	dir := path.Dir(relPath)
	if dir == "." {
		return false
	}
	segments := strings.Split(dir, "/")
	for _, want := range rule.dirs {
		if strings.Contains(want, "/") {
			if strings.HasPrefix(dir+"/", want+"/") || strings.Contains("/"+dir+"/", "/"+want+"/") {
				return true
			}
			continue
		}
		for _, segment := range segments {
			if matched, _ := path.Match(want, segment); matched {
				return true
			}
		}
	}
	return false
}
