package indexer

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/parsers"
	"github.com/stretchr/testify/require"
)

// writeTree creates files under root from a relative path → content map.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// newTestRegistry loads every grammar and compiles the catalogs.
func newTestRegistry(t *testing.T, imports bool) *parsers.Registry {
	t.Helper()

	grammars, err := grammar.Load(grammar.ParsedTags()...)
	require.NoError(t, err)

	registry, err := parsers.NewRegistry(grammars, parsers.Options{
		Imports:   imports,
		GoBackend: parsers.GoBackendTreeSitter,
	})
	require.NoError(t, err)
	t.Cleanup(registry.Close)

	return registry
}

// newTestWalker builds a quiet walker with a fresh registry and cache.
func newTestWalker(t *testing.T, opts WalkerOptions) *Walker {
	t.Helper()

	if opts.Extractors == nil {
		opts.Extractors = newTestRegistry(t, opts.Imports)
	}
	if opts.Cache == nil {
		cache, err := NewExtractionCache(0)
		require.NoError(t, err)
		t.Cleanup(cache.Close)
		opts.Cache = cache
	}
	opts.Quiet = true

	return NewWalker(opts)
}

// fixtureTree is a small multi-language project with every kind of file the
// walker has to handle.
var fixtureTree = map[string]string{
	"pkg/a.py":                     "class A(B):\n    def m(self) -> int: ...\n\ndef f(x: int) -> str: ...\n",
	"pkg/test_a.py":                "def test_f(): pass\n",
	"web/app.ts":                   "export class App {}\n",
	"web/app.test.ts":              "describe('x', () => {});\n",
	"node_modules/lib/index.js":    "export function lib() {}\n",
	"Views/Index.cshtml":           "<h1>@Model.Title</h1>\n",
	"README.md":                    "# readme\n",
	"bin.py":                       "abc\x00\x01def",
	"latin.py":                     "name = '\xff\xfe'\n",
	"broken.py":                    "def ok(): pass\n\ndef broken(:\n",
	"empty.py":                     "",
	"go/main.go":                   "package main\n\nfunc main() {}\n",
	"build/generated/gen.py":       "def gen(): pass\n",
	"src/__pycache__/cached.py":    "def cached(): pass\n",
	"vendor/github.com/x/x/x.go":   "package x\n",
	"docs/notes.txt":               "notes\n",
	"scripts/deploy.rb":            "def deploy\nend\n",
	"scripts/deploy_spec.rb":       "describe 'deploy' do\nend\n",
	"scripts/lib/helpers_test.go":  "package lib\n",
	"scripts/lib/helpers.go":       "package lib\n\ntype Helper struct{}\n",
	"scripts/lib/.hidden/skip.txt": "hidden\n",
}

// fixturePaths are the index entries expected from fixtureTree.
var fixturePaths = []string{
	"Views/Index.cshtml",
	"broken.py",
	"go/main.go",
	"pkg/a.py",
	"scripts/deploy.rb",
	"scripts/lib/helpers.go",
	"web/app.ts",
}

// recordingProgress counts progress callbacks.
type recordingProgress struct {
	mu         sync.Mutex
	discovered int
	skipped    int
	total      int
	processed  []string
	format     string
	completed  *Stats
}

func (r *recordingProgress) OnDiscoveryStart() {}

func (r *recordingProgress) OnDiscoveryComplete(sourceFiles, skippedFiles int) {
	r.discovered = sourceFiles
	r.skipped = skippedFiles
}

func (r *recordingProgress) OnFileProcessingStart(totalFiles int) {
	r.total = totalFiles
}

func (r *recordingProgress) OnFileProcessed(relPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = append(r.processed, relPath)
}

func (r *recordingProgress) OnWriting(format string) {
	r.format = format
}

func (r *recordingProgress) OnComplete(stats *Stats) {
	r.completed = stats
}
