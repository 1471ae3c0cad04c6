package parsers

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Registry and capture grouping:
// - Every parsed language has a catalog that compiles
// - Razor files get a path-only markup extractor
// - The go/ast backend replaces the Go catalog when selected
// - A catalog query that does not compile is a FatalStartupError
// - Captures on a wrapper resolve to the declaration it wraps
// - Capture sets missing the required label are dropped
// - Unrelated declarations starting on the same line stay distinct records
// - Extraction honors a cancelled context
// - Close waits for running extractions; later extractions fail with ErrRegistryClosed
// - An empty file yields an empty result

func TestRegistry_AllCatalogsCompile(t *testing.T) {
	t.Parallel()

	grammars, err := grammar.Load(grammar.ParsedTags()...)
	require.NoError(t, err)

	registry, err := NewRegistry(grammars, Options{Imports: true, GoBackend: GoBackendTreeSitter})
	require.NoError(t, err)
	defer registry.Close()

	for _, tag := range grammar.ParsedTags() {
		_, ok := CatalogFor(tag)
		assert.True(t, ok, "no catalog for %s", tag)

		extractor, ok := registry.For(tag)
		require.True(t, ok, "no extractor for %s", tag)
		assert.IsType(t, &treeSitterExtractor{}, extractor)
	}
}

func TestRegistry_MarkupExtractor(t *testing.T) {
	t.Parallel()

	grammars, err := grammar.Load(grammar.Python)
	require.NoError(t, err)

	registry, err := NewRegistry(grammars, Options{})
	require.NoError(t, err)
	defer registry.Close()

	extractor, ok := registry.For(grammar.Razor)
	require.True(t, ok)

	result, err := extractor.Extract(context.Background(), "Views/Index.cshtml", nil)
	require.NoError(t, err)
	assert.True(t, result.MarkupOnly)
	assert.Equal(t, "razor", result.Language)
	assert.True(t, result.IsEmpty())
}

func TestRegistry_GoASTBackend(t *testing.T) {
	t.Parallel()

	grammars, err := grammar.Load(grammar.Go)
	require.NoError(t, err)

	registry, err := NewRegistry(grammars, Options{GoBackend: GoBackendAST})
	require.NoError(t, err)
	defer registry.Close()

	extractor, ok := registry.For(grammar.Go)
	require.True(t, ok)
	assert.IsType(t, &goASTExtractor{}, extractor)
}

func TestCompileCatalog_InvalidQuery(t *testing.T) {
	t.Parallel()

	grammars, err := grammar.Load(grammar.Python)
	require.NoError(t, err)
	capability, ok := grammars.Get(grammar.Python)
	require.True(t, ok)

	broken := &Catalog{
		Tag: grammar.Python,
		Patterns: []Pattern{
			{Kind: extraction.KindClass, Query: "(no_such_node) @class.def", Anchors: []string{"no_such_node"}},
		},
	}

	_, err = CompileCatalog(capability, broken)
	require.Error(t, err)

	var fatal *grammar.FatalStartupError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, grammar.Python, fatal.Tag)
}

func TestGroupCaptures_WrapperResolvesToDeclaration(t *testing.T) {
	t.Parallel()

	grammars, err := grammar.Load(grammar.Python)
	require.NoError(t, err)
	capability, _ := grammars.Get(grammar.Python)

	compiled, err := CompileCatalog(capability, pythonCatalog)
	require.NoError(t, err)
	defer compiled.Close()

	src := []byte("@a\n@b\ndef f(x):\n    pass\n\ndef g():\n    pass\n")
	tree, err := capability.Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	var functions *compiledPattern
	for i := range compiled.patterns {
		if compiled.patterns[i].Kind == extraction.KindFunction {
			functions = &compiled.patterns[i]
		}
	}
	require.NotNil(t, functions)

	sets := groupCaptures(functions, tree.RootNode(), src, compiled.Wrappers)
	require.Len(t, sets, 2)

	assert.Equal(t, "function_definition", sets[0].Anchor.Kind())
	assert.Equal(t, "f", sets[0].Text("name", src))
	assert.True(t, sets[0].Has("wrapper"))
	assert.Equal(t, "(x)", sets[0].Text("parameters", src))

	assert.Equal(t, "g", sets[1].Text("name", src))
	assert.False(t, sets[1].Has("wrapper"))
}

func TestGroupCaptures_RequiredLabel(t *testing.T) {
	t.Parallel()

	grammars, err := grammar.Load(grammar.Ruby)
	require.NoError(t, err)
	capability, _ := grammars.Get(grammar.Ruby)

	catalog := &Catalog{
		Tag: grammar.Ruby,
		Patterns: []Pattern{
			{Kind: extraction.KindImport, Query: rubyImportQuery, Anchors: []string{"call"}, Require: "source"},
		},
	}
	compiled, err := CompileCatalog(capability, catalog)
	require.NoError(t, err)
	defer compiled.Close()

	src := []byte("require 'json'\nputs x\n")
	tree, err := capability.Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	sets := groupCaptures(&compiled.patterns[0], tree.RootNode(), src, nil)
	require.Len(t, sets, 1)
	assert.Equal(t, "'json'", sets[0].Text("source", src))
}

func TestCaptureLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "name", captureLabel("class.name"))
	assert.Equal(t, "return_type", captureLabel("function.return_type"))
	assert.Equal(t, "def", captureLabel("def"))
}

func TestExtract_CancelledContext(t *testing.T) {
	t.Parallel()

	grammars, err := grammar.Load(grammar.Python)
	require.NoError(t, err)
	registry, err := NewRegistry(grammars, Options{})
	require.NoError(t, err)
	defer registry.Close()

	extractor, _ := registry.For(grammar.Python)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := extractor.Extract(ctx, "a.py", []byte("def f(): pass\n"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestExtract_EmptyFile(t *testing.T) {
	t.Parallel()

	result := extractSource(t, grammar.Python, "")
	assert.True(t, result.IsEmpty())
	assert.Equal(t, "{}", string(mustMarshal(t, result)))
}

func TestGroupCaptures_SameLineDeclarationsStayDistinct(t *testing.T) {
	t.Parallel()

	ts := extractSource(t, grammar.TypeScript, "class A { m() {} } class B { m() {} }\n")
	classes := ts.Records(extraction.KindClass)
	require.Len(t, classes, 2)
	assert.Equal(t, "A", classes[0].Name)
	assert.Equal(t, "B", classes[1].Name)
	assert.Equal(t, []string{"m()"}, classes[0].Methods)
	assert.Equal(t, []string{"m()"}, classes[1].Methods)
	assert.Equal(t, classes[0].Line, classes[1].Line)
	assert.Less(t, classes[0].Offset, classes[1].Offset)

	cs := extractSource(t, grammar.CSharp, "namespace N { class A {} class B {} }\n")
	assert.Equal(t, []string{"N"}, recordNames(cs.Records(extraction.KindNamespace)))
	csClasses := cs.Records(extraction.KindClass)
	require.Len(t, csClasses, 2)
	assert.Equal(t, "A", csClasses[0].Name)
	assert.Equal(t, "B", csClasses[1].Name)
	assert.Equal(t, "N", csClasses[0].Scope)
	assert.Equal(t, "N", csClasses[1].Scope)
	assert.Less(t, cs.Records(extraction.KindNamespace)[0].Offset, csClasses[0].Offset)
}

func TestRegistry_CloseDuringExtraction(t *testing.T) {
	t.Parallel()

	grammars, err := grammar.Load(grammar.Python)
	require.NoError(t, err)
	registry, err := NewRegistry(grammars, Options{})
	require.NoError(t, err)

	extractor, ok := registry.For(grammar.Python)
	require.True(t, ok)

	src := []byte(strings.Repeat("class A(B):\n    def m(self) -> int:\n        return 1\n\n", 500))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := extractor.Extract(context.Background(), "a.py", src)
			if err == nil && result.Count() != 500 {
				err = assert.AnError
			}
			errs <- err
		}()
	}

	registry.Close()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrRegistryClosed)
		}
	}

	_, err = extractor.Extract(context.Background(), "a.py", src)
	assert.ErrorIs(t, err, ErrRegistryClosed)

	registry.Close()
}
