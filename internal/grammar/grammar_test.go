package grammar

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Registry:
// - Every parsed tag loads and yields a capability
// - Razor is markup and never gets a grammar
// - Unknown tags fail with FatalStartupError
// - Parse returns a clean tree for valid source
// - Parse returns the tree together with ErrSyntax for broken source
// - Parse refuses a cancelled context
// - Compile rejects malformed queries
// - ForPath maps extensions case-insensitively

func TestLoad_AllTags(t *testing.T) {
	t.Parallel()

	reg, err := Load(ParsedTags()...)
	require.NoError(t, err)

	for _, tag := range ParsedTags() {
		capability, ok := reg.Get(tag)
		require.True(t, ok, "missing capability for %s", tag)
		assert.Equal(t, tag, capability.Tag)
		assert.NotNil(t, capability.Language())
	}
	assert.Equal(t, ParsedTags(), reg.Tags())
}

func TestLoad_SkipsMarkup(t *testing.T) {
	t.Parallel()

	reg, err := Load(Razor, Python)
	require.NoError(t, err)

	_, ok := reg.Get(Razor)
	assert.False(t, ok)
	_, ok = reg.Get(Python)
	assert.True(t, ok)
}

func TestLoad_UnknownTag(t *testing.T) {
	t.Parallel()

	_, err := Load(Tag("cobol"))
	require.Error(t, err)

	var fatal *FatalStartupError
	require.True(t, errors.As(err, &fatal))
	assert.Equal(t, Tag("cobol"), fatal.Tag)
	assert.ErrorIs(t, err, ErrUnknownTag)
}

func TestCapability_Parse(t *testing.T) {
	t.Parallel()

	reg, err := Load(Python)
	require.NoError(t, err)
	capability, _ := reg.Get(Python)

	t.Run("valid source", func(t *testing.T) {
		tree, err := capability.Parse(context.Background(), []byte("def f(x):\n    return x\n"))
		require.NoError(t, err)
		require.NotNil(t, tree)
		defer tree.Close()
		assert.Equal(t, "module", tree.RootNode().Kind())
	})

	t.Run("syntax errors keep the tree", func(t *testing.T) {
		tree, err := capability.Parse(context.Background(), []byte("def f(:\n"))
		assert.ErrorIs(t, err, ErrSyntax)
		require.NotNil(t, tree)
		tree.Close()
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		tree, err := capability.Parse(ctx, []byte("x = 1\n"))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, tree)
	})
}

func TestCapability_Compile(t *testing.T) {
	t.Parallel()

	reg, err := Load(Python)
	require.NoError(t, err)
	capability, _ := reg.Get(Python)

	query, err := capability.Compile(`(function_definition name: (identifier) @name)`)
	require.NoError(t, err)
	query.Close()

	_, err = capability.Compile(`(function_definition name: (no_such_node) @name)`)
	assert.Error(t, err)
}

func TestForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		tag  Tag
		ok   bool
	}{
		{"src/app.py", Python, true},
		{"web/index.TS", TypeScript, true},
		{"web/App.tsx", TSX, true},
		{"lib/util.mjs", JavaScript, true},
		{"Views/Home.cshtml", Razor, true},
		{"Pages/Index.razor", Razor, true},
		{"Program.cs", CSharp, true},
		{"main.go", Go, true},
		{"include/list.h", C, true},
		{"README.md", "", false},
		{"Makefile", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			tag, ok := ForPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.tag, tag)
		})
	}
}
