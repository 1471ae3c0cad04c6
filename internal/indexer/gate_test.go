package indexer

import (
	"testing"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Gate:
// - Extensions map 1:1 to language tags; unknown extensions are skipped
// - Files under excluded directories are skipped at any depth
// - Test files are skipped per language unless tests are included
// - Ignore patterns match files directly and directories with a /** suffix
// - Razor views are accepted as markup
// - Invalid ignore patterns are rejected
// - SkipDir prunes excluded and ignored directories but never the root

func TestGate_Classify(t *testing.T) {
	t.Parallel()

	gate, err := NewGate(nil, false)
	require.NoError(t, err)

	tests := []struct {
		path     string
		skip     bool
		language grammar.Tag
	}{
		{"main.py", false, grammar.Python},
		{"src/app.ts", false, grammar.TypeScript},
		{"src/App.tsx", false, grammar.TSX},
		{"lib/util.mjs", false, grammar.JavaScript},
		{"Models/User.cs", false, grammar.CSharp},
		{"Views/Home/Index.cshtml", false, grammar.Razor},
		{"Pages/Counter.razor", false, grammar.Razor},
		{"src/main/java/App.java", false, grammar.Java},
		{"src/lib.rs", false, grammar.Rust},
		{"cmd/main.go", false, grammar.Go},
		{"include/util.h", false, grammar.C},
		{"src/index.php", false, grammar.PHP},
		{"lib/app.rb", false, grammar.Ruby},
		{"MAIN.PY", false, grammar.Python},

		{"README.md", true, ""},
		{"Makefile", true, ""},
		{"node_modules/react/index.js", true, ""},
		{"web/node_modules/a/b.ts", true, ""},
		{"vendor/github.com/x/y.go", true, ""},
		{"target/debug/build.rs", true, ""},
		{"app/__pycache__/m.py", true, ""},
		{".venv/lib/site.py", true, ""},

		{"tests/test_models.py", true, grammar.Python},
		{"models_test.py", true, grammar.Python},
		{"src/app.test.ts", true, grammar.TypeScript},
		{"src/app.spec.tsx", true, grammar.TSX},
		{"src/__tests__/app.js", true, grammar.JavaScript},
		{"App.Tests/UserTests.cs", true, grammar.CSharp},
		{"App.Tests/Helpers.cs", true, grammar.CSharp},
		{"pkg/server_test.go", true, grammar.Go},
		{"src/test/java/AppTest.java", true, grammar.Java},
		{"src/test/java/Fixtures.java", true, grammar.Java},
		{"tests/integration.rs", true, grammar.Rust},
		{"spec/models/user_spec.rb", true, grammar.Ruby},
		{"tests/UserTest.php", true, grammar.PHP},

		{"src/testing.py", false, grammar.Python},
		{"src/contest.ts", false, grammar.TypeScript},
		{"src/main/java/TestUtils.java", false, grammar.Java},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			d := gate.Classify(tt.path)
			assert.Equal(t, tt.skip, d.Skip, "reason: %s", d.Reason)
			assert.Equal(t, tt.language, d.Language)
		})
	}
}

func TestGate_IncludeTests(t *testing.T) {
	t.Parallel()

	gate, err := NewGate(nil, true)
	require.NoError(t, err)

	for _, path := range []string{"test_a.py", "pkg/server_test.go", "src/app.spec.ts"} {
		d := gate.Classify(path)
		assert.False(t, d.Skip, path)
	}

	d := gate.Classify("node_modules/a/index.js")
	assert.True(t, d.Skip, "excluded directories stay excluded")
}

func TestGate_IgnorePatterns(t *testing.T) {
	t.Parallel()

	gate, err := NewGate([]string{"generated/**", "**/*.pb.go", "legacy"}, false)
	require.NoError(t, err)

	d := gate.Classify("generated/models.py")
	assert.True(t, d.Skip)
	assert.Equal(t, grammar.Python, d.Language)
	assert.Equal(t, "ignore pattern", d.Reason)

	assert.True(t, gate.Classify("api/v1/service.pb.go").Skip)
	assert.False(t, gate.Classify("api/v1/service.go").Skip)

	assert.True(t, gate.SkipDir("generated"))
	assert.True(t, gate.SkipDir("legacy"))
	assert.False(t, gate.SkipDir("src"))
}

func TestGate_SkipDir(t *testing.T) {
	t.Parallel()

	gate, err := NewGate(nil, false)
	require.NoError(t, err)

	assert.False(t, gate.SkipDir("."))
	assert.False(t, gate.SkipDir(""))
	assert.True(t, gate.SkipDir("node_modules"))
	assert.True(t, gate.SkipDir("web/node_modules"))
	assert.True(t, gate.SkipDir(".git"))
	assert.False(t, gate.SkipDir("src/builder"))
}

func TestNewGate_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewGate([]string{"[unclosed"}, false)
	assert.Error(t, err)
}
