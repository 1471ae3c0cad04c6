package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/project-indexer/internal/config"
	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer"
	"github.com/mvp-joe/project-indexer/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the index command:
// - Root command is wired with version and inspect subcommands
// - executeIndex writes ProjectIndex.json into the root by default
// - Overrides switch to the flat format and enable imports
// - A missing or non-directory root is an InvalidRootError with exit code 2
// - Invalid overrides are rejected before indexing
// - The sqlite format can be read back through inspectIndex
// - exitCode maps fatal error types to distinct codes

const samplePython = `class A(B):
    def m(self) -> int:
        return 1

def f(x: int) -> str:
    return str(x)
`

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "a.py"), []byte(samplePython), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "test_a.py"), []byte("def test_f():\n    pass\n"), 0644))
	return root
}

func quietOptions(root string) indexOptions {
	return indexOptions{
		rootDir:  root,
		quiet:    true,
		progress: &indexer.NoOpProgressReporter{},
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	t.Parallel()

	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names["version"])
	assert.True(t, names["inspect"])
}

func TestExecuteIndex_WritesStructuredIndex(t *testing.T) {
	t.Parallel()

	root := writeProject(t)
	stats, err := executeIndex(context.Background(), quietOptions(root))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesSkipped)

	data, err := os.ReadFile(filepath.Join(root, "ProjectIndex.json"))
	require.NoError(t, err)

	var index map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &index))
	require.Contains(t, index, "pkg/a.py")
	assert.JSONEq(t, `[{"name":"A","bases":["B"],"methods":["m(self) -> int"]}]`, string(index["pkg/a.py"]["py_classes"]))
	assert.JSONEq(t, `["f(x: int) -> str"]`, string(index["pkg/a.py"]["py_functions"]))
}

func TestExecuteIndex_FlatFormatOverride(t *testing.T) {
	t.Parallel()

	root := writeProject(t)
	opts := quietOptions(root)
	opts.overrides = func(cfg *config.Config) {
		cfg.Output.Format = indexer.FormatFlat
		cfg.Output.Path = "flat.json"
	}

	_, err := executeIndex(context.Background(), opts)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "flat.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[["A","pkg/a.py",null]]`, string(data))
}

func TestExecuteIndex_InvalidRoot(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	_, err := executeIndex(context.Background(), quietOptions(missing))
	require.Error(t, err)

	var rootErr *indexer.InvalidRootError
	assert.True(t, errors.As(err, &rootErr))
	assert.Equal(t, exitInvalidRoot, exitCode(err))

	file := filepath.Join(t.TempDir(), "file.py")
	require.NoError(t, os.WriteFile(file, []byte("x = 1\n"), 0644))
	_, err = executeIndex(context.Background(), quietOptions(file))
	assert.True(t, errors.As(err, &rootErr))
}

func TestExecuteIndex_RejectsInvalidOverrides(t *testing.T) {
	t.Parallel()

	root := writeProject(t)
	opts := quietOptions(root)
	opts.overrides = func(cfg *config.Config) {
		cfg.Output.Format = "xml"
	}

	_, err := executeIndex(context.Background(), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidFormat)
	assert.NoFileExists(t, filepath.Join(root, "ProjectIndex.json"))
}

func TestExecuteIndex_SQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	root := writeProject(t)
	opts := quietOptions(root)
	opts.overrides = func(cfg *config.Config) {
		cfg.Output.Format = indexer.FormatSQLite
		cfg.Output.Path = "index.db"
	}

	_, err := executeIndex(context.Background(), opts)
	require.NoError(t, err)

	db, err := storage.Open(filepath.Join(root, "index.db"))
	require.NoError(t, err)
	defer db.Close()

	var out bytes.Buffer
	require.NoError(t, inspectIndex(&out, storage.NewIndexReader(db), "A"))
	assert.Equal(t, "pkg/a.py:1 class A\n", out.String())

	out.Reset()
	require.NoError(t, inspectIndex(&out, storage.NewIndexReader(db), ""))
	assert.Contains(t, out.String(), "Files:        1")
	assert.Contains(t, out.String(), "Declarations: 2")
}

func TestExecuteIndex_Cancelled(t *testing.T) {
	t.Parallel()

	root := writeProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := executeIndex(ctx, quietOptions(root))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(root, "ProjectIndex.json"))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
	assert.Equal(t, exitInvalidRoot, exitCode(&indexer.InvalidRootError{Path: "x", Err: os.ErrNotExist}))
	assert.Equal(t, exitFatalStartup, exitCode(&grammar.FatalStartupError{Tag: grammar.Go, Err: errors.New("abi")}))
	assert.Equal(t, exitWriteFailure, exitCode(&indexer.WriteError{Path: "out.json", Err: os.ErrPermission}))
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
}
