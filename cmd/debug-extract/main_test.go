package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for debug-extract:
// - A supported file prints one line per declaration and the JSON result
// - Unsupported extensions and missing arguments are errors

func TestRootCmd_DumpsDeclarations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.py")
	require.NoError(t, os.WriteFile(path, []byte("class A(B):\n    def m(self) -> int:\n        return 1\n"), 0644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{path})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "(python) ===")
	assert.Contains(t, out.String(), "class      line 1    scope -            A")
	assert.Contains(t, out.String(), `"m(self) -> int"`)
}

func TestRootCmd_Errors(t *testing.T) {
	rootCmd.SetArgs([]string{"notes.txt"})
	assert.ErrorContains(t, rootCmd.Execute(), "unsupported file extension")

	rootCmd.SetArgs([]string{})
	assert.Error(t, rootCmd.Execute())
}
