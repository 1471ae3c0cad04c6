package parsers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	"github.com/stretchr/testify/require"
)

var sampleNames = map[grammar.Tag]string{
	grammar.Python:     "sample.py",
	grammar.TypeScript: "sample.ts",
	grammar.TSX:        "sample.tsx",
	grammar.JavaScript: "sample.js",
	grammar.CSharp:     "Sample.cs",
	grammar.Java:       "Sample.java",
	grammar.Rust:       "sample.rs",
	grammar.Go:         "sample.go",
	grammar.C:          "sample.c",
	grammar.PHP:        "sample.php",
	grammar.Ruby:       "sample.rb",
}

// extractWith runs the registry extractor for tag over src.
func extractWith(t *testing.T, tag grammar.Tag, src string, opts Options) (*extraction.FileResult, error) {
	t.Helper()

	grammars, err := grammar.Load(tag)
	require.NoError(t, err)

	if opts.GoBackend == "" {
		opts.GoBackend = GoBackendTreeSitter
	}
	registry, err := NewRegistry(grammars, opts)
	require.NoError(t, err)
	t.Cleanup(registry.Close)

	extractor, ok := registry.For(tag)
	require.True(t, ok, "no extractor for %s", tag)

	return extractor.Extract(context.Background(), sampleNames[tag], []byte(src))
}

// extractSource extracts declarations only and requires a clean parse.
func extractSource(t *testing.T, tag grammar.Tag, src string) *extraction.FileResult {
	t.Helper()
	result, err := extractWith(t, tag, src, Options{})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

// extractImports extracts declarations, imports and exports.
func extractImports(t *testing.T, tag grammar.Tag, src string) *extraction.FileResult {
	t.Helper()
	result, err := extractWith(t, tag, src, Options{Imports: true})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func recordNames(recs []extraction.Record) []string {
	names := []string{}
	for _, r := range recs {
		names = append(names, r.Name)
	}
	return names
}

func signatures(recs []extraction.Record) []string {
	sigs := []string{}
	for _, r := range recs {
		sigs = append(sigs, r.Signature)
	}
	return sigs
}

func findRecord(t *testing.T, recs []extraction.Record, name string) extraction.Record {
	t.Helper()
	for _, r := range recs {
		if r.Name == name {
			return r
		}
	}
	require.Failf(t, "record not found", "no record named %q in %v", name, recordNames(recs))
	return extraction.Record{}
}

// toJSON renders a file result through its structured encoding.
func toJSON(t *testing.T, result *extraction.FileResult) map[string]any {
	t.Helper()
	data, err := json.Marshal(result)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
