// Command debug-extract prints the declarations extracted from a single file,
// bypassing the project walk, gate and cache.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	"github.com/mvp-joe/project-indexer/internal/indexer/parsers"
	"github.com/spf13/cobra"
)

var (
	importsFlag   bool
	goBackendFlag string
)

var rootCmd = &cobra.Command{
	Use:           "debug-extract <file>",
	Short:         "Print the declarations extracted from one source file",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runExtract,
}

func init() {
	rootCmd.Flags().BoolVar(&importsFlag, "imports", false, "also extract imports and exports")
	rootCmd.Flags().StringVar(&goBackendFlag, "go-backend", parsers.GoBackendTreeSitter, "Go parser: treesitter or goast")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]

	tag, ok := grammar.ForPath(path)
	if !ok {
		return fmt.Errorf("unsupported file extension: %s", path)
	}

	grammars, err := grammar.Load(tag)
	if err != nil {
		return err
	}
	registry, err := parsers.NewRegistry(grammars, parsers.Options{Imports: importsFlag, GoBackend: goBackendFlag})
	if err != nil {
		return err
	}
	defer registry.Close()

	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	extractor, _ := registry.For(tag)
	result, err := extractor.Extract(cmd.Context(), path, src)
	if err != nil {
		if !errors.Is(err, grammar.ErrSyntax) || result == nil {
			return err
		}
		log.Printf("Warning: %v\n", err)
	}

	return dump(cmd.OutOrStdout(), path, tag, result)
}

func dump(w io.Writer, path string, tag grammar.Tag, result *extraction.FileResult) error {
	fmt.Fprintf(w, "=== %s (%s) ===\n", path, tag)
	for _, rec := range result.All() {
		scope := rec.Scope
		if scope == "" {
			scope = "-"
		}
		fmt.Fprintf(w, "  %-10s line %-4d scope %-12s %s\n", rec.Kind, rec.Line, scope, rec.Name)
	}

	fmt.Fprintln(w, "\n=== JSON ===")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(result)
}
