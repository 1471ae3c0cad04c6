package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitFailure      = 1
	exitInvalidRoot  = 2
	exitFatalStartup = 3
	exitWriteFailure = 4
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command. Called without a subcommand it
// indexes the given project root.
var rootCmd = &cobra.Command{
	Use:   "project-indexer [root]",
	Short: "Extract a structural declaration index from a source tree",
	Long: `project-indexer walks a project, parses every supported source file with
tree-sitter and writes a file-keyed index of its classes, structs, interfaces,
enums, methods, functions and (optionally) imports and exports.

Supported languages: Python, TypeScript, TSX, JavaScript, C#, Razor (path
only), Java, Rust, Go, C, PHP and Ruby.

Examples:
  # Index the current directory into ./ProjectIndex.json
  project-indexer

  # Index another project, including imports, with 4 workers
  project-indexer ../service --imports -j 4

  # Write the flattened [name, path, scope] form
  project-indexer --format flat -o types.json

  # Write to a SQLite database
  project-indexer --format sqlite -o index.db

Exit codes: 1 generic failure, 2 invalid root, 3 grammar or query load
failure, 4 index write failure.
`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runIndex,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps fatal errors to process exit codes.
func exitCode(err error) int {
	var rootErr *indexer.InvalidRootError
	var startupErr *grammar.FatalStartupError
	var writeErr *indexer.WriteError

	switch {
	case errors.As(err, &rootErr):
		return exitInvalidRoot
	case errors.As(err, &startupErr):
		return exitFatalStartup
	case errors.As(err, &writeErr):
		return exitWriteFailure
	}
	return exitFailure
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <root>/.project-indexer.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output with [TIMING] lines")
}
