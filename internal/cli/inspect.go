package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mvp-joe/project-indexer/internal/storage"
	"github.com/spf13/cobra"
)

// inspectCmd reads back a SQLite index written with --format sqlite
var inspectCmd = &cobra.Command{
	Use:   "inspect <index.db> [name]",
	Short: "Show the latest run of a SQLite index",
	Long: `Inspect opens an index database written with --format sqlite.

Without a name it shows the latest run:
  - Project root and run id
  - Number of files and declarations

With a name it lists every declaration of that name in the latest run,
one per line as path:line kind name [scope].`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(args[0]); err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}

	db, err := storage.Open(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	name := ""
	if len(args) > 1 {
		name = args[1]
	}
	return inspectIndex(cmd.OutOrStdout(), storage.NewIndexReader(db), name)
}

// inspectIndex prints the latest run, or the declarations named name.
func inspectIndex(w io.Writer, reader *storage.IndexReader, name string) error {
	run, err := reader.LatestRun()
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}

	if name == "" {
		fmt.Fprintf(w, "Run:          %s\n", run.RunID)
		fmt.Fprintf(w, "Root:         %s\n", run.Root)
		fmt.Fprintf(w, "Created:      %s\n", run.CreatedAt)
		fmt.Fprintf(w, "Files:        %s\n", formatNumber(run.FileCount))
		fmt.Fprintf(w, "Declarations: %s\n", formatNumber(run.DeclarationCount))
		return nil
	}

	decls, err := reader.FindByName(run.RunID, name)
	if err != nil {
		return err
	}
	if len(decls) == 0 {
		fmt.Fprintf(w, "No declarations named %s\n", name)
		return nil
	}
	for _, d := range decls {
		if d.Scope != "" {
			fmt.Fprintf(w, "%s:%d %s %s [%s]\n", d.FilePath, d.Line, d.Kind, d.Name, d.Scope)
		} else {
			fmt.Fprintf(w, "%s:%d %s %s\n", d.FilePath, d.Line, d.Kind, d.Name)
		}
	}
	return nil
}
