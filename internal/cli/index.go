package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mvp-joe/project-indexer/internal/config"
	"github.com/mvp-joe/project-indexer/internal/indexer"
	"github.com/spf13/cobra"
)

var (
	outputFlag       string
	formatFlag       string
	importsFlag      bool
	workersFlag      int
	quietFlag        bool
	includeTestsFlag bool
	goBackendFlag    string
	fileTimeoutFlag  time.Duration
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&outputFlag, "output", "o", "", "output file, relative to the root unless absolute (default ProjectIndex.json)")
	flags.StringVar(&formatFlag, "format", "", "output format: structured, flat or sqlite (default structured)")
	flags.BoolVar(&importsFlag, "imports", false, "also extract imports and exports")
	flags.IntVarP(&workersFlag, "workers", "j", 0, "number of files extracted concurrently (default one per CPU)")
	flags.BoolVarP(&quietFlag, "quiet", "q", false, "disable progress bars and per-file warnings")
	flags.BoolVar(&includeTestsFlag, "include-tests", false, "index test sources as well")
	flags.StringVar(&goBackendFlag, "go-backend", "", "Go parser: treesitter or goast (default treesitter)")
	flags.DurationVar(&fileTimeoutFlag, "file-timeout", 0, "per-file extraction budget (default 10s)")
}

// indexOptions holds everything runIndex resolves from arguments and flags.
type indexOptions struct {
	rootDir    string
	configFile string
	overrides  func(*config.Config)
	quiet      bool
	verbose    bool
	progress   indexer.ProgressReporter
}

func runIndex(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted! Cancelling indexing...")
			cancel()
		case <-ctx.Done():
		}
	}()

	rootDir := "."
	if len(args) > 0 {
		rootDir = args[0]
	}

	flags := cmd.Flags()
	opts := indexOptions{
		rootDir:    rootDir,
		configFile: cfgFile,
		quiet:      quietFlag,
		verbose:    verbose,
		progress:   NewCLIProgressReporter(quietFlag),
		overrides: func(cfg *config.Config) {
			// Flags win over config file and environment, but only when set
			if flags.Changed("output") {
				cfg.Output.Path = outputFlag
			}
			if flags.Changed("format") {
				cfg.Output.Format = formatFlag
			}
			if flags.Changed("imports") {
				cfg.Indexer.Imports = importsFlag
			}
			if flags.Changed("workers") {
				cfg.Indexer.Workers = workersFlag
			}
			if flags.Changed("include-tests") {
				cfg.Paths.IncludeTests = includeTestsFlag
			}
			if flags.Changed("go-backend") {
				cfg.Indexer.GoBackend = goBackendFlag
			}
			if flags.Changed("file-timeout") {
				cfg.Indexer.FileTimeout = fileTimeoutFlag
			}
		},
	}

	stats, err := executeIndex(ctx, opts)
	if err != nil {
		// Check if it was a cancellation
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return fmt.Errorf("indexing cancelled")
		}
		return err
	}

	// Print summary (if not quiet, OnComplete already printed it)
	if quietFlag {
		fmt.Printf("Indexing complete: %s\n", stats)
	}

	return nil
}

// executeIndex validates the root, loads configuration and runs one
// indexing pass.
func executeIndex(ctx context.Context, opts indexOptions) (*indexer.Stats, error) {
	rootDir, err := filepath.Abs(opts.rootDir)
	if err != nil {
		return nil, &indexer.InvalidRootError{Path: opts.rootDir, Err: err}
	}
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, &indexer.InvalidRootError{Path: opts.rootDir, Err: err}
	}
	if !info.IsDir() {
		return nil, &indexer.InvalidRootError{Path: opts.rootDir, Err: errors.New("not a directory")}
	}

	var loader config.Loader
	if opts.configFile != "" {
		loader = config.NewFileLoader(rootDir, opts.configFile)
	} else {
		loader = config.NewLoader(rootDir)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.overrides != nil {
		opts.overrides(cfg)
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("invalid flags: %w", err)
		}
	}

	// Convert to indexer configuration
	indexerConfig := cfg.ToIndexerConfig(rootDir)
	indexerConfig.Quiet = opts.quiet
	indexerConfig.Verbose = opts.verbose

	if opts.verbose {
		log.Printf("Indexing %s -> %s (%s)\n", rootDir, indexerConfig.ResolvedOutputPath(), indexerConfig.Format)
	}

	idx, err := indexer.NewWithProgress(indexerConfig, opts.progress)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer: %w", err)
	}
	defer idx.Close()

	stats, err := idx.Index(ctx)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
