package indexer

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"time"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	"github.com/mvp-joe/project-indexer/internal/indexer/parsers"
)

// Indexer provides the main interface for indexing a project.
type Indexer interface {
	// Index walks the project, extracts every eligible file and writes the
	// index. Returns statistics about the run.
	Index(ctx context.Context) (*Stats, error)

	// Close releases all resources held by the indexer.
	Close() error
}

// Config contains configuration for the indexer.
type Config struct {
	// Root directory of the project to index
	RootDir string

	// Output file; relative paths are resolved against RootDir
	OutputPath string

	// Output format: structured, flat or sqlite
	Format string

	// Paths configuration
	IgnorePatterns []string
	IncludeTests   bool

	// Extraction configuration
	Imports     bool
	GoBackend   string
	Workers     int
	FileTimeout time.Duration

	// CacheCapacity bounds the content-hash extraction cache
	CacheCapacity int

	Quiet   bool
	Verbose bool
}

// DefaultConfig returns default configuration.
func DefaultConfig(rootDir string) *Config {
	return &Config{
		RootDir:       rootDir,
		OutputPath:    "ProjectIndex.json",
		Format:        FormatStructured,
		GoBackend:     parsers.GoBackendTreeSitter,
		Workers:       runtime.NumCPU(),
		FileTimeout:   DefaultFileTimeout,
		CacheCapacity: DefaultCacheCapacity,
	}
}

// ResolvedOutputPath returns the output path, anchored at RootDir when it
// is relative.
func (c *Config) ResolvedOutputPath() string {
	if filepath.IsAbs(c.OutputPath) {
		return c.OutputPath
	}
	return filepath.Join(c.RootDir, c.OutputPath)
}

// indexer implements Indexer.
type indexer struct {
	config     *Config
	progress   ProgressReporter
	extractors *parsers.Registry
	cache      *ExtractionCache
	walker     *Walker
}

// New creates a new indexer with the given configuration.
func New(config *Config) (Indexer, error) {
	return NewWithProgress(config, nil)
}

// NewWithProgress creates a new indexer with a custom progress reporter.
// Grammar or query failures are returned as *grammar.FatalStartupError.
func NewWithProgress(config *Config, progress ProgressReporter) (Indexer, error) {
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}

	gate, err := NewGate(config.IgnorePatterns, config.IncludeTests)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore pattern: %w", err)
	}

	grammars, err := grammar.Load(grammar.ParsedTags()...)
	if err != nil {
		return nil, err
	}

	extractors, err := parsers.NewRegistry(grammars, parsers.Options{
		Imports:   config.Imports,
		GoBackend: config.GoBackend,
	})
	if err != nil {
		return nil, err
	}

	cache, err := NewExtractionCache(config.CacheCapacity)
	if err != nil {
		extractors.Close()
		return nil, err
	}

	walker := NewWalker(WalkerOptions{
		Gate:        gate,
		Extractors:  extractors,
		Cache:       cache,
		Progress:    progress,
		Workers:     config.Workers,
		FileTimeout: config.FileTimeout,
		Imports:     config.Imports,
		Quiet:       config.Quiet,
		Verbose:     config.Verbose,
	})

	return &indexer{
		config:     config,
		progress:   progress,
		extractors: extractors,
		cache:      cache,
		walker:     walker,
	}, nil
}

// Index runs the walk and writes the result.
func (idx *indexer) Index(ctx context.Context) (*Stats, error) {
	startTime := time.Now()

	index, stats, err := idx.walker.Walk(ctx, idx.config.RootDir)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	phaseStart := time.Now()
	if err := idx.write(index); err != nil {
		return nil, err
	}
	if idx.config.Verbose {
		log.Printf("[TIMING] Write %s index: %v\n", idx.format(), time.Since(phaseStart))
		log.Printf("[TIMING] ===== TOTAL INDEX TIME: %v =====\n", time.Since(startTime))
	}

	stats.ProcessingTime = time.Since(startTime)
	idx.progress.OnComplete(stats)
	return stats, nil
}

func (idx *indexer) write(index *extraction.ProjectIndex) error {
	format := idx.format()
	idx.progress.OnWriting(format)

	root, err := filepath.Abs(idx.config.RootDir)
	if err != nil {
		root = idx.config.RootDir
	}
	return WriteIndex(index, format, idx.config.ResolvedOutputPath(), root)
}

func (idx *indexer) format() string {
	if idx.config.Format == "" {
		return FormatStructured
	}
	return idx.config.Format
}

// Close releases all resources held by the indexer.
func (idx *indexer) Close() error {
	idx.cache.Close()
	idx.extractors.Close()
	return nil
}
