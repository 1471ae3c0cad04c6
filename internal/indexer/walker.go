package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
	"github.com/mvp-joe/project-indexer/internal/indexer/parsers"
	"golang.org/x/sync/errgroup"
)

// DefaultFileTimeout is the wall-clock budget for extracting one file.
const DefaultFileTimeout = 10 * time.Second

// Stats tracks what a walk did.
type Stats struct {
	FilesDiscovered int
	FilesSkipped    int
	FilesIndexed    int
	FilesFailed     int
	CacheHits       int
	Declarations    int
	ProcessingTime  time.Duration

	// Failures lists per-file errors sorted by path. Partially indexed files
	// appear here and are also counted in FilesIndexed.
	Failures []FileFailure
}

// FileFailure is one per-file error.
type FileFailure struct {
	Path string
	Err  error
}

// WalkerOptions configures a Walker.
type WalkerOptions struct {
	Gate        *Gate
	Extractors  *parsers.Registry
	Cache       *ExtractionCache
	Progress    ProgressReporter
	Workers     int
	FileTimeout time.Duration
	Imports     bool

	// Quiet suppresses per-file warnings.
	Quiet bool

	// Verbose enables [TIMING] lines.
	Verbose bool
}

// Walker discovers source files under a root and extracts them concurrently
// into a ProjectIndex.
type Walker struct {
	gate        *Gate
	extractors  *parsers.Registry
	cache       *ExtractionCache
	progress    ProgressReporter
	workers     int
	fileTimeout time.Duration
	imports     bool
	quiet       bool
	verbose     bool
}

// sourceFile is a file that passed the gate.
type sourceFile struct {
	path     string
	relPath  string
	language grammar.Tag
}

// NewWalker creates a walker. Zero-valued options fall back to defaults.
func NewWalker(opts WalkerOptions) *Walker {
	w := &Walker{
		gate:        opts.Gate,
		extractors:  opts.Extractors,
		cache:       opts.Cache,
		progress:    opts.Progress,
		workers:     opts.Workers,
		fileTimeout: opts.FileTimeout,
		imports:     opts.Imports,
		quiet:       opts.Quiet,
		verbose:     opts.Verbose,
	}
	if w.progress == nil {
		w.progress = &NoOpProgressReporter{}
	}
	if w.workers <= 0 {
		w.workers = runtime.NumCPU()
	}
	if w.fileTimeout <= 0 {
		w.fileTimeout = DefaultFileTimeout
	}
	if w.gate == nil {
		w.gate, _ = NewGate(nil, false)
	}
	return w
}

// Walk indexes every eligible file under root. Per-file problems are
// recorded in Stats.Failures and never abort the walk; only an invalid root
// or cancellation of ctx returns an error.
func (w *Walker) Walk(ctx context.Context, root string) (*extraction.ProjectIndex, *Stats, error) {
	startTime := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, &InvalidRootError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, nil, &InvalidRootError{Path: root, Err: errors.New("not a directory")}
	}

	phaseStart := time.Now()
	w.progress.OnDiscoveryStart()
	files, skipped, err := w.discover(ctx, root)
	if err != nil {
		return nil, nil, err
	}
	w.progress.OnDiscoveryComplete(len(files), skipped)
	w.timing("Discovery: %v (%d files, %d skipped)", time.Since(phaseStart), len(files), skipped)

	stats := &Stats{
		FilesDiscovered: len(files),
		FilesSkipped:    skipped,
	}
	index := extraction.NewProjectIndex()

	phaseStart = time.Now()
	w.progress.OnFileProcessingStart(len(files))
	if err := w.processFiles(ctx, files, index, stats); err != nil {
		return nil, nil, err
	}
	w.timing("Extraction: %v (%d workers)", time.Since(phaseStart), w.workers)

	sort.Slice(stats.Failures, func(i, j int) bool {
		return stats.Failures[i].Path < stats.Failures[j].Path
	})
	stats.Declarations = index.DeclarationCount()
	stats.ProcessingTime = time.Since(startTime)

	return index, stats, nil
}

// discover walks root in lexical order and returns the files the gate lets
// through. Symlinked directories are not followed.
func (w *Walker) discover(ctx context.Context, root string) ([]sourceFile, int, error) {
	var files []sourceFile
	skipped := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			w.warn("failed to access %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if w.gate.SkipDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		decision := w.gate.Classify(relPath)
		if decision.Skip {
			if decision.Language != "" {
				skipped++
			}
			return nil
		}

		files = append(files, sourceFile{path: path, relPath: relPath, language: decision.Language})
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, &InvalidRootError{Path: root, Err: err}
	}

	return files, skipped, nil
}

// processFiles fans files out to a bounded worker pool.
func (w *Walker) processFiles(ctx context.Context, files []sourceFile, index *extraction.ProjectIndex, stats *Stats) error {
	var mu sync.Mutex
	var parsingTime time.Duration

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	for _, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fileStart := time.Now()
			result, cacheHit, err := w.processFile(gctx, file)
			elapsed := time.Since(fileStart)

			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}

			added := result != nil && index.Add(file.relPath, result)

			mu.Lock()
			parsingTime += elapsed
			if cacheHit {
				stats.CacheHits++
			}
			if added {
				stats.FilesIndexed++
			}
			if err != nil {
				stats.Failures = append(stats.Failures, FileFailure{Path: file.relPath, Err: err})
				if !added {
					stats.FilesFailed++
				}
			}
			mu.Unlock()

			if err != nil {
				w.warn("%v", err)
			}
			w.progress.OnFileProcessed(file.relPath)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w.timing("  - Parsing (cumulative): %v", parsingTime)
	return nil
}

// warn logs a per-file warning unless quiet.
func (w *Walker) warn(format string, args ...any) {
	if w.quiet {
		return
	}
	log.Printf("Warning: "+format+"\n", args...)
}

// timing logs a [TIMING] line when verbose.
func (w *Walker) timing(format string, args ...any) {
	if !w.verbose {
		return
	}
	log.Printf("[TIMING] "+format+"\n", args...)
}

// String summarizes the walk for the final report.
func (s *Stats) String() string {
	return fmt.Sprintf("%d files indexed, %d declarations, %d failures in %v",
		s.FilesIndexed, s.Declarations, len(s.Failures), s.ProcessingTime.Round(time.Millisecond))
}
