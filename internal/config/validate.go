package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/project-indexer/internal/indexer"
	"github.com/mvp-joe/project-indexer/internal/indexer/parsers"
)

var (
	// ErrInvalidIgnorePattern indicates an ignore glob that does not compile
	ErrInvalidIgnorePattern = errors.New("invalid ignore pattern")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidTimeout indicates a non-positive per-file timeout
	ErrInvalidTimeout = errors.New("invalid file timeout")

	// ErrInvalidGoBackend indicates an unsupported Go parsing backend
	ErrInvalidGoBackend = errors.New("invalid go backend")

	// ErrInvalidCacheCapacity indicates a negative cache capacity
	ErrInvalidCacheCapacity = errors.New("invalid cache capacity")

	// ErrInvalidFormat indicates an unsupported output format
	ErrInvalidFormat = errors.New("invalid output format")

	// ErrEmptyOutput indicates a missing output path
	ErrEmptyOutput = errors.New("empty output path")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	// Validate paths configuration
	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	// Validate indexer configuration
	if err := validateIndexer(&cfg.Indexer); err != nil {
		errs = append(errs, err)
	}

	// Validate output configuration
	if err := validateOutput(&cfg.Output); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	for _, pattern := range cfg.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: '%s': %v", ErrInvalidIgnorePattern, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateIndexer(cfg *IndexerConfig) error {
	var errs []error

	// Zero means one worker per CPU
	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	if cfg.FileTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: file_timeout must be positive, got %v", ErrInvalidTimeout, cfg.FileTimeout))
	}

	if cfg.GoBackend != parsers.GoBackendTreeSitter && cfg.GoBackend != parsers.GoBackendAST {
		errs = append(errs, fmt.Errorf("%w: must be '%s' or '%s', got '%s'",
			ErrInvalidGoBackend, parsers.GoBackendTreeSitter, parsers.GoBackendAST, cfg.GoBackend))
	}

	if cfg.CacheCapacity < 0 {
		errs = append(errs, fmt.Errorf("%w: cache_capacity cannot be negative, got %d", ErrInvalidCacheCapacity, cfg.CacheCapacity))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateOutput(cfg *OutputConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: output path is required", ErrEmptyOutput))
	}

	if !slices.Contains(indexer.Formats, cfg.Format) {
		errs = append(errs, fmt.Errorf("%w: must be one of %s, got '%s'",
			ErrInvalidFormat, strings.Join(indexer.Formats, ", "), cfg.Format))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
