// Package config provides configuration loading for the project indexer.
//
// Configuration Hierarchy (highest to lowest priority):
//  1. Command-line flags (applied by the CLI)
//  2. Environment variables (PROJECT_INDEXER_*)
//  3. Config file (.project-indexer.yaml in the project root, or --config)
//  4. Built-in defaults
package config

import (
	"runtime"
	"time"

	"github.com/mvp-joe/project-indexer/internal/indexer"
	"github.com/mvp-joe/project-indexer/internal/indexer/parsers"
)

// Config represents the complete indexer configuration.
type Config struct {
	Paths   PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Indexer IndexerConfig `yaml:"indexer" mapstructure:"indexer"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
}

// PathsConfig defines which files are left out of the index.
type PathsConfig struct {
	Ignore       []string `yaml:"ignore" mapstructure:"ignore"`               // glob patterns to ignore
	IncludeTests bool     `yaml:"include_tests" mapstructure:"include_tests"` // index test sources too
}

// IndexerConfig tunes extraction.
type IndexerConfig struct {
	Workers       int           `yaml:"workers" mapstructure:"workers"`               // 0 means one per CPU
	FileTimeout   time.Duration `yaml:"file_timeout" mapstructure:"file_timeout"`     // per-file extraction budget
	Imports       bool          `yaml:"imports" mapstructure:"imports"`               // extract imports and exports
	GoBackend     string        `yaml:"go_backend" mapstructure:"go_backend"`         // "treesitter" or "goast"
	CacheCapacity int           `yaml:"cache_capacity" mapstructure:"cache_capacity"` // distinct contents remembered
}

// OutputConfig defines where and how the index is written.
type OutputConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`     // relative to the project root unless absolute
	Format string `yaml:"format" mapstructure:"format"` // "structured", "flat" or "sqlite"
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Ignore:       []string{},
			IncludeTests: false,
		},
		Indexer: IndexerConfig{
			Workers:       runtime.NumCPU(),
			FileTimeout:   indexer.DefaultFileTimeout,
			Imports:       false,
			GoBackend:     parsers.GoBackendTreeSitter,
			CacheCapacity: indexer.DefaultCacheCapacity,
		},
		Output: OutputConfig{
			Path:   "ProjectIndex.json",
			Format: indexer.FormatStructured,
		},
	}
}

// ToIndexerConfig converts a Config to an indexer.Config.
// The rootDir parameter specifies the root directory of the project to index.
func (c *Config) ToIndexerConfig(rootDir string) *indexer.Config {
	return &indexer.Config{
		RootDir:        rootDir,
		OutputPath:     c.Output.Path,
		Format:         c.Output.Format,
		IgnorePatterns: c.Paths.Ignore,
		IncludeTests:   c.Paths.IncludeTests,
		Imports:        c.Indexer.Imports,
		GoBackend:      c.Indexer.GoBackend,
		Workers:        c.Indexer.Workers,
		FileTimeout:    c.Indexer.FileTimeout,
		CacheCapacity:  c.Indexer.CacheCapacity,
	}
}
