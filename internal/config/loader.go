package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ConfigFileName is the project config file name without extension.
const ConfigFileName = ".project-indexer"

// EnvPrefix prefixes environment overrides (e.g. PROJECT_INDEXER_INDEXER_WORKERS).
const EnvPrefix = "PROJECT_INDEXER"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a new configuration loader for the given root directory.
// It looks for .project-indexer.yaml (or .yml) in the root.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// NewFileLoader creates a loader for an explicit config file. Unlike the
// root lookup, a missing explicit file is an error.
func NewFileLoader(rootDir, configFile string) Loader {
	return &loader{
		rootDir:    rootDir,
		configFile: configFile,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (PROJECT_INDEXER_*)
// 2. Config file
// 3. Default values
func (l *loader) Load() (*Config, error) {
	// Configure viper
	v := viper.New()

	// Set up config file search
	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(l.rootDir)
	}

	// Enable environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., PROJECT_INDEXER_OUTPUT_FORMAT)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables to config keys
	// Paths configuration
	v.BindEnv("paths.include_tests")

	// Indexer configuration
	v.BindEnv("indexer.workers")
	v.BindEnv("indexer.file_timeout")
	v.BindEnv("indexer.imports")
	v.BindEnv("indexer.go_backend")
	v.BindEnv("indexer.cache_capacity")

	// Output configuration
	v.BindEnv("output.path")
	v.BindEnv("output.format")

	// Set defaults in viper
	setDefaults(v)

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || l.configFile != "" {
			// Some other error occurred while reading the config file
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate the configuration
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	// Paths defaults
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)
	v.SetDefault("paths.include_tests", defaults.Paths.IncludeTests)

	// Indexer defaults
	v.SetDefault("indexer.workers", defaults.Indexer.Workers)
	v.SetDefault("indexer.file_timeout", defaults.Indexer.FileTimeout)
	v.SetDefault("indexer.imports", defaults.Indexer.Imports)
	v.SetDefault("indexer.go_backend", defaults.Indexer.GoBackend)
	v.SetDefault("indexer.cache_capacity", defaults.Indexer.CacheCapacity)

	// Output defaults
	v.SetDefault("output.path", defaults.Output.Path)
	v.SetDefault("output.format", defaults.Output.Format)
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
