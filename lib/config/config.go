// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "LITEFLOW_CONFIG"

// MemoryDatabase is the database path that selects the in-memory task
// store instead of SQLite.
const MemoryDatabase = ":memory:"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for liteflow.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures file and directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Store configures the SQLite task store.
	Store StoreConfig `yaml:"store"`

	// Logging configures the CLI logger.
	Logging LoggingConfig `yaml:"logging"`

	// Snapshot configures snapshot export.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths    *PathsConfig    `yaml:"paths,omitempty"`
	Store    *StoreConfig    `yaml:"store,omitempty"`
	Logging  *LoggingConfig  `yaml:"logging,omitempty"`
	Snapshot *SnapshotConfig `yaml:"snapshot,omitempty"`
}

// PathsConfig configures file and directory locations.
type PathsConfig struct {
	// Root is the base directory for liteflow data.
	Root string `yaml:"root"`

	// Database is the SQLite database file, or ":memory:" for a
	// throwaway in-process store.
	Database string `yaml:"database"`

	// Rules is the workflow rule file (.yaml, .yml, .json, or .jsonc).
	Rules string `yaml:"rules"`

	// Snapshots is the default directory for snapshot exports.
	Snapshots string `yaml:"snapshots"`
}

// StoreConfig configures the SQLite task store.
type StoreConfig struct {
	// PoolSize is the number of pooled connections.
	// Default: 4
	PoolSize int `yaml:"pool_size"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	// Level is a slog level name: debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is "auto" (text on a terminal, JSON otherwise), "text",
	// or "json".
	// Default: auto (development), json (production)
	Format string `yaml:"format"`
}

// SnapshotConfig configures snapshot export.
type SnapshotConfig struct {
	// Compression is "none", "lz4", or "zstd".
	// Default: zstd
	Compression string `yaml:"compression"`
}

var (
	logFormats   = []string{"auto", "text", "json"}
	compressions = []string{"none", "lz4", "zstd"}
)

// unexpandedDefaults holds the defaults before variable expansion.
// LoadFile merges the file into this so that path defaults follow a
// configured root.
func unexpandedDefaults() *Config {
	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:      "${HOME}/.cache/liteflow",
			Database:  "${LITEFLOW_ROOT}/liteflow.db",
			Rules:     "${LITEFLOW_ROOT}/workflows.yaml",
			Snapshots: "${LITEFLOW_ROOT}/snapshots",
		},
		Store: StoreConfig{
			PoolSize: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Snapshot: SnapshotConfig{
			Compression: "zstd",
		},
	}
}

// Default returns the default configuration with paths expanded. The
// CLI uses it when no config file is named.
func Default() *Config {
	cfg := unexpandedDefaults()
	cfg.expandVariables()
	return cfg
}

// Load loads configuration from the file named by LITEFLOW_CONFIG.
// It fails when the variable is not set.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your liteflow.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// Resolve loads the file named by flagPath, or by LITEFLOW_CONFIG when
// flagPath is empty, or returns [Default] when neither is set.
func Resolve(flagPath string) (*Config, error) {
	if flagPath != "" {
		return LoadFile(flagPath)
	}
	if os.Getenv(EnvironmentVariable) != "" {
		return Load()
	}
	return Default(), nil
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := unexpandedDefaults()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: machine-readable logs.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Logging: &LoggingConfig{Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Database != "" {
			c.Paths.Database = overrides.Paths.Database
		}
		if overrides.Paths.Rules != "" {
			c.Paths.Rules = overrides.Paths.Rules
		}
		if overrides.Paths.Snapshots != "" {
			c.Paths.Snapshots = overrides.Paths.Snapshots
		}
	}

	if overrides.Store != nil && overrides.Store.PoolSize != 0 {
		c.Store.PoolSize = overrides.Store.PoolSize
	}

	if overrides.Logging != nil {
		if overrides.Logging.Level != "" {
			c.Logging.Level = overrides.Logging.Level
		}
		if overrides.Logging.Format != "" {
			c.Logging.Format = overrides.Logging.Format
		}
	}

	if overrides.Snapshot != nil && overrides.Snapshot.Compression != "" {
		c.Snapshot.Compression = overrides.Snapshot.Compression
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["LITEFLOW_ROOT"] = c.Paths.Root

	c.Paths.Database = expandVars(c.Paths.Database, vars)
	c.Paths.Rules = expandVars(c.Paths.Rules, vars)
	c.Paths.Snapshots = expandVars(c.Paths.Snapshots, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// InMemory reports whether the configured database is the in-memory
// store.
func (c *Config) InMemory() bool {
	return c.Paths.Database == MemoryDatabase
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, errors.New("paths.root is required"))
	}
	if c.Paths.Database == "" {
		errs = append(errs, errors.New("paths.database is required"))
	}
	if c.Paths.Rules == "" {
		errs = append(errs, errors.New("paths.rules is required"))
	}

	if c.Store.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("store.pool_size must be at least 1, got %d", c.Store.PoolSize))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains(logFormats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", logFormats))
	}

	if !slices.Contains(compressions, c.Snapshot.Compression) {
		errs = append(errs, fmt.Errorf("snapshot.compression must be one of: %v", compressions))
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the data directories and the parent directories
// of the database and rule file.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Snapshots,
		filepath.Dir(c.Paths.Rules),
	}
	if c.Paths.Database != "" && !c.InMemory() {
		paths = append(paths, filepath.Dir(c.Paths.Database))
	}

	for _, path := range paths {
		if path == "" || path == "." {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
