// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/tabmirror/tabmirror/lib/journal"
)

// Config is the master configuration for tabmirror commands.
type Config struct {
	// Logging configures the structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// Journal configures snapshot journaling.
	Journal JournalConfig `yaml:"journal"`

	// Scenario configures the default scenario source.
	Scenario ScenarioConfig `yaml:"scenario"`
}

// LoggingConfig configures the structured log output.
type LoggingConfig struct {
	// Level is the minimum level that is emitted.
	// Values: "debug", "info", "warn", "error"
	// Default: info
	Level string `yaml:"level"`

	// Format selects the log encoding.
	// Values: "text", "json"
	// Default: text
	Format string `yaml:"format"`
}

// JournalConfig configures snapshot journaling.
type JournalConfig struct {
	// Enabled turns journaling on. When false the other fields are
	// ignored.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the journal file to write. Required when Enabled.
	// Default: ${HOME}/.cache/tabmirror/run.journal
	Path string `yaml:"path"`

	// Compression selects the per-frame journal compression.
	// Values: "none", "lz4", "zstd"
	// Default: zstd
	Compression string `yaml:"compression"`
}

// ScenarioConfig configures the default scenario source.
type ScenarioConfig struct {
	// Path is the scenario file to run when the command line names
	// none.
	Path string `yaml:"path"`
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file. They exist primarily to
// ensure all fields have sensible zero-values, not as a fallback -
// the config file is required for [Load].
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Journal: JournalConfig{
			Enabled:     false,
			Path:        filepath.Join(homeDir, ".cache", "tabmirror", "run.journal"),
			Compression: "zstd",
		},
	}
}

// Load loads configuration from the TABMIRROR_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit
// path. There are no fallbacks or defaults - if TABMIRROR_CONFIG is
// not set, this fails. This ensures deterministic, auditable
// configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("TABMIRROR_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("TABMIRROR_CONFIG environment variable not set; " +
			"set it to the path of your tabmirror.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment
// variables do not override config values - this ensures
// deterministic, auditable configuration. The only expansion
// performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the
// current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Journal.Path = expandVars(c.Journal.Path, vars)
	c.Scenario.Path = expandVars(c.Scenario.Path, vars)
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

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levels))
	}

	formats := []string{"text", "json"}
	if !contains(formats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", formats))
	}

	if _, err := journal.ParseCompressionTag(c.Journal.Compression); err != nil {
		errs = append(errs, fmt.Errorf("journal.compression: %w", err))
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, fmt.Errorf("journal.path is required when journaling is enabled"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LogLevel returns the configured logging level as a slog.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown logging level: %q", c.Logging.Level)
	}
}

// Logger builds a slog.Logger writing to w according to the logging
// section.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := c.LogLevel()
	if err != nil {
		return nil, err
	}

	options := &slog.HandlerOptions{Level: level}
	switch c.Logging.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, options)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, options)), nil
	default:
		return nil, fmt.Errorf("unknown logging format: %q", c.Logging.Format)
	}
}

// JournalCompression returns the configured journal compression tag.
func (c *Config) JournalCompression() (journal.CompressionTag, error) {
	return journal.ParseCompressionTag(c.Journal.Compression)
}

// EnsureJournalDir creates the directory of the configured journal
// file if it does not exist. A no-op when journaling is disabled.
func (c *Config) EnsureJournalDir() error {
	if !c.Journal.Enabled || c.Journal.Path == "" {
		return nil
	}

	dir := filepath.Dir(c.Journal.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
