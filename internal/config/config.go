// Package config provides unified configuration loading for hydrorun.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/hydrorun/internal/codec"
	"github.com/nvandessel/hydrorun/internal/engine"
)

// DirName is the per-user configuration directory under $HOME.
const DirName = ".hydrorun"

// EngineBinary is the executable looked up inside the bin_Garden directory.
const EngineBinary = "gardenia.exe"

// HydrorunConfig contains all hydrorun configuration settings.
type HydrorunConfig struct {
	// Engine locates and drives the external simulation executable.
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Run holds defaults applied to every run.
	Run RunConfig `json:"run" yaml:"run"`

	// History configures the SQLite run history.
	History HistoryConfig `json:"history" yaml:"history"`

	// Stations points at the station registry source.
	Stations StationsConfig `json:"stations" yaml:"stations"`

	// Archive configures history archives and their retention.
	Archive ArchiveConfig `json:"archive" yaml:"archive"`

	// Logging contains settings for operational logging and the run journal.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// EngineConfig configures the engine process.
type EngineConfig struct {
	// Path is the engine executable. Supports ${VAR} syntax for env vars.
	Path string `json:"path" yaml:"path"`

	// Charset is the code page of the engine's text files.
	Charset string `json:"charset" yaml:"charset"`

	// Timeout bounds a single engine run. Zero waits forever.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// RunConfig holds per-run defaults.
type RunConfig struct {
	// WorkingDir is used when no --working-dir flag is given.
	WorkingDir string `json:"working_dir" yaml:"working_dir"`

	// Mode is the engine execution mode: "M", "D", "C" or "" (fast).
	Mode string `json:"mode" yaml:"mode"`

	// Extraction selects how decoders read report fields: "offsets" or "separators".
	Extraction string `json:"extraction" yaml:"extraction"`

	// ExportCSV writes output/*_sim_obs*.csv after parsing.
	ExportCSV bool `json:"export_csv" yaml:"export_csv"`

	// ExportArrow writes Arrow IPC copies next to the CSV exports.
	ExportArrow bool `json:"export_arrow" yaml:"export_arrow"`
}

// HistoryConfig configures the run history database.
type HistoryConfig struct {
	// Enabled records every run when true.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite file. Empty means ~/.hydrorun/history.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// StationsConfig locates the station code list.
type StationsConfig struct {
	// File holds one station code per line.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// ArchiveConfig configures where history archives go and how many are kept.
type ArchiveConfig struct {
	// Dir holds generated archives. Empty means ~/.hydrorun/archives.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	Retention RetentionConfig `json:"retention" yaml:"retention"`
}

// RetentionConfig bounds the archive directory. An archive is kept when any
// configured limit keeps it.
type RetentionConfig struct {
	// MaxCount keeps the newest N archives.
	MaxCount int `json:"max_count" yaml:"max_count"`

	// MaxAge keeps archives younger than this, e.g. "30d", "2w" or "720h".
	MaxAge string `json:"max_age,omitempty" yaml:"max_age,omitempty"`

	// MaxTotalSize keeps the newest archives up to this size, e.g. "100MB".
	MaxTotalSize string `json:"max_total_size,omitempty" yaml:"max_total_size,omitempty"`
}

// LoggingConfig configures hydrorun's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the run journal in output/journal.jsonl.
	// "trace" additionally logs the engine console.
	Level string `json:"level" yaml:"level"`
}

// Default returns a configuration with sensible defaults.
func Default() *HydrorunConfig {
	return &HydrorunConfig{
		Engine: EngineConfig{
			Path:    EngineBinary,
			Charset: codec.DefaultCharset,
		},
		Run: RunConfig{
			WorkingDir:  ".",
			Mode:        engine.ModeSilent,
			Extraction:  "offsets",
			ExportCSV:   true,
			ExportArrow: false,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Archive: ArchiveConfig{
			Retention: RetentionConfig{MaxCount: 10},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns ~/.hydrorun.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName), nil
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.hydrorun/config.yaml -> environment variables
func Load() (*HydrorunConfig, error) {
	config := Default()

	if configPath, err := Path(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*HydrorunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Engine.Path = expandEnvVars(config.Engine.Path)
	config.Run.WorkingDir = expandEnvVars(config.Run.WorkingDir)
	config.History.Path = expandEnvVars(config.History.Path)
	config.Stations.File = expandEnvVars(config.Stations.File)
	config.Archive.Dir = expandEnvVars(config.Archive.Dir)

	return config, nil
}

// Save writes the config to path, creating the parent directory.
func Save(c *HydrorunConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// HistoryPath resolves the history database location.
func (c *HydrorunConfig) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// ArchiveDir resolves the archive directory.
func (c *HydrorunConfig) ArchiveDir() (string, error) {
	if c.Archive.Dir != "" {
		return c.Archive.Dir, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "archives"), nil
}

// Validate checks that the configuration is valid.
func (c *HydrorunConfig) Validate() error {
	if c.Engine.Path == "" {
		return fmt.Errorf("engine path must not be empty")
	}

	if _, err := codec.Charset(c.Engine.Charset); err != nil {
		return fmt.Errorf("invalid engine charset: %w", err)
	}

	if c.Engine.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.Engine.Timeout)
	}

	if !engine.ValidMode(c.Run.Mode) {
		return fmt.Errorf("invalid mode: %q (valid: M, D, C, or empty for fast)", c.Run.Mode)
	}

	if _, err := codec.ParseExtraction(c.Run.Extraction); err != nil {
		return err
	}

	if c.Archive.Retention.MaxCount < 0 {
		return fmt.Errorf("archive.retention.max_count must be non-negative, got %d", c.Archive.Retention.MaxCount)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, warn, error, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Keys lists the dotted keys accepted by Get and Set.
func Keys() []string {
	keys := make([]string, 0, len(accessors))
	for k := range accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under a dotted key.
func (c *HydrorunConfig) Get(key string) (any, error) {
	a, ok := accessors[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return a.get(c), nil
}

// Set parses value and stores it under a dotted key.
func (c *HydrorunConfig) Set(key, value string) error {
	a, ok := accessors[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	return a.set(c, value)
}

type accessor struct {
	get func(*HydrorunConfig) any
	set func(*HydrorunConfig, string) error
}

func stringAccessor(field func(*HydrorunConfig) *string) accessor {
	return accessor{
		get: func(c *HydrorunConfig) any { return *field(c) },
		set: func(c *HydrorunConfig, v string) error { *field(c) = v; return nil },
	}
}

func boolAccessor(field func(*HydrorunConfig) *bool) accessor {
	return accessor{
		get: func(c *HydrorunConfig) any { return *field(c) },
		set: func(c *HydrorunConfig, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %s", v)
			}
			*field(c) = b
			return nil
		},
	}
}

func intAccessor(field func(*HydrorunConfig) *int) accessor {
	return accessor{
		get: func(c *HydrorunConfig) any { return *field(c) },
		set: func(c *HydrorunConfig, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer value: %s", v)
			}
			*field(c) = n
			return nil
		},
	}
}

var accessors = map[string]accessor{
	"engine.path":    stringAccessor(func(c *HydrorunConfig) *string { return &c.Engine.Path }),
	"engine.charset": stringAccessor(func(c *HydrorunConfig) *string { return &c.Engine.Charset }),
	"engine.timeout": {
		get: func(c *HydrorunConfig) any { return c.Engine.Timeout.String() },
		set: func(c *HydrorunConfig, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", v)
			}
			c.Engine.Timeout = d
			return nil
		},
	},
	"run.working_dir":  stringAccessor(func(c *HydrorunConfig) *string { return &c.Run.WorkingDir }),
	"run.mode":         stringAccessor(func(c *HydrorunConfig) *string { return &c.Run.Mode }),
	"run.extraction":   stringAccessor(func(c *HydrorunConfig) *string { return &c.Run.Extraction }),
	"run.export_csv":   boolAccessor(func(c *HydrorunConfig) *bool { return &c.Run.ExportCSV }),
	"run.export_arrow": boolAccessor(func(c *HydrorunConfig) *bool { return &c.Run.ExportArrow }),
	"history.enabled":  boolAccessor(func(c *HydrorunConfig) *bool { return &c.History.Enabled }),
	"history.path":     stringAccessor(func(c *HydrorunConfig) *string { return &c.History.Path }),
	"stations.file":    stringAccessor(func(c *HydrorunConfig) *string { return &c.Stations.File }),
	"archive.dir":      stringAccessor(func(c *HydrorunConfig) *string { return &c.Archive.Dir }),
	"archive.retention.max_count": intAccessor(func(c *HydrorunConfig) *int {
		return &c.Archive.Retention.MaxCount
	}),
	"archive.retention.max_age": stringAccessor(func(c *HydrorunConfig) *string {
		return &c.Archive.Retention.MaxAge
	}),
	"archive.retention.max_total_size": stringAccessor(func(c *HydrorunConfig) *string {
		return &c.Archive.Retention.MaxTotalSize
	}),
	"logging.level":    stringAccessor(func(c *HydrorunConfig) *string { return &c.Logging.Level }),
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *HydrorunConfig) {
	// bin_Garden names the engine's install directory.
	if v := os.Getenv("bin_Garden"); v != "" {
		config.Engine.Path = filepath.Join(v, EngineBinary)
	}

	if v := os.Getenv("HYDRORUN_ENGINE"); v != "" {
		config.Engine.Path = v
	}

	if v := os.Getenv("HYDRORUN_CHARSET"); v != "" {
		config.Engine.Charset = v
	}

	if v := os.Getenv("HYDRORUN_WORKING_DIR"); v != "" {
		config.Run.WorkingDir = v
	}

	// Empty is a valid mode, so presence matters rather than value.
	if v, ok := os.LookupEnv("HYDRORUN_MODE"); ok {
		config.Run.Mode = strings.ToUpper(strings.TrimSpace(v))
	}

	if v := os.Getenv("HYDRORUN_DB"); v != "" {
		config.History.Path = v
	}

	if v := os.Getenv("HYDRORUN_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
