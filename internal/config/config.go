package config

import (
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/DeusData/kcl-ast/internal/recast"
)

// FileName is the per-workspace configuration file.
const FileName = ".kclconfig"

// Config holds user-overridable workspace settings.
// Loaded from .kclconfig in the workspace root.
type Config struct {
	Format FormatConfig `yaml:"format"`
	Index  IndexConfig  `yaml:"index"`
	Watch  WatchConfig  `yaml:"watch"`
}

// FormatConfig controls how documents are recast.
type FormatConfig struct {
	TabSize            *int  `yaml:"tab_size"`
	UseTabs            *bool `yaml:"use_tabs"`
	InsertFinalNewline *bool `yaml:"insert_final_newline"`
}

// IndexConfig controls workspace indexing.
type IndexConfig struct {
	// ExcludePaths are directory names skipped in addition to the built-in ignore list.
	ExcludePaths []string `yaml:"exclude_paths"`

	// MaxWorkers bounds concurrent parsing. Default: number of CPUs.
	MaxWorkers *int `yaml:"max_workers"`

	// Schedule is a cron spec for periodic re-indexing. Empty disables it.
	Schedule string `yaml:"schedule"`
}

// WatchConfig controls the polling watcher.
type WatchConfig struct {
	// Enabled defaults to true.
	Enabled *bool `yaml:"enabled"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{}
}

// Load reads .kclconfig from dir.
// Returns the default config if the file is missing or invalid.
func Load(dir string) *Config {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default()
	}

	return cfg
}

// FormatOptions returns the recast options with defaults filled in.
func (c *Config) FormatOptions() recast.FormatOptions {
	opts := recast.DefaultOptions()
	if c.Format.TabSize != nil && *c.Format.TabSize > 0 {
		opts.TabSize = *c.Format.TabSize
	}
	if c.Format.UseTabs != nil {
		opts.UseTabs = *c.Format.UseTabs
	}
	if c.Format.InsertFinalNewline != nil {
		opts.InsertFinalNewline = *c.Format.InsertFinalNewline
	}
	return opts
}

// EffectiveMaxWorkers returns the configured worker count, or the number of CPUs.
func (c *Config) EffectiveMaxWorkers() int {
	if c.Index.MaxWorkers != nil && *c.Index.MaxWorkers > 0 {
		return *c.Index.MaxWorkers
	}
	return runtime.NumCPU()
}

// EffectiveWatch reports whether the watcher should poll this workspace.
func (c *Config) EffectiveWatch() bool {
	if c.Watch.Enabled != nil {
		return *c.Watch.Enabled
	}
	return true
}
