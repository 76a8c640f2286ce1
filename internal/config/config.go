// Package config provides configuration types and defaults for lexkit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/lexkit/internal/log"
)

// Config holds all configuration options for lexkit.
type Config struct {
	// Grammar is the path of a grammar file. Empty uses the built-in grammar.
	Grammar string        `mapstructure:"grammar"`
	Output  OutputConfig  `mapstructure:"output"`
	Index   IndexConfig   `mapstructure:"index"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Log     LogConfig     `mapstructure:"log"`
}

// OutputConfig controls how reports are printed.
type OutputConfig struct {
	Format string `mapstructure:"format"` // "text" (default) or "json"
	Color  bool   `mapstructure:"color"`  // highlight tokens with ANSI colors
}

// IndexConfig controls the SQLite capture index.
type IndexConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // default: ~/.lexkit/index.db
}

// WatchConfig controls --watch mode.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// CacheConfig controls the compiled pattern cache.
type CacheConfig struct {
	Expiration      time.Duration `mapstructure:"expiration"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// TracingConfig holds OpenTelemetry configuration for scans.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/lexkit/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	Debug bool   `mapstructure:"debug"`
	Path  string `mapstructure:"path"`  // default: lexkit-debug.log
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Output: OutputConfig{
			Format: "text",
		},
		Index: IndexConfig{
			Path: DefaultIndexPath(),
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Cache: CacheConfig{
			Expiration:      10 * time.Minute,
			CleanupInterval: 30 * time.Minute,
		},
		Tracing: TracingConfig{
			Exporter:     "file",
			FilePath:     DefaultTracesFilePath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Log: LogConfig{
			Path:  "lexkit-debug.log",
			Level: "debug",
		},
	}
}

// DefaultIndexPath returns ~/.lexkit/index.db or "" if home is unavailable.
func DefaultIndexPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lexkit", "index.db")
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/lexkit/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "lexkit", "traces", "traces.jsonl")
}

// Validate checks the configuration for errors. Empty values use defaults.
func Validate(cfg Config) error {
	switch cfg.Output.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("output.format must be \"text\" or \"json\", got %q", cfg.Output.Format)
	}

	if cfg.Index.Enabled && cfg.Index.Path == "" {
		return fmt.Errorf("index.path is required when the index is enabled")
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	if cfg.Cache.Expiration < 0 || cfg.Cache.CleanupInterval < 0 {
		return fmt.Errorf("cache durations must not be negative")
	}
	if err := ValidateTracing(cfg.Tracing); err != nil {
		return err
	}
	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(tracing TracingConfig) error {
	if !tracing.Enabled {
		return nil
	}
	switch tracing.Exporter {
	case "", "none", "stdout", "otlp":
	case "file":
		if tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required for the file exporter")
		}
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
	}
	if tracing.SampleRate < 0 || tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}
	return nil
}

// DefaultConfigTemplate returns the commented config written by config:init.
func DefaultConfigTemplate() string {
	return `# lexkit configuration

# Grammar file used by "lexkit scan" (default: built-in cpp-template grammar)
# grammar: ./grammars/cpp-template.yaml

output:
  format: text   # "text" or "json"
  color: false   # highlight tokens in "lexkit tokens"

# SQLite index of captured tokens
index:
  enabled: false
  # path: ~/.lexkit/index.db

watch:
  debounce: 300ms

# Compiled pattern cache
cache:
  expiration: 10m
  cleanup_interval: 30m

# OpenTelemetry tracing of scans
tracing:
  enabled: false
  exporter: file          # none, file, stdout, otlp
  # file_path: ~/.config/lexkit/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0

log:
  debug: false
  path: lexkit-debug.log
  level: debug
`
}

// WriteDefaultConfig creates a config file with default settings.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
