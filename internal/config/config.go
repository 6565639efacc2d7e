// Package config provides configuration types and defaults for entityreg.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/entityreg/internal/log"
)

// NamespaceConfig binds a namespace, optionally under a short alias.
type NamespaceConfig struct {
	Alias     string `mapstructure:"alias" yaml:"alias,omitempty"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

// ManagerConfig declares one named persistence manager.
type ManagerConfig struct {
	Name       string            `mapstructure:"name" yaml:"name"`
	Driver     string            `mapstructure:"driver" yaml:"driver,omitempty"` // "sqlite" (default)
	Namespaces []NamespaceConfig `mapstructure:"namespaces" yaml:"namespaces,omitempty"`
	Paths      []string          `mapstructure:"paths" yaml:"paths,omitempty"`
	Settings   map[string]any    `mapstructure:"settings" yaml:"settings,omitempty"` // engine-specific, passed through untouched
}

// Config holds all configuration options for entityreg.
type Config struct {
	// DefaultManager names the default manager. Empty selects the first declared manager.
	DefaultManager string `mapstructure:"default_manager"`

	// DefaultConnection names the default connection. Empty follows DefaultManager.
	DefaultConnection string `mapstructure:"default_connection"`

	// Managers are kept in declaration order; that order drives ManagerForClass.
	Managers []ManagerConfig `mapstructure:"managers"`

	// Namespaces and Paths are added to the default manager's chain.
	Namespaces []NamespaceConfig `mapstructure:"namespaces"`
	Paths      []string          `mapstructure:"paths"`

	// Extensions lists catalog identifiers registered at startup, in order.
	Extensions []string `mapstructure:"extensions"`

	// Mappings feeds the mapping-paths extension.
	Mappings MappingsConfig `mapstructure:"mappings"`

	Cache   CacheConfig   `mapstructure:"cache"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// MappingsConfig declares extra YAML mapping directories. The mapping-paths
// extension appends them to the default chain as a separate, lower-priority link.
type MappingsConfig struct {
	Namespaces []NamespaceConfig `mapstructure:"namespaces"`
	Paths      []string          `mapstructure:"paths"`
}

// CacheConfig controls the described-metadata cache.
type CacheConfig struct {
	// TTL is how long described metadata stays cached. Zero disables expiry.
	TTL time.Duration `mapstructure:"ttl"`

	// Sliding resets an entry's TTL on every hit.
	Sliding bool `mapstructure:"sliding"`
}

// WatchConfig controls the mapping-file watcher.
type WatchConfig struct {
	// Debounce coalesces bursts of file events.
	// Default: 200ms
	Debounce time.Duration `mapstructure:"debounce"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/entityreg/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// MetricsConfig controls the Prometheus collector.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Address serves /metrics while `watch` runs, e.g. ":9464". Empty disables serving.
	Address string `mapstructure:"address"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/entityreg/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "entityreg", "traces", "traces.jsonl")
}

// DefaultManagers returns a single sqlite manager named "default".
func DefaultManagers() []ManagerConfig {
	return []ManagerConfig{
		{
			Name:   "default",
			Driver: "sqlite",
			Settings: map[string]any{
				"path":          ".entityreg/default.db",
				"mapping_paths": []any{"config/mappings"},
			},
		},
	}
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Managers: DefaultManagers(),
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Log: LogConfig{
			Level: "debug",
		},
	}
}

// ManagerNames returns the declared manager names in order.
func (c Config) ManagerNames() []string {
	names := make([]string, 0, len(c.Managers))
	for _, m := range c.Managers {
		names = append(names, m.Name)
	}
	return names
}

// FindManager returns the manager declared under name.
func (c Config) FindManager(name string) (ManagerConfig, bool) {
	for _, m := range c.Managers {
		if m.Name == name {
			return m, true
		}
	}
	return ManagerConfig{}, false
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := ValidateManagers(c.Managers); err != nil {
		return err
	}
	if c.DefaultManager != "" {
		if _, ok := c.FindManager(c.DefaultManager); !ok {
			return fmt.Errorf("default_manager %q is not a declared manager", c.DefaultManager)
		}
	}
	if c.DefaultConnection != "" {
		if _, ok := c.FindManager(c.DefaultConnection); !ok {
			return fmt.Errorf("default_connection %q is not a declared manager", c.DefaultConnection)
		}
	}
	if err := ValidateNamespaces("namespaces", c.Namespaces); err != nil {
		return err
	}
	if err := ValidateExtensions(c.Extensions); err != nil {
		return err
	}
	if err := ValidateNamespaces("mappings.namespaces", c.Mappings.Namespaces); err != nil {
		return err
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	if c.Log.Level != "" {
		switch strings.ToLower(c.Log.Level) {
		case "debug", "info", "warn", "warning", "error":
			// Valid
		default:
			return fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", c.Log.Level)
		}
	}
	return ValidateTracing(c.Tracing)
}

// ValidateManagers checks manager declarations for errors.
func ValidateManagers(managers []ManagerConfig) error {
	if len(managers) == 0 {
		return fmt.Errorf("at least one manager must be declared")
	}

	seen := make(map[string]bool, len(managers))
	for i, m := range managers {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return fmt.Errorf("manager %d: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("manager %d (%s): duplicate name", i, name)
		}
		seen[name] = true

		if err := ValidateNamespaces(fmt.Sprintf("manager %d (%s): namespaces", i, name), m.Namespaces); err != nil {
			return err
		}
		for j, p := range m.Paths {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("manager %d (%s): path %d is empty", i, name, j)
			}
		}
	}
	return nil
}

// ValidateNamespaces checks namespace bindings; field prefixes error messages.
func ValidateNamespaces(field string, namespaces []NamespaceConfig) error {
	for i, ns := range namespaces {
		if strings.TrimSpace(ns.Namespace) == "" {
			return fmt.Errorf("%s %d: namespace is required", field, i)
		}
		if strings.Contains(ns.Alias, ":") {
			return fmt.Errorf("%s %d: alias %q must not contain ':'", field, i, ns.Alias)
		}
	}
	return nil
}

// ValidateExtensions rejects empty identifiers. Unknown identifiers are
// reported when the catalog resolves them.
func ValidateExtensions(ids []string) error {
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("extensions %d: identifier is required", i)
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# entityreg configuration

# Managers in declaration order. The first one is the default unless
# default_manager says otherwise; resolving a class walks them in this order.
managers:
  - name: default
    driver: sqlite
    # namespaces:
    #   - alias: App
    #     namespace: App
    # paths:
    #   - config/mappings
    settings:
      path: .entityreg/default.db
      discovery: yaml          # yaml (default), compiled, or none
      mapping_paths:
        - config/mappings
      # eager_connect: false

# default_manager: default
# default_connection: default

# Namespaces and paths added to the default manager's chain
# namespaces:
#   - alias: App
#     namespace: App
# paths:
#   - config/mappings

# Extensions registered at startup, in order
# Available: connection-check, metadata-warmup, mapping-paths
# extensions:
#   - connection-check
#   - metadata-warmup

# Extra mapping directories for the mapping-paths extension
# mappings:
#   namespaces:
#     - alias: Vendor
#       namespace: Vendor
#   paths:
#     - vendor/mappings

# Described-metadata cache
cache:
  ttl: 10m
  sliding: false

# Mapping file watcher (entityreg watch)
watch:
  debounce: 200ms

# Distributed tracing configuration
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/entityreg/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)

# Prometheus metrics
# metrics:
#   enabled: true
#   address: ":9464"               # served while 'entityreg watch' runs

# Debug log (also enabled with --debug or ENTITYREG_DEBUG)
# log:
#   path: debug.log
#   level: debug
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
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
