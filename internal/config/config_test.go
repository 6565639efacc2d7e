package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, []string{"default"}, cfg.ManagerNames())
	require.Equal(t, "sqlite", cfg.Managers[0].Driver)
	require.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	require.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, "file", cfg.Tracing.Exporter)
	require.Equal(t, 1.0, cfg.Tracing.SampleRate)
	require.NoError(t, cfg.Validate(), "defaults should validate")
}

func TestConfig_FindManager(t *testing.T) {
	cfg := Config{Managers: []ManagerConfig{{Name: "a"}, {Name: "b", Driver: "sqlite"}}}

	m, ok := cfg.FindManager("b")
	require.True(t, ok)
	require.Equal(t, "sqlite", m.Driver)

	_, ok = cfg.FindManager("c")
	require.False(t, ok)
}

func TestValidateManagers_Empty(t *testing.T) {
	err := ValidateManagers(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one manager")
}

func TestValidateManagers_MissingName(t *testing.T) {
	err := ValidateManagers([]ManagerConfig{{Name: "a"}, {Name: "  "}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "manager 1: name is required")
}

func TestValidateManagers_Duplicate(t *testing.T) {
	err := ValidateManagers([]ManagerConfig{{Name: "a"}, {Name: "b"}, {Name: "a"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "manager 2 (a): duplicate name")
}

func TestValidateManagers_EmptyPath(t *testing.T) {
	err := ValidateManagers([]ManagerConfig{{Name: "a", Paths: []string{"ok", ""}}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "path 1 is empty")
}

func TestValidateManagers_BadNamespace(t *testing.T) {
	err := ValidateManagers([]ManagerConfig{{Name: "a", Namespaces: []NamespaceConfig{{Alias: "App"}}}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "namespace is required")
}

func TestValidateNamespaces_AliasWithColon(t *testing.T) {
	err := ValidateNamespaces("namespaces", []NamespaceConfig{{Alias: "A:B", Namespace: "App"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not contain ':'")
}

func TestValidate_UnknownDefaultManager(t *testing.T) {
	cfg := Defaults()
	cfg.DefaultManager = "missing"
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), `default_manager "missing"`)
}

func TestValidate_UnknownDefaultConnection(t *testing.T) {
	cfg := Defaults()
	cfg.DefaultConnection = "missing"
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), `default_connection "missing"`)
}

func TestValidate_NegativeDurations(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.TTL = -time.Second
	require.ErrorContains(t, cfg.Validate(), "cache.ttl")

	cfg = Defaults()
	cfg.Watch.Debounce = -time.Second
	require.ErrorContains(t, cfg.Validate(), "watch.debounce")
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.Log.Level = "WARN"
	require.NoError(t, cfg.Validate())

	cfg.Log.Level = "loud"
	require.ErrorContains(t, cfg.Validate(), "log.level")
}

func TestValidate_EmptyExtension(t *testing.T) {
	cfg := Defaults()
	cfg.Extensions = []string{"connection-check", ""}
	require.ErrorContains(t, cfg.Validate(), "extensions 1")
}

func TestValidateTracing_Empty(t *testing.T) {
	require.NoError(t, ValidateTracing(TracingConfig{}))
}

func TestValidateTracing_SampleRate(t *testing.T) {
	require.Error(t, ValidateTracing(TracingConfig{SampleRate: 1.5}))
	require.Error(t, ValidateTracing(TracingConfig{SampleRate: -0.1}))
	require.NoError(t, ValidateTracing(TracingConfig{SampleRate: 0.5}))
}

func TestValidateTracing_InvalidExporter(t *testing.T) {
	err := ValidateTracing(TracingConfig{Exporter: "jaeger"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "tracing.exporter")
}

func TestValidateTracing_EnabledRequirements(t *testing.T) {
	err := ValidateTracing(TracingConfig{Enabled: true, Exporter: "file"})
	require.ErrorContains(t, err, "file_path is required")

	err = ValidateTracing(TracingConfig{Enabled: true, Exporter: "otlp"})
	require.ErrorContains(t, err, "otlp_endpoint is required")

	// Disabled tracing does not require paths
	require.NoError(t, ValidateTracing(TracingConfig{Enabled: false, Exporter: "file"}))
}

func TestDefaultTracesFilePath(t *testing.T) {
	path := DefaultTracesFilePath()
	if path == "" {
		t.Skip("home directory unavailable")
	}
	require.Equal(t, filepath.Join("entityreg", "traces", "traces.jsonl"),
		filepath.Join(filepath.Base(filepath.Dir(filepath.Dir(path))), "traces", "traces.jsonl"))
}

func TestWriteDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(configPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))

	cfg := loadWithViper(t, configPath)
	require.Equal(t, []string{"default"}, cfg.ManagerNames())
	require.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	require.NoError(t, cfg.Validate())
}
