package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWithViper(t *testing.T, configPath string) Config {
	t.Helper()
	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg
}

func TestSaveManagers_CreatesNewFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	managers := []ManagerConfig{
		{Name: "main", Driver: "sqlite", Settings: map[string]any{"path": "main.db"}},
	}

	err := SaveManagers(configPath, managers)
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: main")
	assert.Contains(t, string(data), "driver: sqlite")
	assert.Contains(t, string(data), "path: main.db")
}

func TestSaveManagers_PreservesOtherConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	initial := `# keep me
cache:
  ttl: 5m
extensions:
  - connection-check
managers:
  - name: old
`
	require.NoError(t, os.WriteFile(configPath, []byte(initial), 0o644))

	err := SaveManagers(configPath, []ManagerConfig{{Name: "new"}})
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "# keep me")
	assert.Contains(t, content, "ttl: 5m")
	assert.Contains(t, content, "- connection-check")
	assert.Contains(t, content, "name: new")
	assert.NotContains(t, content, "name: old")
}

func TestSaveManagers_Roundtrip(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	original := []ManagerConfig{
		{
			Name:       "a",
			Driver:     "sqlite",
			Namespaces: []NamespaceConfig{{Alias: "App", Namespace: "App"}},
			Paths:      []string{"mappings/a"},
			Settings:   map[string]any{"path": "a.db", "discovery": "yaml"},
		},
		{
			Name:     "b",
			Driver:   "sqlite",
			Settings: map[string]any{"path": "b.db"},
		},
	}

	require.NoError(t, SaveManagers(configPath, original))

	cfg := loadWithViper(t, configPath)
	require.Equal(t, []string{"a", "b"}, cfg.ManagerNames())
	require.Equal(t, original[0].Namespaces, cfg.Managers[0].Namespaces)
	require.Equal(t, original[0].Paths, cfg.Managers[0].Paths)
	require.Equal(t, "a.db", cfg.Managers[0].Settings["path"])
	require.Equal(t, "b.db", cfg.Managers[1].Settings["path"])
}

func TestSaveManagers_AtomicWrite(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	require.NoError(t, SaveManagers(configPath, []ManagerConfig{{Name: "initial"}}))
	require.NoError(t, SaveManagers(configPath, []ManagerConfig{{Name: "updated"}}))

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.Contains(entry.Name(), ".tmp."), "temp file left behind: %s", entry.Name())
	}

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: updated")
}

func TestSaveManagers_CreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir", "nested", "config.yaml")

	require.NoError(t, SaveManagers(configPath, []ManagerConfig{{Name: "main"}}))

	_, err := os.Stat(configPath)
	require.NoError(t, err)
}

func TestSaveManagers_OmitsEmptyFields(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	require.NoError(t, SaveManagers(configPath, []ManagerConfig{{Name: "minimal"}}))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "name: minimal")
	assert.NotContains(t, content, "driver:")
	assert.NotContains(t, content, "namespaces:")
	assert.NotContains(t, content, "settings:")
}

func TestSaveManagers_RejectsNonMappingRoot(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("- just\n- a list\n"), 0o644))

	err := SaveManagers(configPath, []ManagerConfig{{Name: "main"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a mapping")
}

func TestAddManager(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	existing := []ManagerConfig{{Name: "a"}}
	require.NoError(t, SaveManagers(configPath, existing))

	err := AddManager(configPath, existing, ManagerConfig{Name: "b", Driver: "sqlite"})
	require.NoError(t, err)

	cfg := loadWithViper(t, configPath)
	require.Equal(t, []string{"a", "b"}, cfg.ManagerNames())
}

func TestAddManager_Duplicate(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	existing := []ManagerConfig{{Name: "a"}}

	err := AddManager(configPath, existing, ManagerConfig{Name: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate name")

	_, statErr := os.Stat(configPath)
	require.True(t, os.IsNotExist(statErr), "nothing should be written on validation failure")
}

func TestRemoveManager(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	existing := []ManagerConfig{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	require.NoError(t, SaveManagers(configPath, existing))

	require.NoError(t, RemoveManager(configPath, existing, "b"))

	cfg := loadWithViper(t, configPath)
	require.Equal(t, []string{"a", "c"}, cfg.ManagerNames())
}

func TestRemoveManager_Unknown(t *testing.T) {
	err := RemoveManager(filepath.Join(t.TempDir(), "config.yaml"), []ManagerConfig{{Name: "a"}}, "zzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not declared")
}

func TestRemoveManager_Last(t *testing.T) {
	err := RemoveManager(filepath.Join(t.TempDir(), "config.yaml"), []ManagerConfig{{Name: "a"}}, "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one manager")
}

func TestSaveExtensions(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, SaveManagers(configPath, []ManagerConfig{{Name: "a"}}))

	require.NoError(t, SaveExtensions(configPath, []string{"connection-check", "metadata-warmup"}))

	cfg := loadWithViper(t, configPath)
	require.Equal(t, []string{"connection-check", "metadata-warmup"}, cfg.Extensions)
	require.Equal(t, []string{"a"}, cfg.ManagerNames())
}

func TestSaveExtensions_RejectsEmpty(t *testing.T) {
	err := SaveExtensions(filepath.Join(t.TempDir(), "config.yaml"), []string{"ok", " "})
	require.Error(t, err)
}
