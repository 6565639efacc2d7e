package testutil

import (
	"path/filepath"
	"testing"

	"github.com/zjrosen/entityreg/internal/config"
)

// Manager declares a sqlite manager whose database lives under t.TempDir().
// Extra settings override the defaults.
func Manager(t *testing.T, name string, settings map[string]any, namespaces ...config.NamespaceConfig) config.ManagerConfig {
	t.Helper()
	merged := map[string]any{"path": filepath.Join(t.TempDir(), name+".db")}
	for k, v := range settings {
		merged[k] = v
	}
	return config.ManagerConfig{
		Name:       name,
		Driver:     "sqlite",
		Namespaces: namespaces,
		Settings:   merged,
	}
}

// Config returns the default configuration with managers replaced.
func Config(managers ...config.ManagerConfig) config.Config {
	cfg := config.Defaults()
	cfg.Managers = managers
	return cfg
}
