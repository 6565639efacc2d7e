package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	appreg "github.com/zjrosen/entityreg/internal/application/registry"
	"github.com/zjrosen/entityreg/internal/config"
	"github.com/zjrosen/entityreg/internal/domain/metadata"
	"github.com/zjrosen/entityreg/internal/extensions"
	"github.com/zjrosen/entityreg/internal/infrastructure/sqlite"
	"github.com/zjrosen/entityreg/internal/testutil"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return testutil.Config(
		testutil.Manager(t, "default", nil, config.NamespaceConfig{Alias: "App", Namespace: "App"}),
		testutil.Manager(t, "reporting", map[string]any{"discovery": "none"}),
	)
}

func TestParseNamespace(t *testing.T) {
	ns, err := parseNamespace(`Billing=App\Billing`)
	require.NoError(t, err)
	require.Equal(t, config.NamespaceConfig{Alias: "Billing", Namespace: `App\Billing`}, ns)

	ns, err = parseNamespace("App")
	require.NoError(t, err)
	require.Equal(t, config.NamespaceConfig{Namespace: "App"}, ns)

	_, err = parseNamespace("Alias=")
	require.Error(t, err)
}

func TestBuildManagerConfig(t *testing.T) {
	t.Cleanup(func() {
		addName, addDriver, addPath, addDiscovery = "", sqlite.DriverName, "", ""
		addMappingPaths, addNamespaces, addPaths = nil, nil, nil
	})

	addName = "reporting"
	addDriver = sqlite.DriverName
	addPath = "reporting.db"
	addDiscovery = sqlite.DiscoveryCompiled
	addMappingPaths = []string{"config/reporting"}
	addNamespaces = []string{`Reports=App\Reports`}

	m, err := buildManagerConfig()
	require.NoError(t, err)
	require.Equal(t, "reporting", m.Name)
	require.Equal(t, "reporting.db", m.Settings[sqlite.SettingPath])
	require.Equal(t, sqlite.DiscoveryCompiled, m.Settings[sqlite.SettingDiscovery])
	require.Equal(t, []string{"config/reporting"}, m.Settings[sqlite.SettingMappingPaths])
	require.Equal(t, []config.NamespaceConfig{{Alias: "Reports", Namespace: `App\Reports`}}, m.Namespaces)
}

func TestBuildManagerConfig_RequiresNameAndPath(t *testing.T) {
	t.Cleanup(func() { addName, addPath = "", "" })

	addName = ""
	_, err := buildManagerConfig()
	require.ErrorContains(t, err, "--name")

	addName = "x"
	addPath = ""
	addDriver = sqlite.DriverName
	_, err = buildManagerConfig()
	require.ErrorContains(t, err, "--path")
}

func TestManagerDTOs(t *testing.T) {
	svc, err := appreg.NewService(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	_, err = svc.Manager(context.Background(), "reporting")
	require.NoError(t, err)

	dtos := managerDTOs(svc)
	require.Len(t, dtos, 2)

	require.Equal(t, "default", dtos[0].Name)
	require.True(t, dtos[0].Default)
	require.True(t, dtos[0].DefaultConnection)
	require.False(t, dtos[0].Built)
	require.Equal(t, "App", dtos[0].Links[0].Namespaces[0].Alias)

	require.Equal(t, "reporting", dtos[1].Name)
	require.Equal(t, sqlite.DriverName, dtos[1].Driver)
	require.True(t, dtos[1].Built)
	require.Equal(t, "internal", dtos[1].Links[len(dtos[1].Links)-1].Origin)
	require.Equal(t, metadata.InternalNamespace, dtos[1].Links[len(dtos[1].Links)-1].Namespaces[0].Namespace)
}

func TestRunBoot(t *testing.T) {
	c := testConfig(t)
	c.Extensions = []string{extensions.ConnectionCheckID, extensions.MetadataWarmupID}
	svc, err := appreg.NewService(c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	result, err := runBoot(cmd, svc)
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)
	require.Equal(t, []string{extensions.ConnectionCheckID, extensions.MetadataWarmupID}, result.Extensions)
	require.Equal(t, map[string]int{"default": 1, "reporting": 1}, result.Compiled)

	_, err = runBoot(cmd, svc)
	require.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Cleanup(func() {
		initForce = false
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs([]string{"init", path})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfigTemplate(), string(data))

	rootCmd.SetArgs([]string{"init", path})
	require.ErrorContains(t, rootCmd.Execute(), "already exists")

	rootCmd.SetArgs([]string{"init", "--force", path})
	require.NoError(t, rootCmd.Execute())
}
