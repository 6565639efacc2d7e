package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	appreg "github.com/zjrosen/entityreg/internal/application/registry"
	"github.com/zjrosen/entityreg/internal/config"
	"github.com/zjrosen/entityreg/internal/infrastructure/sqlite"
	"github.com/zjrosen/entityreg/internal/presentation"
)

var managersListCmd = &cobra.Command{
	Use:   "managers:list",
	Short: "List declared managers and their driver chains",
	Long: `List every declared manager as JSON, in declaration order.

Each entry shows whether the manager is the default manager or the default
connection, and the links of its driver chain with their namespaces and
locations. Extensions named in the config are registered first so their
links are included. Managers are not built.

Examples:
  # List all managers
  entityreg managers:list

  # Only the names
  entityreg managers:list | jq '.[].name'

  # Namespaces bound on the default manager
  entityreg managers:list | jq '.[] | select(.default) | .links[].namespaces'`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.service.RegisterConfigured(cmd.Context()); err != nil {
			return err
		}
		return presentation.NewFormatter(os.Stdout).FormatManagers(managerDTOs(rt.service))
	},
}

func managerDTOs(svc *appreg.Service) []presentation.ManagerDTO {
	reg := svc.Registry()
	built := make(map[string]bool)
	for _, name := range reg.Built() {
		built[name] = true
	}

	dtos := make([]presentation.ManagerDTO, 0, len(reg.ManagerNames()))
	for _, name := range reg.ManagerNames() {
		d, _ := reg.Descriptor(name)
		chain, err := svc.Chains().For(name)
		if err != nil {
			continue
		}
		dtos = append(dtos, presentation.FromDescriptor(d, reg, built[name], chain.Links()))
	}
	return dtos
}

var (
	addName         string
	addDriver       string
	addPath         string
	addDiscovery    string
	addMappingPaths []string
	addNamespaces   []string
	addPaths        []string
)

var managersAddCmd = &cobra.Command{
	Use:   "managers:add",
	Short: "Declare a new manager in the config file",
	Long: `Append a manager declaration to the config file.

The new manager is placed last, so it never takes over the default unless
default_manager names it. Other sections of the config file are preserved.

Examples:
  # A second sqlite database with its own mappings
  entityreg managers:add --name reporting --path .entityreg/reporting.db \
    --mapping-path config/reporting --namespace Reports=App\\Reports

  # Metadata served from the compiled table only
  entityreg managers:add -n archive --path archive.db --discovery compiled`,
	RunE: func(_ *cobra.Command, _ []string) error {
		m, err := buildManagerConfig()
		if err != nil {
			return err
		}
		path := configPath()
		if err := config.AddManager(path, cfg.Managers, m); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Added manager %q to %s\n", m.Name, path)
		return nil
	},
}

var managersRemoveCmd = &cobra.Command{
	Use:   "managers:remove <name>",
	Short: "Remove a manager from the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := configPath()
		if err := config.RemoveManager(path, cfg.Managers, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Removed manager %q from %s\n", args[0], path)
		return nil
	},
}

func buildManagerConfig() (config.ManagerConfig, error) {
	name := strings.TrimSpace(addName)
	if name == "" {
		return config.ManagerConfig{}, fmt.Errorf("--name is required")
	}
	if addDriver == sqlite.DriverName && addPath == "" {
		return config.ManagerConfig{}, fmt.Errorf("--path is required for the sqlite driver")
	}

	namespaces := make([]config.NamespaceConfig, 0, len(addNamespaces))
	for _, raw := range addNamespaces {
		ns, err := parseNamespace(raw)
		if err != nil {
			return config.ManagerConfig{}, err
		}
		namespaces = append(namespaces, ns)
	}

	settings := map[string]any{}
	if addPath != "" {
		settings[sqlite.SettingPath] = addPath
	}
	if addDiscovery != "" {
		settings[sqlite.SettingDiscovery] = addDiscovery
	}
	if len(addMappingPaths) > 0 {
		settings[sqlite.SettingMappingPaths] = addMappingPaths
	}

	return config.ManagerConfig{
		Name:       name,
		Driver:     addDriver,
		Namespaces: namespaces,
		Paths:      addPaths,
		Settings:   settings,
	}, nil
}

// parseNamespace accepts "Namespace" or "Alias=Namespace".
func parseNamespace(raw string) (config.NamespaceConfig, error) {
	alias, namespace, found := strings.Cut(raw, "=")
	if !found {
		namespace, alias = alias, ""
	}
	ns := config.NamespaceConfig{Alias: strings.TrimSpace(alias), Namespace: strings.TrimSpace(namespace)}
	if err := config.ValidateNamespaces("--namespace", []config.NamespaceConfig{ns}); err != nil {
		return config.NamespaceConfig{}, err
	}
	return ns, nil
}

func init() {
	managersAddCmd.Flags().StringVarP(&addName, "name", "n", "", "Manager name (required)")
	managersAddCmd.Flags().StringVar(&addDriver, "driver", sqlite.DriverName, "Engine driver")
	managersAddCmd.Flags().StringVarP(&addPath, "path", "p", "", "Database file")
	managersAddCmd.Flags().StringVar(&addDiscovery, "discovery", "", "Discovery mode: yaml, compiled or none")
	managersAddCmd.Flags().StringArrayVar(&addMappingPaths, "mapping-path", nil, "Mapping directory read by the engine (repeatable)")
	managersAddCmd.Flags().StringArrayVar(&addNamespaces, "namespace", nil, "Namespace bound to the chain, Namespace or Alias=Namespace (repeatable)")
	managersAddCmd.Flags().StringArrayVar(&addPaths, "chain-path", nil, "Location added to the chain (repeatable)")

	rootCmd.AddCommand(managersListCmd)
	rootCmd.AddCommand(managersAddCmd)
	rootCmd.AddCommand(managersRemoveCmd)
}
