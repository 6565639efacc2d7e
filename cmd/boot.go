package cmd

import (
	"os"

	"github.com/spf13/cobra"

	appreg "github.com/zjrosen/entityreg/internal/application/registry"
	"github.com/zjrosen/entityreg/internal/domain/extension"
	"github.com/zjrosen/entityreg/internal/extensions"
	"github.com/zjrosen/entityreg/internal/presentation"
)

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Register and boot the configured extensions",
	Long: `Register every extension listed under 'extensions' in the config, in
order, then run their boot hooks once.

The JSON result carries the boot run ID, which also appears in the debug log
and on every boot span, and the number of classes compiled per manager when
metadata-warmup is enabled. The command fails if any hook fails.

Examples:
  entityreg boot
  entityreg boot | jq -r .run_id`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		result, bootErr := runBoot(cmd, rt.service)
		if err := presentation.NewFormatter(os.Stdout).FormatBoot(result); err != nil {
			return err
		}
		return bootErr
	},
}

func runBoot(cmd *cobra.Command, svc *appreg.Service) (presentation.BootDTO, error) {
	ctx := cmd.Context()
	if err := svc.RegisterConfigured(ctx); err != nil {
		return presentation.BootDTO{Error: err.Error()}, err
	}

	runID, err := svc.Boot(ctx)
	result := presentation.BootDTO{RunID: runID}
	for _, ext := range svc.Extensions() {
		result.Extensions = append(result.Extensions, extension.NameOf(ext))
		if warmup, ok := ext.(*extensions.MetadataWarmup); ok {
			result.Compiled = warmup.Compiled()
		}
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result, err
}

func init() {
	rootCmd.AddCommand(bootCmd)
}
