package cmd

import (
	"os"

	"github.com/spf13/cobra"

	appreg "github.com/zjrosen/entityreg/internal/application/registry"
	"github.com/zjrosen/entityreg/internal/domain/persistence"
	"github.com/zjrosen/entityreg/internal/presentation"
)

var (
	resolveManager  string
	resolveDescribe bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <class>",
	Short: "Show which manager and chain link serve a class",
	Long: `Resolve a class name to the first manager whose chain claims it and the
link of that chain which serves it.

The class may be fully qualified (App\Billing\Invoice) or use a namespace
alias (Billing:Invoice). Configured extensions are registered first.

Examples:
  entityreg resolve 'App\Billing\Invoice'
  entityreg resolve Billing:Invoice --describe
  entityreg resolve Billing:Invoice --manager reporting`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.service.RegisterConfigured(ctx); err != nil {
			return err
		}

		var res *appreg.Resolution
		if cmd.Flags().Changed("manager") {
			res, err = rt.service.ResolveIn(ctx, resolveManager, args[0])
		} else {
			res, err = rt.service.Resolve(ctx, args[0])
		}
		if err != nil {
			return err
		}

		var md *persistence.ClassMetadata
		if resolveDescribe {
			md, err = rt.service.Describe(ctx, res.Manager, res.Class)
			if err != nil {
				return err
			}
		}
		return presentation.NewFormatter(os.Stdout).FormatResolution(
			presentation.FromResolution(res.Manager, res.Resolution, md))
	},
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveManager, "manager", "m", "", "Resolve against this manager's chain only")
	resolveCmd.Flags().BoolVar(&resolveDescribe, "describe", false, "Include the class metadata")
	rootCmd.AddCommand(resolveCmd)
}
