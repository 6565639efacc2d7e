package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/entityreg/internal/presentation"
)

var compileCmd = &cobra.Command{
	Use:   "compile [manager]",
	Short: "Store a manager's described metadata in its database",
	Long: `Describe every class the manager's chain claims and store the result in
the manager's class_metadata table, replacing what was there.

A manager configured with 'discovery: compiled' then serves its classes from
that table without reading mapping files. Without an argument the default
manager is compiled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}

		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cmd.Context()
		if err := rt.service.RegisterConfigured(ctx); err != nil {
			return err
		}
		n, err := rt.service.Compile(ctx, name)
		if err != nil {
			return err
		}
		if name == "" {
			name = rt.service.Registry().DefaultManagerName()
		}
		return presentation.NewFormatter(os.Stdout).FormatCompile(presentation.CompileDTO{Manager: name, Compiled: n})
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
