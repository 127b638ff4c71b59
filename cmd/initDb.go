package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"reviewflow/internal/errs"
)

var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create or migrate the pipeline tables",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		if err := deps.App.InitSchema(cmd.Context()); err != nil {
			return errs.Wrap(err, "init schema")
		}

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), "database schema ready"); err != nil {
			return errs.Wrap(err, "write output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
}
