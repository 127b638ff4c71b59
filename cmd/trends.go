package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/errs"
	"reviewflow/internal/usecase/trendsconsole"
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Trend aggregation commands",
}

var trendsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one trend aggregation cycle",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		summary, err := deps.Trends.RunOnce(ctx)
		if err != nil {
			return errs.Wrap(err, "run aggregation")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "aggregation done source_rows=%d buckets=%d anomalies=%d\n",
			summary.SourceRows, summary.Buckets, summary.Anomalies); err != nil {
			return errs.Wrap(err, "write output")
		}
		return nil
	}),
}

var trendsServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run trend aggregation on the configured interval until stopped",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		return deps.Trends.RunPeriodic(ctx)
	}),
}

var trendsConsoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive trend browser",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		refresh, _ := cmd.Flags().GetDuration("refresh")
		onlyAnomalies, _ := cmd.Flags().GetBool("anomalies")

		if err := trendsconsole.Run(ctx, deps.Trends, trendsconsole.Options{
			RefreshInterval: refresh,
			OnlyAnomalies:   onlyAnomalies,
		}); err != nil {
			return errs.Wrap(err, "run trends console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(trendsCmd)
	trendsCmd.AddCommand(trendsRunCmd)
	trendsCmd.AddCommand(trendsServeCmd)
	trendsCmd.AddCommand(trendsConsoleCmd)

	trendsConsoleCmd.Flags().Duration("refresh", 10*time.Second, "Auto refresh interval")
	trendsConsoleCmd.Flags().Bool("anomalies", false, "Show anomalous buckets only")
}
