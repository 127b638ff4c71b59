package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/errs"
	"reviewflow/internal/infrastructure/queue"
	"reviewflow/internal/usecase/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Publish a file of feedback events to the incoming queue",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			file = deps.App.Config.Ingestion.ReviewsFile
		}

		conn, err := queue.Connect(ctx, deps.App.Config.Queue, deps.App.Config.App.Name)
		if err != nil {
			return errs.Wrap(err, "connect queue")
		}
		defer conn.Close()

		svc := ingest.NewService(queue.NewJetStreamPublisher(conn), deps.Cache)
		summary, err := svc.PublishReviews(ctx, file)
		if err != nil {
			return errs.Wrap(err, "publish reviews")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "ingestion done published=%d skipped=%d\n", summary.Published, summary.Skipped); err != nil {
			return errs.Wrap(err, "write output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().String("file", "", "Reviews JSON file (defaults to ingestion.reviews_file)")
}
