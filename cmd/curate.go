package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/errs"
	"reviewflow/internal/infrastructure/queue"
	"reviewflow/internal/ports"
	"reviewflow/internal/usecase/curate"
)

var curateCmd = &cobra.Command{
	Use:   "curate",
	Short: "Consume incoming feedback events and enrich them with customer profiles",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		cfg := deps.App.Config

		directory, err := curate.LoadDirectory(ctx, cfg.Curation.CustomersFile)
		if err != nil {
			return errs.Wrap(err, "load customer directory")
		}

		conn, err := queue.Connect(ctx, cfg.Queue, cfg.App.Name)
		if err != nil {
			return errs.Wrap(err, "connect queue")
		}
		defer conn.Close()

		svc := curate.NewService(directory, queue.NewJetStreamPublisher(conn))

		return conn.Run(ctx, queue.ConsumeOptions{
			Durable:     "curate",
			Subject:     ports.SubjectIncoming,
			Concurrency: cfg.Pipeline.Concurrency,
			AckWait:     time.Minute,
		}, svc.HandleIncoming)
	}),
}

func init() {
	rootCmd.AddCommand(curateCmd)
}
