package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/errs"
	"reviewflow/internal/infrastructure/classifier"
	"reviewflow/internal/infrastructure/queue"
	"reviewflow/internal/ports"
	"reviewflow/internal/usecase/process"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Consume curated records: classify, persist, and route them",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		cfg := deps.App.Config

		cls, err := classifier.NewOpenAIClassifier(cfg.Classifier)
		if err != nil {
			return errs.Wrap(err, "build classifier")
		}

		conn, err := queue.Connect(ctx, cfg.Queue, cfg.App.Name)
		if err != nil {
			return errs.Wrap(err, "connect queue")
		}
		defer conn.Close()

		svc := process.NewService(deps.Repo, cls, queue.NewJetStreamPublisher(conn), cfg.Pipeline)

		// AckWait must outlive the classifier timeout or slow calls get
		// redelivered while still in flight.
		ackWait := cfg.Classifier.Timeout() + time.Minute

		return conn.Run(ctx, queue.ConsumeOptions{
			Durable:     "process",
			Subject:     ports.SubjectCurated,
			Concurrency: cfg.Pipeline.Concurrency,
			AckWait:     ackWait,
		}, svc.HandleCurated)
	}),
}

func init() {
	rootCmd.AddCommand(processCmd)
}
