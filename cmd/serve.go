package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"reviewflow/internal/bootstrap/logging"
	transporthttp "reviewflow/internal/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only HTTP API",
	RunE: withApp(func(cmd *cobra.Command, deps *appDeps) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		server := transporthttp.NewServer(deps.Trends, deps.Repo)
		return server.Listen(ctx, deps.App.Config.HTTP.Addr)
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
