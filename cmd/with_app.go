package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"reviewflow/internal/bootstrap"
	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/errs"
	"reviewflow/internal/ports"
	"reviewflow/internal/usecase/trends"
)

// appDeps bundles the database-backed dependencies every command can
// draw from. Queue connections and the classifier are built in the
// commands that need them.
type appDeps struct {
	App       *bootstrap.App
	Repo      ports.ReviewRepository
	TrendRepo ports.TrendRepository
	UoW       ports.UnitOfWork
	Cache     ports.Cache
	Trends    *trends.Service
}

func withApp(run func(cmd *cobra.Command, deps *appDeps) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		deps := &appDeps{}
		fxApp := fx.New(
			bootstrap.Module,
			fx.Provide(func() context.Context { return ctx }),
			fx.Provide(
				fx.Annotate(
					func() string { return cfgFile },
					fx.ResultTags(`name:"configFile"`),
				),
			),
			fx.Populate(&deps.App, &deps.Repo, &deps.TrendRepo, &deps.UoW, &deps.Cache, &deps.Trends),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, 10*time.Second)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		if err := run(cmd, deps); err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}

// signalContext derives a context cancelled on SIGINT/SIGTERM for the
// long-running consumer and server commands.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}
