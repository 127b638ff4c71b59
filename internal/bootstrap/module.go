package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"reviewflow/internal/bootstrap/config"
	"reviewflow/internal/bootstrap/database"
	"reviewflow/internal/bootstrap/logging"
	cacheinfra "reviewflow/internal/infrastructure/cache"
	sqliterepo "reviewflow/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "reviewflow/internal/infrastructure/persistence/sqlite/uow"
	"reviewflow/internal/ports"
	"reviewflow/internal/usecase/trends"
)

// Module wires the database-backed core. Queue- and classifier-backed
// pieces are constructed by the commands that need them so commands
// without a broker dependency stay runnable on their own.
var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewReviewRepository,
			fx.As(new(ports.ReviewRepository)),
			fx.As(new(ports.TrendRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideTrendsService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

// provideApp migrates the schema before handing the App out, so every
// command works against a fresh database without a prior init-db run.
// AutoMigrate is idempotent; init-db stays as the explicit entry point.
func provideApp(ctx context.Context, cfg config.Config, db *gorm.DB) (*App, error) {
	app := &App{
		Config: cfg,
		DB:     db,
	}
	if err := app.InitSchema(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func provideTrendsService(repo ports.ReviewRepository, trendRepo ports.TrendRepository, uow ports.UnitOfWork, cache ports.Cache, cfg config.Config) *trends.Service {
	return trends.NewService(repo, trendRepo, uow, cache, cfg.Trends)
}
