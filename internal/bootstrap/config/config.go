package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/errs"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Curation   CurationConfig   `mapstructure:"curation"`
	Ingestion  IngestionConfig  `mapstructure:"ingestion"`
	Trends     TrendsConfig     `mapstructure:"trends"`
	HTTP       HTTPConfig       `mapstructure:"http"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type QueueConfig struct {
	URL    string `mapstructure:"url"`
	Stream string `mapstructure:"stream"`
}

type ClassifierConfig struct {
	Model          string `mapstructure:"model"`
	ServiceTier    string `mapstructure:"service_tier"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	APIKeyEnv      string `mapstructure:"api_key_env"`
	PromptFile     string `mapstructure:"prompt_file"`
}

func (c ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PipelineConfig bounds in-flight work on the curated consumer.
// OnConflict selects the persistence behavior when a review id is
// redelivered: "ignore" keeps the stored row, "update" refreshes the
// classification columns.
type PipelineConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	OnConflict  string `mapstructure:"on_conflict"`
}

type CurationConfig struct {
	CustomersFile string `mapstructure:"customers_file"`
}

type IngestionConfig struct {
	ReviewsFile string `mapstructure:"reviews_file"`
}

type TrendsConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes"`
	WindowDays      int `mapstructure:"window_days"`
}

func (c TrendsConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("queue_url", cfg.Queue.URL),
	)

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if cfg.Queue.URL == "" {
		return errors.New("queue.url is required")
	}
	if cfg.Queue.Stream == "" {
		return errors.New("queue.stream is required")
	}
	if cfg.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be positive, got %d", cfg.Pipeline.Concurrency)
	}
	switch cfg.Pipeline.OnConflict {
	case "ignore", "update":
	default:
		return fmt.Errorf("pipeline.on_conflict must be %q or %q, got %q", "ignore", "update", cfg.Pipeline.OnConflict)
	}
	if cfg.Trends.WindowDays <= 0 {
		return fmt.Errorf("trends.window_days must be positive, got %d", cfg.Trends.WindowDays)
	}
	if cfg.Trends.IntervalMinutes <= 0 {
		return fmt.Errorf("trends.interval_minutes must be positive, got %d", cfg.Trends.IntervalMinutes)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "reviewflow")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".reviewflow/state/reviews.sqlite")
	v.SetDefault("queue.url", "nats://127.0.0.1:4222")
	v.SetDefault("queue.stream", "REVIEWS")
	v.SetDefault("classifier.model", "o3-mini")
	v.SetDefault("classifier.service_tier", "default")
	v.SetDefault("classifier.timeout_seconds", 900)
	v.SetDefault("classifier.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("classifier.prompt_file", "prompts/review-analysis-prompt.md")
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.on_conflict", "ignore")
	v.SetDefault("curation.customers_file", "data/customers.json")
	v.SetDefault("ingestion.reviews_file", "data/mock-reviews.json")
	v.SetDefault("trends.interval_minutes", 60)
	v.SetDefault("trends.window_days", 30)
	v.SetDefault("http.addr", ":8080")
}
