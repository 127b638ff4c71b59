package trends

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reviewflow/internal/bootstrap/config"
	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/domain/review"
	"reviewflow/internal/errs"
	"reviewflow/internal/ports"
)

const lastRunKey = "trends:last_run_at"

// Service rebuilds the response_trends table from the processed history
// inside a sliding window. Every cycle is a full recompute: stale cohorts
// disappear when their data falls out of the window.
type Service struct {
	repo   ports.ReviewRepository
	trends ports.TrendRepository
	uow    ports.UnitOfWork
	cache  ports.Cache

	windowDays int
	interval   time.Duration
	now        func() time.Time
}

func NewService(repo ports.ReviewRepository, trendRepo ports.TrendRepository, uow ports.UnitOfWork, cache ports.Cache, cfg config.TrendsConfig) *Service {
	return &Service{
		repo:       repo,
		trends:     trendRepo,
		uow:        uow,
		cache:      cache,
		windowDays: cfg.WindowDays,
		interval:   cfg.Interval(),
		now:        time.Now,
	}
}

type Summary struct {
	SourceRows int
	Buckets    int
	Anomalies  int
}

// RunOnce executes one aggregation cycle. The table rewrite happens in a
// single transaction, so a failed cycle leaves the previous contents
// intact for the next scheduled attempt.
func (s *Service) RunOnce(ctx context.Context) (Summary, error) {
	if ctx == nil {
		return Summary{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "trends.service"))
	started := s.now().UTC()
	cutoff := started.AddDate(0, 0, -s.windowDays)

	sources, err := s.repo.ListProcessedSince(logCtx, cutoff)
	if err != nil {
		return Summary{}, errs.Wrap(err, "load processed responses")
	}

	inputs := make([]review.TrendSource, 0, len(sources))
	for _, row := range sources {
		inputs = append(inputs, review.TrendSource{
			ReviewDate: row.ReviewDate,
			Channel:    row.Channel,
			Sentiment:  row.Sentiment,
			Theme:      row.Theme,
			StarRating: row.StarRating,
			Escalation: row.Escalation,
		})
	}

	buckets := review.FlagAnomalies(review.AggregateTrends(inputs))

	rows := make([]ports.TrendRow, 0, len(buckets))
	anomalies := 0
	for _, b := range buckets {
		if b.Anomaly {
			anomalies++
		}
		rows = append(rows, ports.TrendRow{
			TrendDate:       b.Date,
			Channel:         b.Channel,
			Sentiment:       b.Sentiment,
			Theme:           b.Theme,
			ReviewCount:     b.ReviewCount,
			EscalationCount: b.EscalationCount,
			AvgStarRating:   b.AvgStarRating,
			Anomaly:         b.Anomaly,
		})
	}

	if err := s.uow.WithTx(logCtx, func(txCtx context.Context) error {
		return s.trends.ReplaceTrends(txCtx, rows)
	}); err != nil {
		return Summary{}, errs.Wrap(err, "rewrite response trends")
	}

	if err := s.cache.Set(logCtx, lastRunKey, started.Format(time.RFC3339Nano), 0); err != nil {
		logging.Warn(logCtx, "record last run failed", slog.Any("err", errs.Loggable(err)))
	}

	summary := Summary{SourceRows: len(sources), Buckets: len(rows), Anomalies: anomalies}
	logging.Info(logCtx, "trend aggregation completed",
		slog.Int("source_rows", summary.SourceRows),
		slog.Int("buckets", summary.Buckets),
		slog.Int("anomalies", summary.Anomalies),
		slog.String("cutoff", cutoff.Format(time.RFC3339)),
	)
	return summary, nil
}

// RunPeriodic runs a cycle immediately, then on every interval tick until
// ctx is cancelled. Cycle failures are logged; the next tick retries.
func (s *Service) RunPeriodic(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "trends.service"))

	if _, err := s.RunOnce(logCtx); err != nil {
		logging.Error(logCtx, "trend aggregation cycle failed", slog.Any("err", errs.Loggable(err)))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(logCtx); err != nil {
				logging.Error(logCtx, "trend aggregation cycle failed", slog.Any("err", errs.Loggable(err)))
			}
		}
	}
}

func (s *Service) ListTrends(ctx context.Context, onlyAnomalies bool) ([]ports.TrendRow, error) {
	return s.trends.ListTrends(ctx, onlyAnomalies)
}
