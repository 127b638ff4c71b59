package process

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reviewflow/internal/bootstrap/config"
	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/domain/review"
	"reviewflow/internal/errs"
	"reviewflow/internal/ports"
)

// Service is the per-message pipeline: classify the curated record,
// persist it exactly once per review id, then fan out to downstream
// queues. Persistence is at-most-once via the review_id dedup barrier;
// routing is at-least-once because redelivery after a crash between
// persist and ack re-executes the publishes.
type Service struct {
	repo       ports.ReviewRepository
	classifier ports.Classifier
	publisher  ports.Publisher
	policy     ports.ConflictPolicy

	now func() time.Time
}

func NewService(repo ports.ReviewRepository, classifier ports.Classifier, publisher ports.Publisher, cfg config.PipelineConfig) *Service {
	policy := ports.ConflictIgnore
	if cfg.OnConflict == string(ports.ConflictUpdate) {
		policy = ports.ConflictUpdate
	}

	return &Service{
		repo:       repo,
		classifier: classifier,
		publisher:  publisher,
		policy:     policy,
		now:        time.Now,
	}
}

// HandleCurated runs the full state machine for one curated record.
// A returned error requests redelivery; a ports.ErrPoisonMessage error
// isolates the message instead.
func (s *Service) HandleCurated(ctx context.Context, data []byte) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "process.service"),
		slog.String("processing_id", uuid.NewString()),
	)

	var env review.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errs.Wrapf(ports.ErrPoisonMessage, "parse curated record: %v", err)
	}

	rec, err := env.Normalize(s.now())
	if err != nil {
		return errs.Wrapf(ports.ErrPoisonMessage, "normalize curated record: %v", err)
	}

	logCtx = logging.WithAttrs(logCtx, slog.Int64("review_id", rec.ReviewID))
	logging.Info(logCtx, "processing curated record", slog.String("stage", string(StageReceived)))

	classification := s.classify(logCtx, rec)
	logging.Info(logCtx, "classification finished",
		slog.String("stage", string(StageClassified)),
		slog.Bool("classified", !classification.Failed()),
		slog.Bool("escalation", classification.Escalation),
	)

	inserted, err := s.repo.UpsertProcessedResponse(logCtx, buildRow(rec, classification, s.now()), s.policy)
	if err != nil {
		return errs.Wrap(err, "persist processed response")
	}
	logging.Info(logCtx, "record persisted",
		slog.String("stage", string(StagePersisted)),
		slog.Bool("inserted", inserted),
	)

	if classification.Failed() {
		// Degrade, don't drop: the durable row exists, nothing is routed.
		logging.Warn(logCtx, "no response text, skipping routing")
		return nil
	}

	payload, err := json.Marshal(review.BuildOutgoingPayload(rec, classification))
	if err != nil {
		return errs.Wrap(err, "encode outgoing payload")
	}

	for _, dest := range review.Route(classification) {
		if err := s.publisher.Publish(logCtx, subjectFor(dest), payload); err != nil {
			return errs.Wrapf(err, "publish to %s", dest)
		}
	}
	logging.Info(logCtx, "record routed", slog.String("stage", string(StageRouted)))

	return nil
}

// classify performs the single reasoning call. Any failure degrades to
// the all-nil classification; the pipeline never blocks on classifier
// availability.
func (s *Service) classify(ctx context.Context, rec review.Record) review.Classification {
	result, err := s.classifier.Classify(ctx, ports.ClassifyRequest{ReviewText: rec.ReviewText})
	if err != nil {
		logging.Error(ctx, "classification call failed", slog.Any("err", errs.Loggable(err)))
		return review.Classification{}
	}

	classification := review.ParseClassification(result.OutputText)
	classification.ContinuationToken = result.ContinuationToken
	return classification
}

func buildRow(rec review.Record, c review.Classification, now time.Time) ports.ProcessedResponse {
	row := ports.ProcessedResponse{
		ReviewID:   rec.ReviewID,
		ReviewDate: rec.ReviewDate,
		Channel:    rec.Channel,
		ReviewText: rec.ReviewText,
		StarRating: rec.StarRating,
		Escalation: c.Escalation,
		Sentiment:  c.Sentiment,
		Theme:      c.Theme,
		AIResponse: c.Response,
		CreatedAt:  now.UTC().Format(ports.TimeLayout),
	}
	if rec.ExternalCustomerID != "" {
		row.ExternalCustomerID = &rec.ExternalCustomerID
	}
	if rec.CustomerName != "" {
		row.CustomerName = &rec.CustomerName
	}
	if rec.Location != "" {
		row.Location = &rec.Location
	}
	return row
}

func subjectFor(dest review.Destination) string {
	if dest == review.DestinationNotification {
		return ports.SubjectNotification
	}
	return ports.SubjectOutgoing
}
