package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/errs"
	"reviewflow/internal/ports"
)

// Service pushes a file of feedback events onto the incoming queue. The
// KV cache remembers which review ids were already published so a rerun
// of the same file does not flood the pipeline with duplicates.
type Service struct {
	publisher ports.Publisher
	cache     ports.Cache
}

func NewService(publisher ports.Publisher, cache ports.Cache) *Service {
	return &Service{publisher: publisher, cache: cache}
}

type Summary struct {
	Published int
	Skipped   int
}

func (s *Service) PublishReviews(ctx context.Context, path string) (Summary, error) {
	if ctx == nil {
		return Summary{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "ingest.service"), slog.String("file", path))

	raw, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, errs.Wrapf(err, "read reviews file %q", path)
	}

	var reviews []json.RawMessage
	if err := json.Unmarshal(raw, &reviews); err != nil {
		return Summary{}, errs.Wrapf(err, "parse reviews file %q", path)
	}

	var summary Summary
	for _, body := range reviews {
		var ref struct {
			ReviewID *int64 `json:"reviewId"`
			ID       *int64 `json:"id"`
		}
		if err := json.Unmarshal(body, &ref); err != nil {
			return summary, errs.Wrap(err, "parse review entry")
		}
		id := ref.ReviewID
		if id == nil {
			id = ref.ID
		}

		var cacheKey string
		if id != nil {
			cacheKey = fmt.Sprintf("ingest:%d", *id)
			if _, found, err := s.cache.Get(ctx, cacheKey); err != nil {
				return summary, errs.Wrap(err, "check ingest marker")
			} else if found {
				summary.Skipped++
				continue
			}
		}

		if err := s.publisher.Publish(ctx, ports.SubjectIncoming, body); err != nil {
			return summary, errs.Wrap(err, "publish feedback event")
		}
		summary.Published++

		if cacheKey != "" {
			if err := s.cache.Set(ctx, cacheKey, "sent", 0); err != nil {
				return summary, errs.Wrap(err, "record ingest marker")
			}
			logging.Info(logCtx, "feedback event published", slog.Int64("review_id", *id))
		} else {
			logging.Info(logCtx, "feedback event published without review id")
		}
	}

	logging.Info(logCtx, "ingestion finished",
		slog.Int("published", summary.Published),
		slog.Int("skipped", summary.Skipped),
	)
	return summary, nil
}
