package curate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/errs"
	"reviewflow/internal/ports"
)

// Service joins inbound feedback events with the customer directory and
// forwards the result to the curated queue.
type Service struct {
	directory *Directory
	publisher ports.Publisher
}

func NewService(directory *Directory, publisher ports.Publisher) *Service {
	return &Service{directory: directory, publisher: publisher}
}

// HandleIncoming enriches one feedback event. The event passes through as
// a raw object so fields this service does not know about survive; a
// matching profile is attached under "customer". Absence of a match is
// not a failure.
func (s *Service) HandleIncoming(ctx context.Context, data []byte) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "curate.service"))

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return errs.Wrapf(ports.ErrPoisonMessage, "parse feedback event: %v", err)
	}

	if id, ok := record["externalCustomerId"].(string); ok && id != "" {
		if profile, found := s.directory.Lookup(id); found {
			record["customer"] = profile
			logCtx = logging.WithAttrs(logCtx, slog.String("external_customer_id", id))
		}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return errs.Wrap(err, "encode curated record")
	}

	if err := s.publisher.Publish(ctx, ports.SubjectCurated, payload); err != nil {
		return errs.Wrap(err, "publish curated record")
	}

	logging.Info(logCtx, "feedback event curated")
	return nil
}
