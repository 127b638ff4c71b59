package queue

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go/jetstream"

	"reviewflow/internal/errs"
	"reviewflow/internal/ports"
)

// JetStreamPublisher writes payloads to stream subjects with broker
// acknowledgement, implementing ports.Publisher.
type JetStreamPublisher struct {
	js jetstream.JetStream
}

var _ ports.Publisher = (*JetStreamPublisher)(nil)

func NewJetStreamPublisher(conn *Conn) *JetStreamPublisher {
	return &JetStreamPublisher{js: conn.js}
}

func (p *JetStreamPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return errs.Wrapf(err, "publish to %q", subject)
	}
	return nil
}
