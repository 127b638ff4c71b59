package queue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"reviewflow/internal/bootstrap/config"
	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/errs"
)

// Conn bundles the NATS connection with its JetStream context so the
// lifecycle can be managed as one unit.
type Conn struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	stream string
}

func Connect(ctx context.Context, cfg config.QueueConfig, appName string) (*Conn, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "queue.conn"))

	nc, err := nats.Connect(cfg.URL, nats.Name(appName))
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, errs.Wrap(err, "create jetstream context")
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{"reviews.>"},
		Storage:  jetstream.FileStorage,
	}); err != nil {
		nc.Close()
		return nil, errs.Wrapf(err, "ensure stream %q", cfg.Stream)
	}

	logging.Info(logCtx, "queue connected", slog.String("url", cfg.URL), slog.String("stream", cfg.Stream))

	return &Conn{nc: nc, js: js, stream: cfg.Stream}, nil
}

func (c *Conn) Close() {
	if c == nil || c.nc == nil {
		return
	}
	c.nc.Close()
}
