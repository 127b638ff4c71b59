package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"reviewflow/internal/bootstrap/logging"
	"reviewflow/internal/errs"
	"reviewflow/internal/ports"
)

// MessageHandler processes one delivery. A nil return acknowledges the
// message. An error wrapping ports.ErrPoisonMessage terminates the
// delivery; any other error triggers negative acknowledgement and
// redelivery.
type MessageHandler func(ctx context.Context, data []byte) error

type ConsumeOptions struct {
	Durable     string
	Subject     string
	Concurrency int
	AckWait     time.Duration
}

// Run consumes the subject until ctx is cancelled, handling at most
// Concurrency messages at a time. On shutdown, in-flight handlers finish
// and undispatched deliveries are negatively acknowledged so the broker
// redelivers them later.
func (c *Conn) Run(ctx context.Context, opts ConsumeOptions, handler MessageHandler) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if handler == nil {
		return errors.New("handler is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.AckWait <= 0 {
		opts.AckWait = 5 * time.Minute
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "queue.consumer"),
		slog.String("durable", opts.Durable),
		slog.String("subject", opts.Subject),
	)

	cons, err := c.js.CreateOrUpdateConsumer(ctx, c.stream, jetstream.ConsumerConfig{
		Durable:       opts.Durable,
		FilterSubject: opts.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       opts.AckWait,
		MaxAckPending: opts.Concurrency,
	})
	if err != nil {
		return errs.Wrapf(err, "ensure consumer %q", opts.Durable)
	}

	sem := make(chan struct{}, opts.Concurrency)
	var wg sync.WaitGroup

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			// Shutting down: leave the delivery for the next run.
			if err := msg.Nak(); err != nil {
				logging.Warn(logCtx, "nak on shutdown failed", slog.Any("err", errs.Loggable(err)))
			}
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			dispatch(logCtx, msg, handler)
		}()
	})
	if err != nil {
		return errs.Wrapf(err, "start consume %q", opts.Durable)
	}

	logging.Info(logCtx, "consumer started", slog.Int("concurrency", opts.Concurrency))

	<-ctx.Done()
	cc.Stop()
	wg.Wait()

	logging.Info(logCtx, "consumer stopped")
	return nil
}

func dispatch(ctx context.Context, msg jetstream.Msg, handler MessageHandler) {
	msgCtx := logging.WithAttrs(ctx, slog.String("msg_subject", msg.Subject()))

	err := handler(msgCtx, msg.Data())
	switch {
	case err == nil:
		if ackErr := msg.Ack(); ackErr != nil {
			logging.Warn(msgCtx, "ack failed", slog.Any("err", errs.Loggable(ackErr)))
		}
	case errors.Is(err, ports.ErrPoisonMessage):
		logging.Error(msgCtx, "terminating poison message", slog.Any("err", errs.Loggable(err)))
		if termErr := msg.Term(); termErr != nil {
			logging.Warn(msgCtx, "term failed", slog.Any("err", errs.Loggable(termErr)))
		}
	default:
		logging.Error(msgCtx, "message handling failed, requesting redelivery", slog.Any("err", errs.Loggable(err)))
		if nakErr := msg.Nak(); nakErr != nil {
			logging.Warn(msgCtx, "nak failed", slog.Any("err", errs.Loggable(nakErr)))
		}
	}
}
