package ports

import (
	"context"
	"errors"
)

// Durable subjects of the review stream. Every destination the pipeline
// publishes to or consumes from is one of these.
const (
	SubjectIncoming     = "reviews.incoming"
	SubjectCurated      = "reviews.curated"
	SubjectOutgoing     = "reviews.outgoing"
	SubjectNotification = "reviews.notification"
)

// ErrPoisonMessage marks an inbound message that can never succeed (for
// example an unparseable body). Consumers terminate its delivery instead
// of retrying, so it cannot block the queue.
var ErrPoisonMessage = errors.New("poison message")

// Publisher delivers a payload to a named durable destination. The
// destination's behavior is out of scope; the contract is acceptance by
// the broker.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}
