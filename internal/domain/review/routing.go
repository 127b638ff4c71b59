package review

// Destination names a downstream queue the pipeline can publish to.
type Destination string

const (
	DestinationOutgoing     Destination = "outgoing"
	DestinationNotification Destination = "notification"
)

// OutgoingPayload is the message shape both downstream queues receive.
type OutgoingPayload struct {
	ReviewID           int64   `json:"reviewId"`
	Channel            string  `json:"channel"`
	ExternalCustomerID string  `json:"externalCustomerId,omitempty"`
	CustomerName       string  `json:"customerName,omitempty"`
	ReviewText         string  `json:"reviewText"`
	StarRating         int     `json:"starRating"`
	Location           string  `json:"location,omitempty"`
	Escalation         bool    `json:"escalation"`
	Sentiment          *string `json:"sentiment"`
	Theme              *string `json:"theme"`
	AIResponse         string  `json:"ai_response"`
}

// Route decides the downstream destinations for a classified record.
// No response text means nothing is routed: the record is persisted but
// the pipeline ends silently rather than dropping the record.
func Route(c Classification) []Destination {
	if c.Failed() {
		return nil
	}
	if c.Escalation {
		return []Destination{DestinationOutgoing, DestinationNotification}
	}
	return []Destination{DestinationOutgoing}
}

func BuildOutgoingPayload(rec Record, c Classification) OutgoingPayload {
	payload := OutgoingPayload{
		ReviewID:           rec.ReviewID,
		Channel:            rec.Channel,
		ExternalCustomerID: rec.ExternalCustomerID,
		CustomerName:       rec.CustomerName,
		ReviewText:         rec.ReviewText,
		StarRating:         rec.StarRating,
		Location:           rec.Location,
		Escalation:         c.Escalation,
		Sentiment:          c.Sentiment,
		Theme:              c.Theme,
	}
	if c.Response != nil {
		payload.AIResponse = *c.Response
	}
	return payload
}
