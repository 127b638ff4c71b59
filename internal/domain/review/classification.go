package review

import (
	"encoding/json"
	"strings"
)

// Classification is the parsed result of one reasoning-service call.
// All pointer fields stay nil when the call failed; the record is
// persisted either way.
type Classification struct {
	Sentiment  *string
	Theme      *string
	Escalation bool
	Response   *string

	// ContinuationToken identifies the service-side conversation so a
	// follow-up call can continue it. Protocol detail only, never stored.
	ContinuationToken string
}

type classificationWire struct {
	Sentiment  string `json:"sentiment"`
	Theme      string `json:"theme"`
	Escalation bool   `json:"escalation"`
	Response   string `json:"response"`
}

// ParseClassification decodes the service output. The contract is a JSON
// object with sentiment/theme/escalation/response; output that does not
// parse yields the all-nil classification, which persists the record
// without routing it.
func ParseClassification(output string) Classification {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return Classification{}
	}

	var wire classificationWire
	if err := json.Unmarshal([]byte(trimmed), &wire); err != nil {
		return Classification{}
	}

	c := Classification{Escalation: wire.Escalation}
	if wire.Sentiment != "" {
		c.Sentiment = &wire.Sentiment
	}
	if wire.Theme != "" {
		c.Theme = &wire.Theme
	}
	if wire.Response != "" {
		c.Response = &wire.Response
	}
	return c
}

// Failed reports whether classification produced nothing routable.
func (c Classification) Failed() bool {
	return c.Response == nil
}
