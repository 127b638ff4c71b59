package process

// Stage is the per-message progression. Each message moves through the
// stages strictly in order; acknowledgement happens only after routing
// completed or was determined not to apply.
type Stage string

const (
	StageReceived   Stage = "received"
	StageClassified Stage = "classified"
	StagePersisted  Stage = "persisted"
	StageRouted     Stage = "routed"
)
