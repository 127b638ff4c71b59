package ports

import "context"

// ClassifyRequest carries the review text to analyze. When
// ContinuationToken is set the classifier continues the identified
// service-side conversation and omits the instruction and text entirely.
type ClassifyRequest struct {
	ReviewText        string
	ContinuationToken string
}

// ClassifyResult is the raw service output before domain parsing.
type ClassifyResult struct {
	OutputText        string
	ContinuationToken string
}

// Classifier performs exactly one reasoning-service call per Classify.
// Retry policy belongs to the caller; implementations never retry.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (ClassifyResult, error)
}
