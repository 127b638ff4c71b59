package ports

import (
	"context"
	"errors"
	"time"
)

var ErrReviewNotFound = errors.New("processed response not found")

// TimeLayout is the storage format for time columns. Fractional seconds
// are fixed-width so the text sorts the same way the instants do;
// RFC3339Nano strips trailing zeros and breaks lexical comparison within
// a second. Always format UTC values with it.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// ConflictPolicy selects what an upsert does when the review id already
// has a row. ConflictIgnore is the baseline: the stored row wins and the
// redelivered classification is discarded. ConflictUpdate refreshes the
// classification columns instead.
type ConflictPolicy string

const (
	ConflictIgnore ConflictPolicy = "ignore"
	ConflictUpdate ConflictPolicy = "update"
)

// ProcessedResponse is one persisted review, keyed by ReviewID.
// Nullable columns are pointers; CreatedAt uses TimeLayout.
type ProcessedResponse struct {
	ReviewID           int64
	ReviewDate         string
	Channel            string
	ExternalCustomerID *string
	CustomerName       *string
	ReviewText         string
	StarRating         int
	Location           *string
	Escalation         bool
	Sentiment          *string
	Theme              *string
	AIResponse         *string
	CreatedAt          string
}

type TrendRow struct {
	TrendDate       string
	Channel         string
	Sentiment       string
	Theme           string
	ReviewCount     int
	EscalationCount int
	AvgStarRating   float64
	Anomaly         bool
}

type ReviewRepository interface {
	// UpsertProcessedResponse stores the row, applying the conflict
	// policy when the review id already exists. Returns whether a row
	// was written.
	UpsertProcessedResponse(ctx context.Context, row ProcessedResponse, policy ConflictPolicy) (bool, error)
	GetProcessedResponse(ctx context.Context, reviewID int64) (ProcessedResponse, error)
	// ListProcessedSince returns rows whose created_at is at or after
	// the cutoff, the aggregator's sliding window read.
	ListProcessedSince(ctx context.Context, cutoff time.Time) ([]ProcessedResponse, error)
	CountProcessedResponses(ctx context.Context) (int64, error)
}

type TrendRepository interface {
	// ReplaceTrends swaps the entire aggregate table for the given rows.
	// Callers run it inside a unit of work so a failed rewrite leaves
	// the previous contents intact.
	ReplaceTrends(ctx context.Context, rows []TrendRow) error
	ListTrends(ctx context.Context, onlyAnomalies bool) ([]TrendRow, error)
}
