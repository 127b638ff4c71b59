package review

import (
	"errors"
	"strings"
	"time"
)

var ErrMissingReviewID = errors.New("feedback event has no review id")

// CustomerProfile is one entry of the customer directory, keyed by the
// external customer id carried on feedback events.
type CustomerProfile struct {
	ExternalCustomerID string `json:"externalCustomerId"`
	Name               string `json:"name"`
	Segment            string `json:"segment,omitempty"`
	Region             string `json:"region,omitempty"`
}

// Envelope is the wire shape of a feedback event as upstream producers
// emit it. Several producers label the same field differently, so the
// envelope keeps every known alias and Normalize picks the first set one.
type Envelope struct {
	ReviewID   *int64 `json:"reviewId,omitempty"`
	ID         *int64 `json:"id,omitempty"`
	Review     string `json:"review,omitempty"`
	ReviewText string `json:"reviewText,omitempty"`
	Text       string `json:"text,omitempty"`
	StarRating *int   `json:"starRating,omitempty"`
	Rating     *int   `json:"rating,omitempty"`
	ReviewDate string `json:"reviewDate,omitempty"`
	Datetime   string `json:"datetime,omitempty"`
	Channel    string `json:"channel,omitempty"`
	Location   string `json:"location,omitempty"`

	ExternalCustomerID string           `json:"externalCustomerId,omitempty"`
	Customer           *CustomerProfile `json:"customer,omitempty"`
}

// Record is the canonical in-flight form of a feedback event after
// alias resolution, optionally carrying the matched customer profile.
type Record struct {
	ReviewID           int64
	ReviewText         string
	StarRating         int
	ReviewDate         string
	Channel            string
	Location           string
	ExternalCustomerID string
	CustomerName       string
}

// Normalize resolves field aliases and defaults. A missing review id is
// the one unrecoverable defect: without it the dedup barrier has no key.
func (e Envelope) Normalize(now time.Time) (Record, error) {
	id := e.ReviewID
	if id == nil {
		id = e.ID
	}
	if id == nil {
		return Record{}, ErrMissingReviewID
	}

	text := e.Review
	if text == "" {
		text = e.ReviewText
	}
	if text == "" {
		text = e.Text
	}

	rating := 0
	if e.StarRating != nil {
		rating = *e.StarRating
	} else if e.Rating != nil {
		rating = *e.Rating
	}

	date := strings.TrimSpace(e.ReviewDate)
	if date == "" {
		date = strings.TrimSpace(e.Datetime)
	}
	if date == "" {
		date = now.UTC().Format(time.RFC3339)
	}

	channel := strings.TrimSpace(e.Channel)
	if channel == "" {
		channel = "unknown"
	}

	rec := Record{
		ReviewID:           *id,
		ReviewText:         text,
		StarRating:         rating,
		ReviewDate:         date,
		Channel:            channel,
		Location:           strings.TrimSpace(e.Location),
		ExternalCustomerID: strings.TrimSpace(e.ExternalCustomerID),
	}
	if e.Customer != nil {
		rec.CustomerName = e.Customer.Name
	}
	return rec, nil
}
