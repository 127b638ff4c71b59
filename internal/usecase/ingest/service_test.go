package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reviewflow/internal/ports"
)

type capturePublisher struct {
	err      error
	payloads [][]byte
}

func (p *capturePublisher) Publish(_ context.Context, subject string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	if subject != ports.SubjectIncoming {
		return errors.New("unexpected subject " + subject)
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

type memoryCache struct {
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]string{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func writeReviews(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reviews.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write reviews file: %v", err)
	}
	return path
}

func TestPublishReviewsFirstRun(t *testing.T) {
	publisher := &capturePublisher{}
	svc := NewService(publisher, newMemoryCache())

	path := writeReviews(t, `[
		{"reviewId":9001,"review":"slow delivery"},
		{"id":9002,"text":"great app"}
	]`)
	summary, err := svc.PublishReviews(context.Background(), path)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if summary.Published != 2 || summary.Skipped != 0 {
		t.Fatalf("summary = %+v, want 2 published", summary)
	}
	if len(publisher.payloads) != 2 {
		t.Fatalf("payloads = %d, want 2", len(publisher.payloads))
	}
}

func TestPublishReviewsRerunSkipsSeenIDs(t *testing.T) {
	publisher := &capturePublisher{}
	cache := newMemoryCache()
	svc := NewService(publisher, cache)

	path := writeReviews(t, `[{"reviewId":9001,"review":"slow delivery"}]`)
	if _, err := svc.PublishReviews(context.Background(), path); err != nil {
		t.Fatalf("first run: %v", err)
	}

	summary, err := svc.PublishReviews(context.Background(), path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Published != 0 || summary.Skipped != 1 {
		t.Fatalf("summary = %+v, want 1 skipped", summary)
	}
	if len(publisher.payloads) != 1 {
		t.Fatalf("payloads = %d, rerun must not republish", len(publisher.payloads))
	}
}

func TestPublishReviewsEntriesWithoutIDAlwaysPublish(t *testing.T) {
	publisher := &capturePublisher{}
	svc := NewService(publisher, newMemoryCache())

	path := writeReviews(t, `[{"review":"anonymous note"}]`)
	for i := 0; i < 2; i++ {
		summary, err := svc.PublishReviews(context.Background(), path)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if summary.Published != 1 {
			t.Fatalf("run %d summary = %+v, want 1 published", i, summary)
		}
	}
	if len(publisher.payloads) != 2 {
		t.Fatalf("payloads = %d, id-less entries have no dedup key", len(publisher.payloads))
	}
}

func TestPublishReviewsMalformedFile(t *testing.T) {
	svc := NewService(&capturePublisher{}, newMemoryCache())

	path := writeReviews(t, `{"not":"an array"}`)
	if _, err := svc.PublishReviews(context.Background(), path); err == nil {
		t.Fatal("publish succeeded for malformed file")
	}
}

func TestPublishReviewsPublishErrorStops(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("broker down")}
	cache := newMemoryCache()
	svc := NewService(publisher, cache)

	path := writeReviews(t, `[{"reviewId":9001,"review":"x"}]`)
	if _, err := svc.PublishReviews(context.Background(), path); err == nil {
		t.Fatal("publish succeeded, want error")
	}
	if _, found, _ := cache.Get(context.Background(), "ingest:9001"); found {
		t.Fatal("marker recorded for unpublished event")
	}
}
