package curate

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reviewflow/internal/domain/review"
	"reviewflow/internal/ports"
)

type capturePublisher struct {
	err      error
	subjects []string
	payloads [][]byte
}

func (p *capturePublisher) Publish(_ context.Context, subject string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload)
	return nil
}

func testDirectory() *Directory {
	return NewDirectory([]review.CustomerProfile{
		{ExternalCustomerID: "CUST-1001", Name: "Ada Quinn", Segment: "enterprise", Region: "EU"},
		{ExternalCustomerID: "CUST-1002", Name: "Ben Ito"},
	})
}

func TestHandleIncomingAttachesKnownCustomer(t *testing.T) {
	publisher := &capturePublisher{}
	svc := NewService(testDirectory(), publisher)

	body := []byte(`{"reviewId":9001,"review":"slow support","externalCustomerId":"CUST-1001"}`)
	if err := svc.HandleIncoming(context.Background(), body); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(publisher.subjects) != 1 || publisher.subjects[0] != ports.SubjectCurated {
		t.Fatalf("subjects = %v, want [%s]", publisher.subjects, ports.SubjectCurated)
	}

	var out map[string]any
	if err := json.Unmarshal(publisher.payloads[0], &out); err != nil {
		t.Fatalf("decode curated record: %v", err)
	}
	customer, ok := out["customer"].(map[string]any)
	if !ok {
		t.Fatalf("customer missing from curated record: %v", out)
	}
	if customer["name"] != "Ada Quinn" {
		t.Fatalf("customer name = %v, want Ada Quinn", customer["name"])
	}
}

func TestHandleIncomingUnknownCustomerPassesThrough(t *testing.T) {
	publisher := &capturePublisher{}
	svc := NewService(testDirectory(), publisher)

	body := []byte(`{"reviewId":9002,"review":"ok","externalCustomerId":"CUST-9999"}`)
	if err := svc.HandleIncoming(context.Background(), body); err != nil {
		t.Fatalf("handle: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(publisher.payloads[0], &out); err != nil {
		t.Fatalf("decode curated record: %v", err)
	}
	if _, ok := out["customer"]; ok {
		t.Fatal("customer attached for unknown id")
	}
	if out["externalCustomerId"] != "CUST-9999" {
		t.Fatalf("externalCustomerId = %v, original fields must survive", out["externalCustomerId"])
	}
}

func TestHandleIncomingPreservesUnknownFields(t *testing.T) {
	publisher := &capturePublisher{}
	svc := NewService(testDirectory(), publisher)

	body := []byte(`{"reviewId":9003,"review":"fine","orderNumber":"ORD-77","tags":["vip"]}`)
	if err := svc.HandleIncoming(context.Background(), body); err != nil {
		t.Fatalf("handle: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(publisher.payloads[0], &out); err != nil {
		t.Fatalf("decode curated record: %v", err)
	}
	if out["orderNumber"] != "ORD-77" {
		t.Fatalf("orderNumber = %v, unknown fields must pass through", out["orderNumber"])
	}
}

func TestHandleIncomingMalformedBodyIsPoison(t *testing.T) {
	svc := NewService(testDirectory(), &capturePublisher{})

	err := svc.HandleIncoming(context.Background(), []byte("not json"))
	if !errors.Is(err, ports.ErrPoisonMessage) {
		t.Fatalf("err = %v, want ErrPoisonMessage", err)
	}
}

func TestHandleIncomingPublishErrorPropagates(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("broker down")}
	svc := NewService(testDirectory(), publisher)

	err := svc.HandleIncoming(context.Background(), []byte(`{"reviewId":1}`))
	if err == nil {
		t.Fatal("handle succeeded, want error")
	}
	if errors.Is(err, ports.ErrPoisonMessage) {
		t.Fatal("publish failure classified as poison, want redeliverable error")
	}
}

func TestLoadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers.json")
	content := `[
		{"externalCustomerId":"CUST-1001","name":"Ada Quinn"},
		{"externalCustomerId":"","name":"no id"},
		{"externalCustomerId":"CUST-1002","name":"Ben Ito"}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write customers file: %v", err)
	}

	dir, err := LoadDirectory(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if dir.Len() != 2 {
		t.Fatalf("Len() = %d, entries without id must be skipped", dir.Len())
	}
	if _, found := dir.Lookup("CUST-1001"); !found {
		t.Fatal("CUST-1001 not found")
	}
	if _, found := dir.Lookup("CUST-0000"); found {
		t.Fatal("unexpected match for unknown id")
	}
}

func TestLoadDirectoryMissingFile(t *testing.T) {
	if _, err := LoadDirectory(context.Background(), filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("load succeeded for missing file")
	}
}
