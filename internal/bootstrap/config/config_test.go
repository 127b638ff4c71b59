package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: reviewflow-test\n")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.Name != "reviewflow-test" {
		t.Fatalf("App.Name = %q, want file value", cfg.App.Name)
	}
	if cfg.App.Env != "local" {
		t.Fatalf("App.Env = %q, want default local", cfg.App.Env)
	}
	if cfg.Queue.Stream != "REVIEWS" {
		t.Fatalf("Queue.Stream = %q, want default REVIEWS", cfg.Queue.Stream)
	}
	if cfg.Pipeline.Concurrency != 4 || cfg.Pipeline.OnConflict != "ignore" {
		t.Fatalf("pipeline = %+v, want defaults", cfg.Pipeline)
	}
	if cfg.Classifier.Timeout() != 900*time.Second {
		t.Fatalf("classifier timeout = %v, want 900s", cfg.Classifier.Timeout())
	}
	if cfg.Trends.Interval() != time.Hour || cfg.Trends.WindowDays != 30 {
		t.Fatalf("trends = %+v, want defaults", cfg.Trends)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: /tmp/custom.sqlite
queue:
  url: nats://broker:4222
pipeline:
  concurrency: 8
  on_conflict: update
trends:
  interval_minutes: 15
  window_days: 7
`)

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.DSN != "/tmp/custom.sqlite" {
		t.Fatalf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Queue.URL != "nats://broker:4222" {
		t.Fatalf("Queue.URL = %q", cfg.Queue.URL)
	}
	if cfg.Pipeline.Concurrency != 8 || cfg.Pipeline.OnConflict != "update" {
		t.Fatalf("pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Trends.Interval() != 15*time.Minute || cfg.Trends.WindowDays != 7 {
		t.Fatalf("trends = %+v", cfg.Trends)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"zero concurrency", "pipeline:\n  concurrency: 0\n"},
		{"bad conflict policy", "pipeline:\n  on_conflict: merge\n"},
		{"zero window", "trends:\n  window_days: 0\n"},
		{"zero interval", "trends:\n  interval_minutes: 0\n"},
		{"empty dsn", "database:\n  dsn: \"\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			if _, err := Load(context.Background(), path); err == nil {
				t.Fatalf("load succeeded for %s", tc.name)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	if _, err := Load(context.Background(), path); err == nil {
		t.Fatal("load succeeded for missing explicit file")
	}
}
