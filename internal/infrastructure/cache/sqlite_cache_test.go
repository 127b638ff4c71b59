package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"reviewflow/internal/infrastructure/persistence/sqlite/model"
)

func setupCache(t *testing.T) *SQLiteCache {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "cache.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.PipelineKV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewSQLiteCache(db)
}

func TestCacheSetGet(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	if _, found, err := c.Get(ctx, "ingest:9001"); err != nil || found {
		t.Fatalf("Get before Set = found=%v err=%v, want miss", found, err)
	}

	if err := c.Set(ctx, "ingest:9001", "1", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	value, found, err := c.Get(ctx, "ingest:9001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || value != "1" {
		t.Fatalf("Get = (%q, %v), want (\"1\", true)", value, found)
	}
}

func TestCacheSetOverwrites(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "trends:last_run_at", "2026-08-01T00:00:00Z", 0); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := c.Set(ctx, "trends:last_run_at", "2026-08-02T00:00:00Z", 0); err != nil {
		t.Fatalf("second set: %v", err)
	}

	value, found, err := c.Get(ctx, "trends:last_run_at")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || value != "2026-08-02T00:00:00Z" {
		t.Fatalf("Get = (%q, %v), want latest value", value, found)
	}
}

func TestCacheDelete(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, err := c.Get(ctx, "k"); err != nil || found {
		t.Fatalf("Get after Delete = found=%v err=%v, want miss", found, err)
	}

	// deleting a missing key is not an error
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestCacheRejectsEmptyKey(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "  ", "v", 0); err == nil {
		t.Fatal("Set with blank key succeeded")
	}
	if _, _, err := c.Get(ctx, ""); err == nil {
		t.Fatal("Get with empty key succeeded")
	}
}
