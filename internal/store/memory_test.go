package store

import (
	"context"
	"testing"
	"time"

	"lifeos/internal/models"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	if _, err := s.Get(ctx, "k"); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	s.Set(ctx, "k", []byte("v"))
	val, err := s.Get(ctx, "k")
	if err != nil || string(val) != "v" {
		t.Fatalf("Expected v, got %s (%v)", val, err)
	}

	s.Delete(ctx, "k")
	if _, err := s.Get(ctx, "k"); err != ErrNotFound {
		t.Error("Deleted key should be gone")
	}
}

func TestMemoryStore_DeletePrefix(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	s.Set(ctx, "a:1", []byte("x"))
	s.Set(ctx, "a:2", []byte("y"))
	s.Set(ctx, "b:1", []byte("z"))

	s.DeletePrefix(ctx, "a:")

	if _, err := s.Get(ctx, "a:1"); err != ErrNotFound {
		t.Error("Prefixed key should be gone")
	}
	if _, err := s.Get(ctx, "b:1"); err != nil {
		t.Error("Other prefix should survive")
	}
}

func TestMemoryUsageLog_CountAndList(t *testing.T) {
	l := NewMemoryUsageLog()
	ctx := context.Background()
	now := time.Now().UTC()

	l.Append(ctx, models.UsageLogRecord{ID: "r1", UserID: "u1", FeatureName: "tags", CreatedAt: now.Add(-time.Minute)})
	l.Append(ctx, models.UsageLogRecord{ID: "r2", UserID: "u1", FeatureName: "tags", CreatedAt: now})
	l.Append(ctx, models.UsageLogRecord{ID: "r3", UserID: "u1", FeatureName: "swot", CreatedAt: now})
	l.Append(ctx, models.UsageLogRecord{ID: "r4", UserID: "u2", FeatureName: "tags", CreatedAt: now})

	count, err := l.CountSince(ctx, "u1", "tags", now.Add(-time.Hour))
	if err != nil || count != 2 {
		t.Errorf("Expected count 2, got %d (%v)", count, err)
	}

	list, err := l.List(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 || list[0].ID != "r2" && list[0].ID != "r3" {
		t.Errorf("Expected 3 records newest first, got %+v", list)
	}
}

func TestMemoryUsageLog_DeleteOlderThan(t *testing.T) {
	l := NewMemoryUsageLog()
	ctx := context.Background()
	now := time.Now().UTC()

	l.Append(ctx, models.UsageLogRecord{ID: "old", UserID: "u1", FeatureName: "tags", CreatedAt: now.AddDate(0, 0, -100)})
	l.Append(ctx, models.UsageLogRecord{ID: "new", UserID: "u1", FeatureName: "tags", CreatedAt: now})

	deleted, err := l.DeleteOlderThan(ctx, now.AddDate(0, 0, -90))
	if err != nil || deleted != 1 {
		t.Errorf("Expected 1 deletion, got %d (%v)", deleted, err)
	}

	count, _ := l.CountSince(ctx, "u1", "tags", time.Time{})
	if count != 1 {
		t.Errorf("Expected 1 surviving record, got %d", count)
	}
}
