package jobs

import (
	"context"
	"testing"
	"time"

	"lifeos/internal/models"
	"lifeos/internal/store"
)

func TestRetentionJob_Sweep(t *testing.T) {
	usageLog := store.NewMemoryUsageLog()
	now := time.Now().UTC()

	usageLog.Append(context.Background(), models.UsageLogRecord{ID: "old", UserID: "u1", FeatureName: "tags", CreatedAt: now.AddDate(0, 0, -100)})
	usageLog.Append(context.Background(), models.UsageLogRecord{ID: "new", UserID: "u1", FeatureName: "tags", CreatedAt: now})

	job, err := NewRetentionJob(usageLog, 90)
	if err != nil {
		t.Fatalf("NewRetentionJob failed: %v", err)
	}

	job.Sweep()

	count, _ := usageLog.CountSince(context.Background(), "u1", "tags", time.Time{})
	if count != 1 {
		t.Errorf("Expected only the recent record to survive, got %d", count)
	}
}

func TestRetentionJob_StartStop(t *testing.T) {
	job, err := NewRetentionJob(store.NewMemoryUsageLog(), 0)
	if err != nil {
		t.Fatalf("NewRetentionJob failed: %v", err)
	}
	if err := job.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := job.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
