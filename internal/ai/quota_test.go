package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"lifeos/internal/models"
	"lifeos/internal/store"
)

func seedUsage(t *testing.T, log *store.MemoryUsageLog, userID, feature string, n int, at time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := log.Append(context.Background(), models.UsageLogRecord{
			ID:          uuid.NewString(),
			UserID:      userID,
			FeatureName: feature,
			Success:     true,
			CreatedAt:   at,
		})
		if err != nil {
			t.Fatalf("Failed to seed usage record: %v", err)
		}
	}
}

func TestQuotaGuard_UnderLimit(t *testing.T) {
	usageLog := store.NewMemoryUsageLog()
	guard := NewQuotaGuard(usageLog, store.NewMemoryPreferences(), 20)

	seedUsage(t, usageLog, "user-1", "tags", 19, time.Now().UTC())

	if err := guard.CheckLimit(context.Background(), "user-1", "tags", false); err != nil {
		t.Fatalf("Call 20 of 20 should pass: %v", err)
	}
}

func TestQuotaGuard_AtLimitDenied(t *testing.T) {
	usageLog := store.NewMemoryUsageLog()
	guard := NewQuotaGuard(usageLog, store.NewMemoryPreferences(), 20)

	seedUsage(t, usageLog, "user-1", "tags", 20, time.Now().UTC())

	err := guard.CheckLimit(context.Background(), "user-1", "tags", false)
	if err == nil {
		t.Fatal("Call 21 should be denied")
	}

	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Expected *QuotaExceededError, got %T", err)
	}
	if quotaErr.ErrorCode != "daily_limit_exceeded" {
		t.Errorf("Expected daily_limit_exceeded, got %q", quotaErr.ErrorCode)
	}
	if quotaErr.Used != 20 || quotaErr.Limit != 20 {
		t.Errorf("Expected used=20 limit=20, got used=%d limit=%d", quotaErr.Used, quotaErr.Limit)
	}
	if !quotaErr.ResetAt.After(time.Now().UTC()) {
		t.Error("ResetAt should be in the future")
	}
}

func TestQuotaGuard_PerFeatureAndPerUser(t *testing.T) {
	usageLog := store.NewMemoryUsageLog()
	guard := NewQuotaGuard(usageLog, store.NewMemoryPreferences(), 20)

	seedUsage(t, usageLog, "user-1", "tags", 20, time.Now().UTC())

	if err := guard.CheckLimit(context.Background(), "user-1", "swot", false); err != nil {
		t.Errorf("Another feature has its own count: %v", err)
	}
	if err := guard.CheckLimit(context.Background(), "user-2", "tags", false); err != nil {
		t.Errorf("Another user has their own count: %v", err)
	}
}

func TestQuotaGuard_YesterdayDoesNotCount(t *testing.T) {
	usageLog := store.NewMemoryUsageLog()
	guard := NewQuotaGuard(usageLog, store.NewMemoryPreferences(), 20)

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	seedUsage(t, usageLog, "user-1", "tags", 20, yesterday)

	if err := guard.CheckLimit(context.Background(), "user-1", "tags", false); err != nil {
		t.Errorf("Counting window resets at midnight UTC: %v", err)
	}
}

func TestQuotaGuard_ForceBypassesCeiling(t *testing.T) {
	usageLog := store.NewMemoryUsageLog()
	guard := NewQuotaGuard(usageLog, store.NewMemoryPreferences(), 20)

	seedUsage(t, usageLog, "user-1", "tags", 20, time.Now().UTC())

	if err := guard.CheckLimit(context.Background(), "user-1", "tags", true); err != nil {
		t.Errorf("Force must bypass the daily ceiling: %v", err)
	}
}

func TestQuotaGuard_ReducedAIDenied(t *testing.T) {
	prefs := store.NewMemoryPreferences()
	prefs.SetReducedAI("user-1", true)
	guard := NewQuotaGuard(store.NewMemoryUsageLog(), prefs, 20)

	err := guard.CheckLimit(context.Background(), "user-1", "tags", false)
	if err == nil {
		t.Fatal("Reduced-AI users are denied pre-emptively")
	}

	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Expected *QuotaExceededError, got %T", err)
	}
	if quotaErr.ErrorCode != "reduced_ai_enabled" {
		t.Errorf("Expected reduced_ai_enabled, got %q", quotaErr.ErrorCode)
	}
}

func TestQuotaGuard_ForceBypassesReducedAI(t *testing.T) {
	prefs := store.NewMemoryPreferences()
	prefs.SetReducedAI("user-1", true)
	guard := NewQuotaGuard(store.NewMemoryUsageLog(), prefs, 20)

	if err := guard.CheckLimit(context.Background(), "user-1", "tags", true); err != nil {
		t.Errorf("Force is the explicit opt-down override: %v", err)
	}
}

func TestQuotaGuard_DefaultLimit(t *testing.T) {
	guard := NewQuotaGuard(store.NewMemoryUsageLog(), store.NewMemoryPreferences(), 0)
	if guard.DailyLimit() != DefaultDailyLimit {
		t.Errorf("Expected default limit %d, got %d", DefaultDailyLimit, guard.DailyLimit())
	}
}
