package ai

import (
	"context"
	"fmt"
	"log"
	"time"

	"lifeos/internal/store"
)

// DefaultDailyLimit is the per-user, per-feature AI call ceiling for one
// calendar day (UTC).
const DefaultDailyLimit = 20

// QuotaGuard enforces the daily ceiling by counting usage records since
// midnight UTC. The log is the counter; check-then-log is deliberately
// non-atomic, so under true concurrency the ceiling is a soft
// cost-control bound rather than a hard limit.
type QuotaGuard struct {
	usageLog    store.UsageLog
	preferences store.PreferenceReader
	dailyLimit  int
}

func NewQuotaGuard(usageLog store.UsageLog, preferences store.PreferenceReader, dailyLimit int) *QuotaGuard {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	return &QuotaGuard{usageLog: usageLog, preferences: preferences, dailyLimit: dailyLimit}
}

// DailyLimit returns the configured ceiling.
func (g *QuotaGuard) DailyLimit() int { return g.dailyLimit }

// CheckLimit returns nil when the call may proceed and a typed
// *QuotaExceededError when it may not.
//
// A user with reduced-AI mode on is denied pre-emptively regardless of
// count. Force is the explicit interactive override: it bypasses both the
// opt-down and the day's ceiling.
func (g *QuotaGuard) CheckLimit(ctx context.Context, userID, feature string, force bool) error {
	if force {
		return nil
	}

	reduced, err := g.preferences.ReducedAI(ctx, userID)
	if err != nil {
		// fail open on preference lookup errors
		log.Printf("⚠️ [AI-QUOTA] preference lookup failed for %s: %v", userID, err)
	} else if reduced {
		return &QuotaExceededError{
			ErrorCode: "reduced_ai_enabled",
			Message:   "Reduced-AI mode is enabled for this account",
			Limit:     g.dailyLimit,
			ResetAt:   nextMidnightUTC(),
		}
	}

	used, err := g.usageLog.CountSince(ctx, userID, feature, startOfDayUTC())
	if err != nil {
		// fail open: a broken log must not take AI features down
		log.Printf("⚠️ [AI-QUOTA] usage count failed for %s/%s: %v", userID, feature, err)
		return nil
	}

	if used >= g.dailyLimit {
		return &QuotaExceededError{
			ErrorCode: "daily_limit_exceeded",
			Message:   fmt.Sprintf("Daily AI limit reached (%d/%d). Resets at midnight UTC.", used, g.dailyLimit),
			Limit:     g.dailyLimit,
			Used:      used,
			ResetAt:   nextMidnightUTC(),
		}
	}

	return nil
}

func startOfDayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func nextMidnightUTC() time.Time {
	return startOfDayUTC().AddDate(0, 0, 1)
}
