// Package jobs holds background maintenance work scheduled with gocron.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"lifeos/internal/store"
)

// RetentionJob prunes usage-log records past the retention window once a
// day. The usage log is append-only during request handling; this sweep
// is the only thing that ever removes from it.
type RetentionJob struct {
	scheduler gocron.Scheduler
	usageLog  store.UsageLog
	retention time.Duration
}

func NewRetentionJob(usageLog store.UsageLog, retentionDays int) (*RetentionJob, error) {
	if retentionDays <= 0 {
		retentionDays = 90
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &RetentionJob{
		scheduler: scheduler,
		usageLog:  usageLog,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}, nil
}

// Start registers the daily sweep (03:10 UTC, off the midnight quota
// boundary) and starts the scheduler.
func (j *RetentionJob) Start() error {
	_, err := j.scheduler.NewJob(
		gocron.CronJob("10 3 * * *", false),
		gocron.NewTask(j.Sweep),
		gocron.WithName("usage_log_retention"),
	)
	if err != nil {
		return fmt.Errorf("failed to register retention job: %w", err)
	}

	j.scheduler.Start()
	log.Printf("✅ Usage log retention job scheduled (keep %d days)", int(j.retention.Hours()/24))
	return nil
}

// Sweep deletes records older than the retention window.
func (j *RetentionJob) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-j.retention)
	deleted, err := j.usageLog.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("⚠️ [RETENTION] sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("🧹 [RETENTION] pruned %d usage records older than %s", deleted, cutoff.Format("2006-01-02"))
	}
}

// Stop shuts the scheduler down.
func (j *RetentionJob) Stop() error {
	return j.scheduler.Shutdown()
}
