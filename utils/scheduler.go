package utils

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// RetryJob re-runs undelivered background work and reports how many items succeeded.
type RetryJob interface {
	RetryPending(ctx context.Context) (int, error)
}

// InitializeScheduler starts the retry jobs. Call Stop on the returned cron to shut it down.
func InitializeScheduler(notifications, assetReleases RetryJob) *cron.Cron {
	log.Println("[SCHEDULER] Initializing background scheduler...")

	c := cron.New()

	// Every minute: resend notifications that failed after commit
	c.AddFunc("* * * * *", func() {
		runRetry("notification", notifications)
	})

	// Every 5 minutes: retry media deletions left over from cascading deletes
	c.AddFunc("*/5 * * * *", func() {
		runRetry("asset-release", assetReleases)
	})

	c.Start()
	log.Println("[SCHEDULER] Scheduler started - notification retry every minute, asset release retry every 5 minutes")
	return c
}

func runRetry(name string, job RetryJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
	defer cancel()

	n, err := job.RetryPending(ctx)
	if err != nil {
		log.Printf("[SCHEDULER] %s retry failed: %v", name, err)
		return
	}
	if n > 0 {
		log.Printf("[SCHEDULER] %s retry delivered %d item(s)", name, n)
	}
}
