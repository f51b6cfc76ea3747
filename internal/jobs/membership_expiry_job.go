package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"inkworks/redpen/internal/metrics"
	"inkworks/redpen/internal/services"
)

// MembershipExpiryJob deactivates memberships past their expiry date so paid
// perks stop applying the hour they lapse rather than on next login.
type MembershipExpiryJob struct {
	memberships *services.MembershipService
	metrics     *metrics.MetricsRegistry
}

func NewMembershipExpiryJob(memberships *services.MembershipService, metricsReg *metrics.MetricsRegistry) *MembershipExpiryJob {
	return &MembershipExpiryJob{
		memberships: memberships,
		metrics:     metricsReg,
	}
}

// Run executes one expiry sweep (exported for manual triggering)
func (j *MembershipExpiryJob) Run(ctx context.Context) error {
	start := time.Now()
	log.Printf("[MembershipExpiryJob] Starting expiry sweep at %s", start.Format(time.RFC3339))

	expired, err := j.memberships.ExpireOverdue(ctx)

	if j.metrics != nil {
		j.metrics.ScheduledJobDuration.WithLabelValues("membership_expiry").Observe(time.Since(start).Seconds())
	}

	if err != nil {
		log.Printf("[MembershipExpiryJob] Error expiring memberships: %v", err)
		return fmt.Errorf("failed to expire memberships: %w", err)
	}

	log.Printf("[MembershipExpiryJob] Completed in %s. Memberships expired: %d",
		time.Since(start).Truncate(time.Millisecond), expired)
	return nil
}

// RunScheduled runs the expiry sweep on a schedule (e.g., every hour)
func (j *MembershipExpiryJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once on startup so a restart never leaves stale memberships active
	if err := j.Run(ctx); err != nil {
		log.Printf("[MembershipExpiryJob] Error in initial run: %v", err)
	}

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				log.Printf("[MembershipExpiryJob] Error in scheduled run: %v", err)
			}
		case <-ctx.Done():
			log.Printf("[MembershipExpiryJob] Shutting down scheduled sweep")
			return
		}
	}
}
