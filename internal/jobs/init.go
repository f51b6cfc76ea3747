package jobs

import (
	"context"
	"time"

	"inkworks/redpen/internal/metrics"
	"inkworks/redpen/internal/services"
)

// InitializeJobs initializes and starts all background jobs
func InitializeJobs(
	ctx context.Context,
	memberships *services.MembershipService,
	metricsReg *metrics.MetricsRegistry,
) *MembershipExpiryJob {
	// Membership expiry sweep runs hourly
	expiryJob := NewMembershipExpiryJob(memberships, metricsReg)

	go expiryJob.RunScheduled(ctx, 1*time.Hour)

	return expiryJob
}
