package api

import (
	"net/http"
	"time"

	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/jobs"
	"inkworks/redpen/internal/workers"
)

// JobsHandler handles manual job triggering and queue inspection endpoints
type JobsHandler struct {
	expiryJob *jobs.MembershipExpiryJob
	monitor   *workers.PolishQueueMonitor
}

func NewJobsHandler(expiryJob *jobs.MembershipExpiryJob, monitor *workers.PolishQueueMonitor) *JobsHandler {
	return &JobsHandler{
		expiryJob: expiryJob,
		monitor:   monitor,
	}
}

// TriggerMembershipExpiry manually runs the membership expiry sweep
// @Summary Trigger membership expiry sweep
// @Tags admin,jobs
// @Produce json
// @Success 200 {object} dtos.APIResponse
// @Router /api/v1/admin/jobs/expire-memberships [post]
func (h *JobsHandler) TriggerMembershipExpiry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if err := h.expiryJob.Run(r.Context()); err != nil {
			common.RespondError(w, initTime, err, "Expiry sweep failed", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Expiry sweep completed", nil)
	}
}

// GetQueueStats returns the polish queue depth and pending counts
// @Summary Polish queue statistics
// @Tags admin,jobs
// @Produce json
// @Success 200 {object} dtos.APIResponse
// @Router /api/v1/admin/jobs/queue-stats [get]
func (h *JobsHandler) GetQueueStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		stats, err := h.monitor.GetQueueStats(r.Context())
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch queue stats", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Queue stats fetched", stats)
	}
}
