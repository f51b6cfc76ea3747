package routes

import (
	"inkworks/redpen/internal/api"
	"inkworks/redpen/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
// This keeps API route registration separate from the main router setup
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers, jobsHandler *api.JobsHandler, deps *api.Dependencies) {

	// API v1 routes
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.AuthMiddleware(deps.Repo.User)) // global: all routes must be authenticated

		v1.Get("/user/details", handlers.GetUserDetails())

		// Points
		v1.Get("/points/balance", handlers.GetBalance())
		v1.Get("/points/transactions", handlers.ListTransactions())

		// Daily login reward
		v1.Get("/rewards/daily", handlers.DailyRewardStatus())
		v1.Post("/rewards/daily/claim", handlers.ClaimDailyReward())

		// Code redemption
		v1.Post("/codes/redeem", handlers.RedeemCode())

		// Membership
		v1.Get("/membership", handlers.GetMembership())
		v1.Post("/membership/activate", handlers.ActivateMembership())

		// AI tool catalog and invocation
		v1.Get("/tools", handlers.ListTools())
		v1.Post("/tools/use", handlers.UseTool())

		// Teacher-only group: batch assignment polishing
		v1.Group(func(teacher chi.Router) {
			teacher.Use(middleware.IsTeacherMiddleware())

			teacher.Post("/batches", handlers.CreateBatch())
			teacher.Get("/batches/{job_id}", handlers.GetBatch())
			teacher.Post("/batches/{job_id}/ocr", handlers.SubmitOCR())
			teacher.Post("/batches/{job_id}/ocr/confirm", handlers.ConfirmOCR())
			teacher.Post("/batches/{job_id}/students/{student_id}/sentences", handlers.ExtractSentences())
			teacher.Post("/batches/{job_id}/match", handlers.MatchNames())
			teacher.Post("/batches/{job_id}/match/override", handlers.OverrideMatch())
			teacher.Post("/batches/{job_id}/polish", handlers.StartPolish())
			teacher.Post("/batches/{job_id}/retry", handlers.RetryFailed())
			teacher.Get("/batches/{job_id}/results", handlers.BatchResults())

			// Admin-only group (admin implies teacher access)
			teacher.Group(func(admin chi.Router) {
				admin.Use(middleware.IsAdminMiddleware())

				admin.Post("/admin/codes/generate", handlers.GenerateCodes())
				admin.Post("/admin/tools", handlers.UpsertTool())

				// Background jobs management
				admin.Post("/admin/jobs/expire-memberships", jobsHandler.TriggerMembershipExpiry())
				admin.Get("/admin/jobs/queue-stats", jobsHandler.GetQueueStats())
			})
		})
	})
}
