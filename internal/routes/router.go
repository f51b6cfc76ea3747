package routes

import (
	"context"
	"net/http"
	"time"

	"inkworks/redpen/internal/api"
	"inkworks/redpen/internal/db"
	"inkworks/redpen/internal/jobs"
	"inkworks/redpen/internal/logging"
	"inkworks/redpen/internal/metrics"
	"inkworks/redpen/internal/middleware"
	"inkworks/redpen/internal/workers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(upSince time.Time, redisClient *redis.Client) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// Initialize metrics registry
	metricsReg := metrics.NewMetricsRegistry()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-User-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	logging.Info("Router initialized with metrics and logging middleware")
	// health check
	r.Get("/healthCheck", api.HealthCheckHandler(db.DB, redisClient, upSince))

	// Initialize dependencies using DI pattern
	deps, err := api.InitDependencies(metricsReg, redisClient)
	if err != nil {
		panic("Failed to initialize dependencies: " + err.Error())
	}

	// Initialize handlers with dependencies
	handlers := api.NewHandlers(deps)

	// Scheduled jobs (membership expiry runs hourly)
	expiryJob := jobs.InitializeJobs(
		context.Background(),
		deps.Services.Membership,
		metricsReg,
	)

	// Polish queue consumers and monitor
	workersContainer := workers.InitWorkers(
		context.Background(),
		deps.Services.RedisQueue,
		deps.Services.BatchPolish,
	)

	// Jobs handler for manual triggering and queue inspection
	jobsHandler := api.NewJobsHandler(expiryJob, workersContainer.Monitor)

	// Register API routes
	RegisterAPIRoutes(r, handlers, jobsHandler, deps)

	return r
}
