package api

import (
	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/db"
	"inkworks/redpen/internal/db/repositories"
	"inkworks/redpen/internal/logging"
	"inkworks/redpen/internal/metrics"
	"inkworks/redpen/internal/providers"
	"inkworks/redpen/internal/services"

	"github.com/redis/go-redis/v9"
)

type Repositories struct {
	User       *repositories.UserRepository
	Points     *repositories.PointsRepository
	DailyClaim *repositories.DailyRewardRepository
	Membership *repositories.MembershipRepository
	Redemption *repositories.RedemptionRepository
	ToolConfig *repositories.ToolConfigRepository
	Batch      *repositories.BatchRepository
}

type Services struct {
	Cache       common.CacheInterface
	RedisQueue  *common.RedisQueueService
	Points      *services.PointsService
	DailyReward *services.DailyRewardService
	Membership  *services.MembershipService
	Redemption  *services.RedemptionService
	Tools       *services.ToolService
	User        *services.UserService
	BatchPolish *services.BatchPolishService
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services
}

// InitDependencies wires repositories, providers and services together.
// The Redis client is shared by the cache and the polish queue; when Redis
// is unreachable the cache degrades to in-memory and the queue stays nil
// aware (callers must check).
func InitDependencies(metricsReg *metrics.MetricsRegistry, redisClient *redis.Client) (*Dependencies, error) {

	repos := &Repositories{
		User:       repositories.NewUserRepository(db.DB),
		Points:     repositories.NewPointsRepository(db.DB),
		DailyClaim: repositories.NewDailyRewardRepository(db.PgDB),
		Membership: repositories.NewMembershipRepository(db.PgDB),
		Redemption: repositories.NewRedemptionRepository(db.PgDB),
		ToolConfig: repositories.NewToolConfigRepository(db.PgDB),
		Batch:      repositories.NewBatchRepository(db.PgDB),
	}

	var cache common.CacheInterface
	if redisCache, err := common.NewRedisCacheService(redisClient); err == nil {
		cache = redisCache
		logging.Info("Using Redis cache")
	} else {
		cache = common.NewCacheService(60, 600)
		logging.Warn("Redis unavailable, falling back to in-memory cache", "error", err.Error())
	}

	queueSvc := common.NewRedisQueueService(redisClient)
	llm := providers.NewLLMProvider()
	ocr := providers.NewOCRProvider()

	pointsSvc := services.NewPointsService(repos.Points, cache, metricsReg)
	membershipSvc := services.NewMembershipService(repos.Membership, pointsSvc, cache)
	rewardSvc := services.NewDailyRewardService(repos.DailyClaim, repos.Membership, pointsSvc)
	redemptionSvc := services.NewRedemptionService(repos.Redemption, membershipSvc, pointsSvc)
	toolSvc := services.NewToolService(repos.ToolConfig, membershipSvc, pointsSvc, llm, cache, metricsReg)
	userSvc := services.NewUserService(repos.User, pointsSvc, membershipSvc)
	polishSvc := services.NewBatchPolishService(repos.Batch, pointsSvc, ocr, llm, queueSvc, metricsReg)

	svcs := &Services{
		Cache:       cache,
		RedisQueue:  queueSvc,
		Points:      pointsSvc,
		DailyReward: rewardSvc,
		Membership:  membershipSvc,
		Redemption:  redemptionSvc,
		Tools:       toolSvc,
		User:        userSvc,
		BatchPolish: polishSvc,
	}

	return &Dependencies{
		Repo:     repos,
		Services: svcs,
	}, nil
}
