package workers

import (
	"context"
	"time"

	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/services"
)

type WorkersContainer struct {
	PolishWorker *PolishQueueWorker
	Monitor      *PolishQueueMonitor
}

func InitWorkers(
	ctx context.Context,
	redQ *common.RedisQueueService,
	polishSvc *services.BatchPolishService,
) *WorkersContainer {
	qWorker := NewPolishQueueWorker("polish_queue", redQ, polishSvc)
	monitor := NewPolishQueueMonitor(redQ)

	go qWorker.Start(ctx, 3)
	go monitor.Start(ctx, 30*time.Second)
	go monitor.StartAutoTrim(ctx, 1*time.Hour, 10000)

	return &WorkersContainer{
		PolishWorker: qWorker,
		Monitor:      monitor,
	}
}
