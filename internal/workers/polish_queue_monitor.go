package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/constants"
)

// PolishQueueMonitor watches the polish stream depth and pending counts
type PolishQueueMonitor struct {
	redisQueue *common.RedisQueueService
}

func NewPolishQueueMonitor(redisQueue *common.RedisQueueService) *PolishQueueMonitor {
	return &PolishQueueMonitor{redisQueue: redisQueue}
}

// QueueStats represents a snapshot of the polish queue
type QueueStats struct {
	StreamName   string    `json:"stream_name"`
	QueueLength  int64     `json:"queue_length"`
	PendingCount int64     `json:"pending_count"`
	LastChecked  time.Time `json:"last_checked"`
}

// Start begins monitoring the polish queue
func (m *PolishQueueMonitor) Start(ctx context.Context, interval time.Duration) {
	log.Printf("[PolishQueueMonitor] Starting queue monitoring (interval: %s)", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	m.checkQueue(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[PolishQueueMonitor] Shutting down")
			return
		case <-ticker.C:
			m.checkQueue(ctx)
		}
	}
}

// checkQueue checks the polish queue and logs its status
func (m *PolishQueueMonitor) checkQueue(ctx context.Context) {
	stats, err := m.GetQueueStats(ctx)
	if err != nil {
		log.Printf("[PolishQueueMonitor] Error getting stats: %v", err)
		return
	}

	status := "OK"
	if stats.PendingCount > 1000 {
		status = "HIGH PENDING"
	} else if stats.QueueLength > 5000 {
		status = "HIGH QUEUE"
	}

	log.Printf("[PolishQueueMonitor] Queue: %d | Pending: %d | Status: %s",
		stats.QueueLength, stats.PendingCount, status)

	if status != "OK" {
		log.Printf("[PolishQueueMonitor] WARNING: polish queue needs attention")
	}
}

// GetQueueStats retrieves statistics for the polish queue (for API endpoints)
func (m *PolishQueueMonitor) GetQueueStats(ctx context.Context) (*QueueStats, error) {
	queueLength, err := m.redisQueue.GetQueueLength(ctx, constants.PolishStreamName)
	if err != nil {
		return nil, fmt.Errorf("failed to get queue length: %w", err)
	}

	pendingCount, err := m.redisQueue.GetPendingCount(ctx, constants.PolishStreamName, constants.PolishConsumerGroup)
	if err != nil {
		// Consumer group may not exist yet
		pendingCount = 0
	}

	return &QueueStats{
		StreamName:   constants.PolishStreamName,
		QueueLength:  queueLength,
		PendingCount: pendingCount,
		LastChecked:  time.Now(),
	}, nil
}

// StartAutoTrim trims processed messages periodically to cap stream memory
func (m *PolishQueueMonitor) StartAutoTrim(ctx context.Context, interval time.Duration, maxLen int64) {
	log.Printf("[PolishQueueMonitor] Starting auto-trim (interval: %s, max length: %d)", interval, maxLen)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[PolishQueueMonitor] Auto-trim shutting down")
			return
		case <-ticker.C:
			if err := m.redisQueue.TrimStream(ctx, constants.PolishStreamName, maxLen); err != nil {
				log.Printf("[PolishQueueMonitor] Auto-trim error: %v", err)
			}
		}
	}
}
