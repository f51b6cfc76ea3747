package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/services"
)

// PolishQueueWorker consumes queued sentences from the Redis stream, runs
// them through the model and settles the owning job once its last sentence
// lands. Redeliveries are safe: already-polished sentences are skipped.
type PolishQueueWorker struct {
	workerID   string
	redisQueue *common.RedisQueueService
	polishSvc  *services.BatchPolishService
	limiter    *rate.Limiter
}

func NewPolishQueueWorker(workerID string, redisQueue *common.RedisQueueService, polishSvc *services.BatchPolishService) *PolishQueueWorker {
	return &PolishQueueWorker{
		workerID:   workerID,
		redisQueue: redisQueue,
		polishSvc:  polishSvc,
		// One model call per second across all consumers
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// Start launches numWorkers consumers plus a stale-message claimer and blocks
// until the context is cancelled.
func (w *PolishQueueWorker) Start(ctx context.Context, numWorkers int) error {
	log.Printf("[PolishQueueWorker] Starting %d workers with ID prefix: %s", numWorkers, w.workerID)

	if err := w.redisQueue.CreateConsumerGroup(ctx, constants.PolishStreamName, constants.PolishConsumerGroup); err != nil {
		log.Printf("[PolishQueueWorker] Warning - failed to create consumer group: %v", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < numWorkers; i++ {
		workerName := fmt.Sprintf("%s-worker-%d", w.workerID, i)
		g.Go(func() error {
			w.processQueue(ctx, workerName)
			return nil
		})
	}

	g.Go(func() error {
		w.claimStaleMessages(ctx)
		return nil
	})

	err := g.Wait()
	log.Printf("[PolishQueueWorker] All workers stopped")
	return err
}

// processQueue continuously consumes sentences from the polish stream
func (w *PolishQueueWorker) processQueue(ctx context.Context, workerName string) {
	log.Printf("[%s] Started processing queue: %s", workerName, constants.PolishStreamName)

	processedCount := 0
	errorCount := 0

	for {
		select {
		case <-ctx.Done():
			log.Printf("[%s] Shutting down. Processed: %d, Errors: %d", workerName, processedCount, errorCount)
			return
		default:
			item, messageID, err := w.redisQueue.DequeueSentence(ctx, constants.PolishStreamName, constants.PolishConsumerGroup, workerName, 5*time.Second)
			if err != nil {
				log.Printf("[%s] Error dequeuing: %v", workerName, err)
				time.Sleep(1 * time.Second) // Back off on error
				continue
			}

			if item == nil {
				continue
			}

			if err := w.handleItem(ctx, item); err != nil {
				// A handleItem error means the sentence state was never
				// written, so leave the message pending for the stale
				// claimer to redeliver. A model failure is not an error
				// here: it lands in the database as a failed sentence.
				log.Printf("[%s] Error processing sentence %s: %v", workerName, item.SentenceID, err)
				errorCount++
				continue
			}
			processedCount++

			if err := w.redisQueue.AckSentence(ctx, constants.PolishStreamName, constants.PolishConsumerGroup, messageID); err != nil {
				log.Printf("[%s] Error acknowledging message %s: %v", workerName, messageID, err)
			}
		}
	}
}

// handleItem polishes one sentence and settles the job if it was the last one
func (w *PolishQueueWorker) handleItem(ctx context.Context, item *common.PolishQueueItem) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := w.polishSvc.ProcessSentence(ctx, item); err != nil {
		return err
	}

	done, err := w.polishSvc.FinalizeIfDone(ctx, item.JobID)
	if err != nil {
		return fmt.Errorf("failed to settle job %s: %w", item.JobID, err)
	}
	if done {
		log.Printf("[PolishQueueWorker] Job %s completed", item.JobID)
	}
	return nil
}

// claimStaleMessages periodically claims messages that have been idle too long
func (w *PolishQueueWorker) claimStaleMessages(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Minute)
	defer ticker.Stop()

	claimerName := fmt.Sprintf("%s-claimer", w.workerID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			items, messageIDs, err := w.redisQueue.ClaimStaleSentences(ctx, constants.PolishStreamName, constants.PolishConsumerGroup, claimerName, 5*time.Minute)
			if err != nil {
				log.Printf("[PolishQueueWorker] Error claiming stale messages: %v", err)
				continue
			}

			if len(items) == 0 {
				continue
			}
			log.Printf("[PolishQueueWorker] Claimed %d stale messages", len(items))

			for i, item := range items {
				if err := w.handleItem(ctx, item); err != nil {
					// Leave it pending for the next claim round.
					log.Printf("[PolishQueueWorker] Error processing claimed sentence: %v", err)
					continue
				}
				if err := w.redisQueue.AckSentence(ctx, constants.PolishStreamName, constants.PolishConsumerGroup, messageIDs[i]); err != nil {
					log.Printf("[PolishQueueWorker] Error acknowledging claimed message: %v", err)
				}
			}
		}
	}
}
