package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const summaryTaskTimeout = 5 * time.Minute

// newSummaryTask creates the scheduled task that runs one summarization
// cycle and delivers the resulting digest. A failed cycle leaves the backlog
// unprocessed, so the next scheduled run covers the same messages again.
func newSummaryTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "summary")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled summary task...")
		startTime := time.Now()

		timeoutCtx, cancel := context.WithTimeout(ctx, summaryTaskTimeout)
		defer cancel()

		result, err := deps.Pipeline.Run(timeoutCtx)
		duration := time.Since(startTime)

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				log.WarnContext(ctx, "Summary task timed out or was cancelled",
					"error", err, "duration", duration)
				return fmt.Errorf("summary task timed out or was cancelled: %w", err)
			}
			log.ErrorContext(ctx, "Summary task failed",
				"error", err, "backlog", result.BacklogSize, "duration", duration)
			return fmt.Errorf("summary task failed: %w", err)
		}

		if result.Processed == 0 {
			log.InfoContext(ctx, "Summary task completed with empty backlog", "duration", duration)
			return nil
		}

		// The batch is already committed; a delivery failure means the digest
		// for this batch is lost, not re-generated.
		if deps.Deliverer != nil && result.Summary != "" {
			if err := deps.Deliverer.SendDigest(timeoutCtx, result.Summary); err != nil {
				log.ErrorContext(ctx, "Failed to deliver digest",
					"error", err, "processed", result.Processed)
				return fmt.Errorf("digest delivery failed: %w", err)
			}
		}

		log.InfoContext(ctx, "Summary task completed successfully",
			"processed", result.Processed, "duration", duration)
		return nil
	}
}
