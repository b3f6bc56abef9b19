package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/seoagent/internal/mq"
	"github.com/shaiso/seoagent/internal/repo"
	"github.com/shaiso/seoagent/internal/selector"
)

// handleDailyRun обрабатывает job.daily_run из очереди jobs.daily_run.
//
// nil — ack. Ошибка — nack без requeue (сообщение уходит в DLQ):
// пайплайн сам не повторяет запуск, и очередь тоже.
func (w *Worker) handleDailyRun(ctx context.Context, msg *mq.Message) error {
	if msg.Type != mq.MessageTypeDailyRun {
		return fmt.Errorf("%w: %s", mq.ErrUnexpectedType, msg.Type)
	}

	payload, err := mq.ParsePayload[mq.DailyRunPayload](msg)
	if err != nil {
		w.logger.Error("failed to parse job.daily_run payload", "message_id", msg.ID, "error", err)
		return err
	}

	logger := w.logger.With("message_id", msg.ID, "triggered_by", payload.TriggeredBy)
	logger.Info("received job.daily_run", "dry_run", payload.DryRun)

	ctx, cancel := context.WithTimeout(ctx, w.runTimeout)
	defer cancel()

	result, err := w.runner.RunDailyPipeline(ctx, payload.DryRun)
	if err != nil {
		// нечего публиковать: повтор ничего не изменит
		if errors.Is(err, selector.ErrNoActiveClusters) {
			logger.Warn("daily run skipped", "reason", err)
			return nil
		}
		return fmt.Errorf("run daily pipeline: %w", err)
	}

	logger.Info("daily run completed",
		"job_id", result.JobID,
		"published", result.Published,
		"publish_degraded", result.PublishDegraded,
		"error", result.Error,
	)
	return nil
}

// reapStale закрывает как FAILED jobs, зависшие в running.
// Возвращает количество закрытых jobs.
func (w *Worker) reapStale(ctx context.Context) int {
	before := w.now().Add(-w.staleAfter)

	jobs, err := w.jobs.ListStale(ctx, before)
	if err != nil {
		w.logger.Error("failed to list stale jobs", "error", err)
		return 0
	}
	if len(jobs) == 0 {
		return 0
	}

	w.logger.Debug("found stale jobs", "count", len(jobs))

	var reaped int
	for i := range jobs {
		job := &jobs[i]

		if err := job.MarkFailed(ErrStaleJob.Error(), w.now()); err != nil {
			continue
		}

		if err := w.jobs.Finalize(ctx, job); err != nil {
			// job успел завершиться сам
			if errors.Is(err, repo.ErrInvalidState) {
				continue
			}
			w.logger.Error("failed to finalize stale job", "job_id", job.ID, "error", err)
			continue
		}

		w.logger.Warn("stale job marked failed", "job_id", job.ID)
		reaped++
	}
	return reaped
}
