// Package worker runs queued background jobs with retry and dead-lettering.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sena-asistencia/backend/pkg/queue"
)

// JobQueue is the subset of queue.Queue the runner needs.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) (deadLettered bool, err error)
}

// Processor handles one job type.
type Processor interface {
	Process(ctx context.Context, job *queue.Job) error
	// Abandon is called once a job has been moved to the dead-letter queue.
	Abandon(ctx context.Context, job *queue.Job, cause error)
}

// Runner pulls jobs off the queue and hands them to a processor.
type Runner struct {
	queue   JobQueue
	proc    Processor
	backoff time.Duration
	logger  *zap.Logger
}

// NewRunner creates a job runner.
func NewRunner(q JobQueue, proc Processor, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{queue: q, proc: proc, backoff: queue.RetryBackoff, logger: logger}
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (r *Runner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("export worker stopping")
			return
		default:
		}

		job, err := r.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			r.logger.Warn("dequeue error", zap.Error(err))
			r.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		r.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := r.proc.Process(ctx, job); err != nil {
			r.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			dead, reErr := r.queue.Retry(ctx, job)
			if reErr != nil {
				r.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			if dead {
				r.proc.Abandon(ctx, job, err)
			}
			r.sleep(ctx)
		}
	}
}

func (r *Runner) sleep(ctx context.Context) {
	t := time.NewTimer(r.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
