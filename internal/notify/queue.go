package notify

import (
	"context"
	"errors"
	"log/slog"
)

// ErrQueueFull is returned when a dispatch job cannot be accepted.
var ErrQueueFull = errors.New("notification queue is full")

// Queue decouples article approval from notification delivery: approval
// handlers enqueue and return immediately, a single supervised worker drains
// the queue with its own repository and mailer handles. The worker logs any
// failed run, so a lost notification batch is always observable.
type Queue struct {
	jobs       chan Job
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewQueue(dispatcher *Dispatcher, size int, logger *slog.Logger) *Queue {
	return &Queue{
		jobs:       make(chan Job, size),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Enqueue submits a job without blocking. A full queue is surfaced to the
// caller rather than silently dropping the batch.
func (q *Queue) Enqueue(job Job) error {
	select {
	case q.jobs <- job:
		queueDepth.Set(float64(len(q.jobs)))
		return nil
	default:
		q.logger.Error("notification queue full, dropping job",
			slog.String("article_id", job.ArticleID))
		return ErrQueueFull
	}
}

// Start runs the worker loop until the context is cancelled. Blocks; run it
// in its own goroutine.
func (q *Queue) Start(ctx context.Context) {
	q.logger.Info("notification worker started")

	for {
		select {
		case job := <-q.jobs:
			queueDepth.Set(float64(len(q.jobs)))
			if err := q.dispatcher.Run(ctx, job); err != nil {
				// Top-level failure of a whole run (subscriber load or
				// cancellation). Must not pass silently.
				q.logger.Error("notification run failed",
					slog.String("article_id", job.ArticleID),
					slog.Any("error", err))
			}
		case <-ctx.Done():
			q.logger.Info("notification worker stopped",
				slog.Int("jobs_abandoned", len(q.jobs)))
			return
		}
	}
}

// Metrics exposes the dispatcher's run snapshot for the operations endpoint.
func (q *Queue) Metrics() Metrics {
	return q.dispatcher.Snapshot()
}
