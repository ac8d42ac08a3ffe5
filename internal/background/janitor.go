package background

import (
	"context"
	"log/slog"
	"time"

	"newswire/internal/models"
)

// SessionPurger is the slice of the session repository the janitor needs.
type SessionPurger interface {
	DeleteDead(ctx context.Context, idleAge time.Duration) (int64, error)
}

// SessionJanitor periodically deletes session rows that are past their hard
// expiry or have been inactive long enough to be useless for the device list.
// A failed sweep is logged and retried on the next tick; it never stops the
// loop.
type SessionJanitor struct {
	sessions SessionPurger
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

func NewSessionJanitor(sessions SessionPurger, logger *slog.Logger, interval time.Duration) *SessionJanitor {
	return &SessionJanitor{
		sessions: sessions,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled or Stop is
// called. Blocks; run it in its own goroutine.
func (j *SessionJanitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on startup
	j.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			j.sweep(ctx)
		case <-j.stopCh:
			j.logger.Info("session janitor stopped")
			return
		case <-ctx.Done():
			j.logger.Info("session janitor context cancelled")
			return
		}
	}
}

func (j *SessionJanitor) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	deleted, err := j.sessions.DeleteDead(sweepCtx, models.SessionIdlePurgeAge)
	if err != nil {
		j.logger.Error("session sweep failed", slog.Any("error", err))
		return
	}

	if deleted > 0 {
		j.logger.Info("session sweep completed", slog.Int64("rows_deleted", deleted))
	}
}

// Stop signals the janitor to exit.
func (j *SessionJanitor) Stop() {
	close(j.stopCh)
}
