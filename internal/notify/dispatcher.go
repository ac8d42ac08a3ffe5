// Package notify fans out article-published notifications to every
// subscriber, off the request path, with per-recipient retry and aggregate
// accounting.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"newswire/internal/models"
)

// Dispatch policy.
const (
	sendAttempts  = 2                      // total attempts per recipient
	backoffUnit   = 500 * time.Millisecond // wait attempt*unit before a retry
	sendSpacing   = 150 * time.Millisecond // pause between recipients
	previewLength = 200                    // content preview characters
)

// Job describes one article whose subscribers should be notified.
type Job struct {
	ArticleID    string
	Title        string
	Content      string
	AuthorName   string
	CategoryName string
	ImageURL     string
	ArticleURL   string
	PublishedAt  time.Time
}

// SubscriberSource loads the recipient list at dispatch time.
type SubscriberSource interface {
	ListActive(ctx context.Context) ([]models.Subscription, error)
}

// Mailer sends one HTML email to one address. It may fail transiently.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Metrics is a point-in-time snapshot of dispatcher run state for
// operational dashboards.
type Metrics struct {
	TotalSubscribers int       `json:"total_subscribers"`
	LastSuccessCount int       `json:"last_success_count"`
	LastFailCount    int       `json:"last_fail_count"`
	LastRunAt        time.Time `json:"last_run_at"`
	Status           string    `json:"status"` // "idle", "running", "completed", "failed"
}

// Dispatcher executes notification runs. Recipients are processed
// sequentially with a fixed pause between sends; that is a deliberate
// throttle on the mail transport, not accidental serialization.
type Dispatcher struct {
	subs    SubscriberSource
	mailer  Mailer
	baseURL string
	logger  *slog.Logger

	// test seams
	backoffUnit time.Duration
	spacing     time.Duration

	mu      sync.Mutex
	metrics Metrics
}

func NewDispatcher(subs SubscriberSource, mailer Mailer, baseURL string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		subs:        subs,
		mailer:      mailer,
		baseURL:     strings.TrimRight(baseURL, "/"),
		logger:      logger,
		backoffUnit: backoffUnit,
		spacing:     sendSpacing,
		metrics:     Metrics{Status: "idle"},
	}
}

// Run executes one dispatch run for a published article. Per-recipient send
// failures are retried once, then counted and skipped; only a failure to
// load the subscriber list fails the run as a whole.
func (d *Dispatcher) Run(ctx context.Context, job Job) error {
	d.setStatus("running")

	subscribers, err := d.subs.ListActive(ctx)
	if err != nil {
		d.setStatus("failed")
		dispatchRunsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to load subscribers: %w", err)
	}

	subscriberCount.Set(float64(len(subscribers)))

	if len(subscribers) == 0 {
		d.logger.Info("no active subscribers, skipping notification run",
			slog.String("article_id", job.ArticleID))
		d.finish(0, 0, 0, "completed")
		return nil
	}

	subject := fmt.Sprintf("New article: %s", job.Title)

	successCount := 0
	failedCount := 0

	for i, sub := range subscribers {
		// Honor shutdown between recipients; partial runs still report.
		if err := ctx.Err(); err != nil {
			d.logger.Warn("notification run cancelled",
				slog.String("article_id", job.ArticleID),
				slog.Int("remaining", len(subscribers)-i))
			d.finish(len(subscribers), successCount, failedCount, "cancelled")
			return err
		}

		if !isDeliverable(sub.Email) {
			d.logger.Warn("skipping structurally invalid subscriber address",
				slog.String("subscription_id", sub.ID))
			failedCount++
			emailsFailedTotal.Inc()
		} else if d.sendWithRetry(ctx, sub.Email, subject, d.renderBody(job, sub)) {
			successCount++
			emailsSentTotal.Inc()
		} else {
			failedCount++
			emailsFailedTotal.Inc()
		}

		// Pace recipients regardless of outcome.
		if i < len(subscribers)-1 {
			if err := sleepCtx(ctx, d.spacing); err != nil {
				d.finish(len(subscribers), successCount, failedCount, "cancelled")
				return err
			}
		}
	}

	d.finish(len(subscribers), successCount, failedCount, "completed")

	d.logger.Info("notification run completed",
		slog.String("article_id", job.ArticleID),
		slog.Int("success", successCount),
		slog.Int("failed", failedCount))

	return nil
}

// Snapshot returns the current run metrics.
func (d *Dispatcher) Snapshot() Metrics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.metrics
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, to, subject, body string) bool {
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		err := d.mailer.Send(ctx, to, subject, body)
		if err == nil {
			return true
		}

		d.logger.Warn("notification send failed",
			slog.Int("attempt", attempt),
			slog.Any("error", err))

		if attempt < sendAttempts {
			if sleepCtx(ctx, time.Duration(attempt)*d.backoffUnit) != nil {
				return false
			}
		}
	}
	return false
}

func (d *Dispatcher) setStatus(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics.Status = status
	if status == "running" {
		d.metrics.LastSuccessCount = 0
		d.metrics.LastFailCount = 0
	}
}

func (d *Dispatcher) finish(total, success, failed int, outcome string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics.TotalSubscribers = total
	d.metrics.LastSuccessCount = success
	d.metrics.LastFailCount = failed
	d.metrics.LastRunAt = time.Now()
	d.metrics.Status = outcome
	dispatchRunsTotal.WithLabelValues(outcome).Inc()
}

// isDeliverable is a structural check only: the address must parse and the
// domain must contain a dot. Deliverability beyond that is the transport's
// problem.
func isDeliverable(address string) bool {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return false
	}
	at := strings.LastIndex(parsed.Address, "@")
	if at <= 0 {
		return false
	}
	domain := parsed.Address[at+1:]
	return strings.Contains(domain, ".")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
