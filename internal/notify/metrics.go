package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	emailsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newswire_notify_emails_sent_total",
			Help: "Total number of notification emails delivered",
		},
	)

	emailsFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newswire_notify_emails_failed_total",
			Help: "Total number of notification emails that could not be delivered",
		},
	)

	dispatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newswire_notify_runs_total",
			Help: "Total number of notification dispatch runs",
		},
		[]string{"outcome"},
	)

	subscriberCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newswire_notify_subscribers",
			Help: "Subscriber count observed by the most recent dispatch run",
		},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newswire_notify_queue_depth",
			Help: "Jobs currently waiting in the notification queue",
		},
	)
)
