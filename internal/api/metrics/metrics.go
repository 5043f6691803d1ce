// Package metrics defines and registers all custom Prometheus metrics of the
// marketplace API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation; RegisterReplyQueue must be called once at startup.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Form metrics ──────────────────────────────────────────────────────────────

// FormSubmissionsTotal counts form submissions.
// Labels:
//   - form: the schema name (e.g. "login", "provider_registration")
//   - outcome: "success", "invalid", "rejected", "conflict" or "failed"
var FormSubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "form_submissions_total",
		Help:      "Total number of form submissions, by form and outcome.",
	},
	[]string{"form", "outcome"},
)

// ValidationFailuresTotal counts failing fields of rejected forms.
var ValidationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_failures_total",
		Help:      "Total number of field validation failures, by form and field.",
	},
	[]string{"form", "field"},
)

// FormSubmissionDuration measures a submission from validation to outcome.
var FormSubmissionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "form_submission_duration_seconds",
		Help:      "Duration of form submissions, including the collaborator call.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"form"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionEventsTotal counts session lifecycle events.
// Label:
//   - event: "login", "login_failed" or "logout"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session lifecycle events.",
	},
	[]string{"event"},
)

// ── Search metrics ────────────────────────────────────────────────────────────

// SearchQueriesTotal counts catalog searches.
// Label:
//   - result: "all" (blank query), "hit" or "empty"
var SearchQueriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_queries_total",
		Help:      "Total number of provider searches, by result.",
	},
	[]string{"result"},
)

// ── Chat metrics ──────────────────────────────────────────────────────────────

// ChatMessagesTotal counts chat messages sent by clients and replies
// delivered by providers.
var ChatMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_messages_total",
		Help:      "Total number of chat messages, by sender.",
	},
	[]string{"sender"},
)

// RegisterReplyQueue exposes the reply dispatcher backlog as a gauge.
func RegisterReplyQueue(pending func() int) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chat_reply_queue_depth",
			Help:      "Current number of provider replies queued or waiting to be delivered.",
		},
		func() float64 { return float64(pending()) },
	)
}

// ObserveForm records a finished submission of form.
func ObserveForm(form, outcome string, started time.Time) {
	FormSubmissionsTotal.WithLabelValues(form, outcome).Inc()
	FormSubmissionDuration.WithLabelValues(form).Observe(time.Since(started).Seconds())
}

// ObserveChatMessage counts one chat message of sender.
func ObserveChatMessage(sender string) {
	ChatMessagesTotal.WithLabelValues(sender).Inc()
}
