package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// IssuesSubmittedTotal counts stored submissions, split by whether a token was presented.
	IssuesSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skysafe",
		Name:      "issues_submitted_total",
		Help:      "Total number of issues stored, labeled by anonymous (true/false).",
	}, []string{"anonymous"})

	// IssueTransitionsTotal counts admin lifecycle actions by outcome.
	IssueTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skysafe",
		Name:      "issue_transitions_total",
		Help:      "Total number of issue lifecycle transitions, labeled by transition and result.",
	}, []string{"transition", "result"})

	IssueResolveDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "skysafe",
		Name:      "issue_resolve_duration_seconds",
		Help:      "Time spent in the resolve transaction.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	// AttachmentCleanupTotal counts file removals that follow a record delete.
	AttachmentCleanupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skysafe",
		Name:      "attachment_cleanup_total",
		Help:      "Total number of attachment removals, labeled by result.",
	}, []string{"result"})

	EventPublishErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "skysafe",
		Name:      "event_publish_errors_total",
		Help:      "Total number of issue events that could not be published.",
	})
)

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			IssuesSubmittedTotal,
			IssueTransitionsTotal,
			IssueResolveDurationSeconds,
			AttachmentCleanupTotal,
			EventPublishErrorsTotal,
		)
	})
}

// Result maps an error to the result label used above.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
