// Package metrics exposes Prometheus instrumentation for the application:
// dictionary and user totals, learning activity counters, training answer
// outcomes, notification delivery and HTTP request durations.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// namespace prefixes every metric name.
const namespace = "enbot"

var (
	// UsersTotal tracks the number of registered users.
	UsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "users_total",
			Help:      "Total number of registered users",
		},
	)

	// WordsTotal tracks the size of the shared dictionary.
	WordsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "words_total",
			Help:      "Total number of dictionary words",
		},
	)

	// WordsAdded counts words added to user dictionaries.
	WordsAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "words_added_total",
			Help:      "Total number of words added to user dictionaries",
		},
	)

	// WordsLearned counts learn events, including repeat reviews.
	WordsLearned = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "words_learned_total",
			Help:      "Total number of words learned in cycles",
		},
	)

	// Enrichments counts word content generation attempts.
	// Labels: result (success, error)
	Enrichments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "word_enrichments_total",
			Help:      "Total number of word content generation attempts",
		},
		[]string{"result"},
	)

	// CyclesStarted counts created learning cycles.
	CyclesStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_started_total",
			Help:      "Total number of learning cycles started",
		},
	)

	// CyclesCompleted counts completed learning cycles.
	CyclesCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_completed_total",
			Help:      "Total number of learning cycles completed",
		},
	)

	// TrainingAnswers counts training answers by method and outcome.
	// Labels: method (remember, spelling, ...), result (success, failure)
	TrainingAnswers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_answers_total",
			Help:      "Total number of training answers by method and result",
		},
		[]string{"method", "result"},
	)

	// ActiveSessions tracks training sessions currently held in memory.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_sessions_active",
			Help:      "Number of training sessions currently in memory",
		},
	)

	// NotificationsSent counts produced notifications by kind.
	// Labels: kind (daily_reminder, review_reminder, achievement, streak)
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications produced",
		},
		[]string{"kind"},
	)

	// Errors counts internal errors by component.
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of internal errors by component",
		},
		[]string{"component"},
	)

	// RequestDuration observes HTTP request durations.
	// Labels: method, route (chi route pattern), status
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by method, route and status",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Handler returns the HTTP handler serving the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWordsAdded records n words added to a dictionary.
func RecordWordsAdded(n int) {
	if n > 0 {
		WordsAdded.Add(float64(n))
	}
}

// RecordWordLearned records one learn event.
func RecordWordLearned() {
	WordsLearned.Inc()
}

// RecordEnrichment records the outcome of a word content generation attempt.
func RecordEnrichment(success bool) {
	if success {
		Enrichments.WithLabelValues("success").Inc()
	} else {
		Enrichments.WithLabelValues("error").Inc()
	}
}

// RecordCycleStarted records one created cycle.
func RecordCycleStarted() {
	CyclesStarted.Inc()
}

// RecordCycleCompleted records one completed cycle.
func RecordCycleCompleted() {
	CyclesCompleted.Inc()
}

// RecordTrainingAnswer records a training answer for a method.
func RecordTrainingAnswer(method string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	TrainingAnswers.WithLabelValues(method, result).Inc()
}

// RecordNotification records one produced notification.
func RecordNotification(kind string) {
	NotificationsSent.WithLabelValues(kind).Inc()
}

// RecordError records one internal error for a component.
func RecordError(component string) {
	Errors.WithLabelValues(component).Inc()
}

// ObserveRequest records the duration of one HTTP request.
func ObserveRequest(method, route string, status int, seconds float64) {
	RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}
