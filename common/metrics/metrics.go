// Package metrics defines the Prometheus collectors shared by the Lendline services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Publish statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	// Publisher metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendline_events_published_total",
			Help: "Total number of events handed to the broker, by delivery outcome",
		},
		[]string{"channel", "status"},
	)

	// Consumer metrics
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendline_events_consumed_total",
			Help: "Total number of consumed messages, by processing outcome",
		},
		[]string{"channel", "outcome"},
	)

	ConsumeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lendline_event_handle_duration_seconds",
			Help:    "Duration of consumed message handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	DeadLettered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendline_dead_letters_total",
			Help: "Total number of messages written to the dead-letter sink",
		},
		[]string{"class"},
	)

	// Scoring metrics
	ScoresComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendline_scores_computed_total",
			Help: "Total number of persisted loan scores",
		},
		[]string{"grade", "risk"},
	)

	ScoreCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendline_score_cache_lookups_total",
			Help: "Score cache lookups by result",
		},
		[]string{"result"},
	)

	// Officer workflow metrics
	StatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendline_status_changes_total",
			Help: "Total number of status changes issued by officers",
		},
		[]string{"entity", "status"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendline_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
