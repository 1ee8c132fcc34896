package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPResponseSize      *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Rate limiting metrics
	RateLimitExceededTotal *prometheus.CounterVec

	// Change events
	EventsPublishedTotal *prometheus.CounterVec

	// Trigger metrics
	TriggerEventsTotal   *prometheus.CounterVec
	TriggerDuration      *prometheus.HistogramVec
	NotificationsCreated *prometheus.CounterVec
	CascadeDeletedTotal  *prometheus.CounterVec

	// Domain activity
	ScreamsCreatedTotal prometheus.Counter
	LikesTotal          *prometheus.CounterVec
	CommentsTotal       prometheus.Counter
	SignupsTotal        *prometheus.CounterVec
	ImageUploadsTotal   *prometheus.CounterVec

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPResponseSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of rate limit violations",
				},
				[]string{"endpoint", "method"},
			),

			EventsPublishedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "change_events_published_total",
					Help: "Change events handed to the event transport",
				},
				[]string{"topic"},
			),

			TriggerEventsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "trigger_events_total",
					Help: "Change events processed by triggers",
				},
				[]string{"trigger", "status"},
			),
			TriggerDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "trigger_duration_seconds",
					Help:    "Trigger handler latency in seconds",
					Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"trigger"},
			),
			NotificationsCreated: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_created_total",
					Help: "Notifications written by triggers",
				},
				[]string{"type"},
			),
			CascadeDeletedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cascade_deleted_documents_total",
					Help: "Documents removed when their scream was deleted",
				},
				[]string{"collection"},
			),

			ScreamsCreatedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "screams_created_total",
					Help: "Screams posted",
				},
			),
			LikesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "likes_total",
					Help: "Likes and unlikes",
				},
				[]string{"action"},
			),
			CommentsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "comments_total",
					Help: "Comments posted",
				},
			),
			SignupsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "signups_total",
					Help: "Signup attempts by outcome",
				},
				[]string{"status"},
			),
			ImageUploadsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "profile_image_uploads_total",
					Help: "Profile image uploads by outcome",
				},
				[]string{"status"},
			),

			ErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by type",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}
