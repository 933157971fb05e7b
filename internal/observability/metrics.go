package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	registrationOutcomes  *prometheus.CounterVec
	submissionOutcomes    *prometheus.CounterVec
	dashboardCacheLookups *prometheus.CounterVec
	uploadLatencySeconds  prometheus.Histogram
	uploadRejected        *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campus_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		registrationOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_event_registration_outcomes_total",
			Help: "Event registration attempts by outcome.",
		}, []string{"outcome"})

		submissionOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_survey_submission_outcomes_total",
			Help: "Survey submission attempts by outcome.",
		}, []string{"outcome"})

		dashboardCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_cache_lookups_total",
			Help: "Read-through cache lookups by cache and result.",
		}, []string{"cache", "result"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "campus_upload_latency_seconds",
			Help:    "Time spent validating and storing uploads.",
			Buckets: prometheus.DefBuckets,
		})

		uploadRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_upload_rejected_total",
			Help: "Uploads rejected by reason.",
		}, []string{"reason"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			registrationOutcomes,
			submissionOutcomes,
			dashboardCacheLookups,
			uploadLatencySeconds,
			uploadRejected,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// RegistrationOutcomes counts admission decisions (confirmed, event_full, ...).
func RegistrationOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return registrationOutcomes
}

// SubmissionOutcomes counts survey submission decisions.
func SubmissionOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionOutcomes
}

// CacheLookups counts hits and misses of the redis read-through caches.
func CacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardCacheLookups
}

// UploadLatency exposes the upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// UploadRejected counts uploads refused for size, type or storage failures.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejected
}
