// Package metrics provides Prometheus metrics for client operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricAPIRequestsTotal    = "tastemap_api_requests_total"
	MetricAPIRequestDuration  = "tastemap_api_request_duration_seconds"
	MetricListFetchesTotal    = "tastemap_list_fetches_total"
	MetricPictureUploadsTotal = "tastemap_picture_uploads_total"
)

// Metrics contains Prometheus metrics for client operations.
// All operations are thread-safe.
type Metrics struct {
	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	listFetchesTotal   *prometheus.CounterVec
	pictureUploads     *prometheus.CounterVec
}

// New creates a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func New() *Metrics {
	return &Metrics{
		apiRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricAPIRequestsTotal,
				Help: "Total number of API requests by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		apiRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricAPIRequestDuration,
				Help:    "API request duration in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"method"},
		),
		listFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricListFetchesTotal,
				Help: "Total number of recipe list fetches by bucket and page kind",
			},
			[]string{"bucket", "page"},
		),
		pictureUploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPictureUploadsTotal,
				Help: "Total number of picture upload attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.apiRequestsTotal,
		m.apiRequestDuration,
		m.listFetchesTotal,
		m.pictureUploads,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveAPIRequest records one API request outcome and its duration.
// outcome is "ok" or "error".
func (m *Metrics) ObserveAPIRequest(method, outcome string, seconds float64) {
	m.apiRequestsTotal.WithLabelValues(method, outcome).Inc()
	m.apiRequestDuration.WithLabelValues(method).Observe(seconds)
}

// IncListFetch increments the list fetch counter.
// bucket: which bucket was fetched (e.g., "main", "near", "mine", "liked", "author")
// page: "first" or "next"
func (m *Metrics) IncListFetch(bucket, page string) {
	m.listFetchesTotal.WithLabelValues(bucket, page).Inc()
}

// IncPictureUpload increments the picture upload counter.
// outcome is "success", "rejected", or "error".
func (m *Metrics) IncPictureUpload(outcome string) {
	m.pictureUploads.WithLabelValues(outcome).Inc()
}
