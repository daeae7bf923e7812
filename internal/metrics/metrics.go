// Package metrics defines Prometheus metrics for the dataset discovery service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ausdata_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ausdata_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	MatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ausdata_match_requests_total",
			Help: "Relevance match requests by the strategy that answered them",
		},
		[]string{"source"},
	)

	BackendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ausdata_backend_call_duration_seconds",
			Help:    "Language model call duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"backend"},
	)

	BackendFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ausdata_backend_failures_total",
			Help: "Language model failures by kind (call, timeout, parse)",
		},
		[]string{"backend", "kind"},
	)

	BackendMode = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ausdata_backend_mode",
			Help: "Current backend mode (0 fallback, 1 local model, 2 remote API)",
		},
	)

	DatasetCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ausdata_datasets_total",
			Help: "Datasets in the loaded catalogue",
		},
	)

	ReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ausdata_catalogue_reloads_total",
			Help: "Catalogue reload attempts by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal,
		MatchesTotal, BackendDuration, BackendFailures, BackendMode,
		DatasetCount, ReloadsTotal,
	)
}
