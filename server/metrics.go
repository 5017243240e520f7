package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dashboard's prometheus collectors. Each Server owns its
// registry so several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestCount    *prometheus.CounterVec
	activeRequests  prometheus.Gauge

	predictions        *prometheus.CounterVec
	predictionDuration prometheus.Histogram

	modelR2       prometheus.Gauge
	modelRank     prometheus.Gauge
	modelFeatures prometheus.Gauge
}

// NewMetrics registers the collectors on a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autoprice_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		requestCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autoprice_http_request_count_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		activeRequests: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "autoprice_http_request_active",
				Help: "Number of active HTTP requests",
			},
		),
		predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autoprice_predictions_total",
				Help: "Total number of price predictions by outcome",
			},
			[]string{"status"},
		),
		predictionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "autoprice_prediction_duration_seconds",
				Help:    "Duration of price predictions, including the configured delay",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 1.5, 2, 5},
			},
		),
		modelR2: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "autoprice_model_test_r2",
				Help: "Held-out R² of the served model",
			},
		),
		modelRank: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "autoprice_model_rank",
				Help: "Effective rank of the design matrix of the served model",
			},
		),
		modelFeatures: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "autoprice_model_features",
				Help: "Number of input features of the served model",
			},
		),
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and duration per route template.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		m.activeRequests.Inc()
		defer m.activeRequests.Dec()

		next.ServeHTTP(rw, r)

		labels := prometheus.Labels{
			"method": r.Method,
			"path":   routeTemplate(r),
			"status": strconv.Itoa(rw.status),
		}
		m.requestDuration.With(labels).Observe(time.Since(start).Seconds())
		m.requestCount.With(labels).Inc()
	})
}

// RecordPrediction counts one prediction; status is "ok" or an error kind.
func (m *Metrics) RecordPrediction(status string, d time.Duration) {
	m.predictions.WithLabelValues(status).Inc()
	m.predictionDuration.Observe(d.Seconds())
}

// routeTemplate keeps label cardinality bounded by using the matched route.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
