package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the process-wide metrics container.
type Metrics struct {
	// HTTP intake metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Solve metrics.
	SolveRequestsTotal    *prometheus.CounterVec
	SolveDuration         *prometheus.HistogramVec
	SolveRouteDistance    prometheus.Histogram
	SolveVehiclesUsed     prometheus.Histogram
	SolveUnservedLocs     prometheus.Histogram
	SolveRequestsInFlight prometheus.Gauge

	// Webhook delivery metrics.
	WebhookDeliveryTotal *prometheus.CounterVec

	// System metrics.
	MemoryUsage *prometheus.GaugeVec
	Goroutines  prometheus.Gauge

	// Service info.
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics creates and registers the metric set under the given
// namespace/subsystem.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests handled by the intake API",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests handled by the intake API",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		SolveRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_requests_total",
				Help:      "Total number of solves completed, by outcome",
			},
			[]string{"status"},
		),

		SolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "Wall-clock duration of a solve, from model build through webhook delivery when a webhook_url is set",
				Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 15, 30, 45, 60},
			},
			[]string{"status"},
		),

		SolveRouteDistance: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_route_distance_total",
				Help:      "Total distance (metres) of a successful solve's routes",
				Buckets:   []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
			},
		),

		SolveVehiclesUsed: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_vehicles_used",
				Help:      "Number of vehicles with a non-empty route in a successful solve",
				Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
			},
		),

		SolveUnservedLocs: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_unserved_locations",
				Help:      "Number of locations left unserved in a successful solve",
				Buckets:   []float64{0, 1, 2, 5, 10, 20},
			},
		),

		SolveRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_requests_in_flight",
				Help:      "Current number of accepted solves not yet completed, including those waiting for a worker pool slot",
			},
		),

		WebhookDeliveryTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_delivery_total",
				Help:      "Total number of webhook delivery attempts, by outcome",
			},
			[]string{"outcome"},
		),

		MemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "memory_usage_bytes",
				Help:      "Current memory usage",
			},
			[]string{"type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the process-wide metrics, initializing them with defaults on
// first use.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("vrproute", "")
	}
	return defaultMetrics
}

// RecordHTTPRequest records an intake HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSolve records the outcome of a completed solve.
func (m *Metrics) RecordSolve(status string, duration time.Duration) {
	m.SolveRequestsTotal.WithLabelValues(status).Inc()
	m.SolveDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordSolveShape records the size characteristics of a successful solve's
// result.
func (m *Metrics) RecordSolveShape(totalDistance, vehiclesUsed, unserved int) {
	m.SolveRouteDistance.Observe(float64(totalDistance))
	m.SolveVehiclesUsed.Observe(float64(vehiclesUsed))
	m.SolveUnservedLocs.Observe(float64(unserved))
}

// RecordWebhookDelivery records a webhook delivery attempt.
func (m *Metrics) RecordWebhookDelivery(outcome string) {
	m.WebhookDeliveryTotal.WithLabelValues(outcome).Inc()
}

// SetServiceInfo sets the static service info gauge.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler serving /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer starts a dedicated HTTP server exposing /metrics.
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, write failure is not actionable
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
