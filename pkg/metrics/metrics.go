package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	registry           *prometheus.Registry
	registryOnce       sync.Once
	defaultMetricsPath = "/metrics"
	metricsEnabled     = true
)

// Collectors are created eagerly so components can record before Init runs
// (nothing is exported until Init registers them).
var (
	// Push-channel metrics
	WSFramesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_ws_frames_received_total",
			Help: "Total number of push-channel frames received",
		},
		[]string{"type"},
	)
	WSFramesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supervisor_ws_frames_dropped_total",
			Help: "Total number of push-channel frames dropped as undecodable",
		},
	)
	WSConnectionStatus = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "supervisor_ws_connection_status",
			Help: "Push-channel connection status (1 = connected, 0 = not connected)",
		},
	)
	WSReconnectAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supervisor_ws_reconnect_attempts_total",
			Help: "Total number of push-channel reconnect attempts",
		},
	)

	// Poll reconciler metrics
	PollCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supervisor_poll_cycles_total",
			Help: "Total number of poll reconciliation cycles",
		},
	)
	PollFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_poll_failures_total",
			Help: "Total number of failed poll fetches by section",
		},
		[]string{"section"},
	)
	PollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "supervisor_poll_duration_seconds",
			Help:    "Duration of a full poll reconciliation cycle",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)

	// Materialized state metrics
	StoreActiveCalls = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "supervisor_store_active_calls",
			Help: "Number of calls in the active-calls collection",
		},
	)
	StoreActiveAlerts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "supervisor_store_active_alerts",
			Help: "Number of alerts in the active-alerts collection",
		},
	)

	// Action gateway metrics
	ActionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_action_requests_total",
			Help: "Total number of supervisor action requests by kind and outcome",
		},
		[]string{"action", "outcome"},
	)

	// AMQP relay metrics
	AMQPPublishedMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supervisor_amqp_published_messages_total",
			Help: "Total number of envelopes republished to AMQP",
		},
	)
	AMQPConnectionErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supervisor_amqp_connection_errors_total",
			Help: "Total number of AMQP connection errors",
		},
	)
)

// Init registers all collectors with a dedicated registry
func Init(logger *logrus.Logger) {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		collectors := []prometheus.Collector{
			WSFramesReceived,
			WSFramesDropped,
			WSConnectionStatus,
			WSReconnectAttempts,
			PollCycles,
			PollFailures,
			PollDuration,
			StoreActiveCalls,
			StoreActiveAlerts,
			ActionRequests,
			AMQPPublishedMessages,
			AMQPConnectionErrors,
		}
		for _, c := range collectors {
			registry.MustRegister(c)
		}

		logger.WithField("collectors", len(collectors)).Debug("Metrics registry initialized")
	})
}

// Handler returns the HTTP handler for the metrics endpoint
func Handler() http.Handler {
	if registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// StartServer starts a standalone metrics HTTP server on the given address.
// It returns the server so the caller can shut it down.
func StartServer(addr string, logger *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(defaultMetricsPath, Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("address", addr).Info("Metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Metrics server failed")
		}
	}()

	return srv
}

// SetEnabled toggles metric collection reporting
func SetEnabled(enabled bool) {
	metricsEnabled = enabled
}

// Enabled reports whether metrics are enabled
func Enabled() bool {
	return metricsEnabled
}
