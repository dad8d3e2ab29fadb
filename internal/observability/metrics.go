// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Submission metrics
	SubmissionsTotal   *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram
	StepDuration       *prometheus.HistogramVec
	StepFailures       *prometheus.CounterVec

	// Pinning metrics
	PinUploadBytes   *prometheus.CounterVec
	PinUploadLatency *prometheus.HistogramVec
	PinUploadErrors  *prometheus.CounterVec

	// Solana metrics
	RPCCallLatency *prometheus.HistogramVec

	// Wallet bridge metrics
	WalletSessions prometheus.Gauge
	SignRequests   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "token_forge"
	}
	factory := promauto.With(reg)

	return &Metrics{
		SubmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "total",
			Help:      "Total number of token submissions by outcome",
		}, []string{"outcome"}),
		SubmissionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "duration_seconds",
			Help:      "End-to-end token submission duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		StepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "step_duration_seconds",
			Help:      "Submission step duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		StepFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "step_failures_total",
			Help:      "Total number of submission step failures",
		}, []string{"step"}),

		PinUploadBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pinning",
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded to the pinning service by kind",
		}, []string{"kind"}),
		PinUploadLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pinning",
			Name:      "upload_latency_seconds",
			Help:      "Pinning upload latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		PinUploadErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pinning",
			Name:      "upload_errors_total",
			Help:      "Total number of failed pinning uploads",
		}, []string{"kind"}),

		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		WalletSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "bridge_sessions",
			Help:      "Number of connected browser wallets",
		}),
		SignRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "sign_requests_total",
			Help:      "Total number of signing requests by result",
		}, []string{"result"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordSubmission records a finished submission. outcome is "success" or
// the name of the failing step.
func RecordSubmission(outcome string, seconds float64) {
	DefaultMetrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
	DefaultMetrics.SubmissionDuration.Observe(seconds)
}

// RecordStep records a submission step run.
func RecordStep(step string, seconds float64, err error) {
	DefaultMetrics.StepDuration.WithLabelValues(step).Observe(seconds)
	if err != nil {
		DefaultMetrics.StepFailures.WithLabelValues(step).Inc()
	}
}

// RecordPin records a pinning upload.
func RecordPin(kind string, bytes int, seconds float64, err error) {
	DefaultMetrics.PinUploadLatency.WithLabelValues(kind).Observe(seconds)
	if err != nil {
		DefaultMetrics.PinUploadErrors.WithLabelValues(kind).Inc()
		return
	}
	DefaultMetrics.PinUploadBytes.WithLabelValues(kind).Add(float64(bytes))
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// WalletConnected adjusts the connected wallet gauge.
func WalletConnected(connected bool) {
	if connected {
		DefaultMetrics.WalletSessions.Inc()
		return
	}
	DefaultMetrics.WalletSessions.Dec()
}

// RecordSignRequest records a wallet signing round trip.
// result is "signed", "rejected" or "error".
func RecordSignRequest(result string) {
	DefaultMetrics.SignRequests.WithLabelValues(result).Inc()
}
