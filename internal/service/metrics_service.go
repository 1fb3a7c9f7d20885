package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the signing API.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	placementsTotal   *prometheus.CounterVec
	finalizations     prometheus.Counter
	signaturesBaked   prometheus.Counter
	signaturesSkipped prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	placementsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signature_placements_total",
		Help: "Total signature placements by outcome",
	}, []string{"outcome"})

	finalizations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "document_finalizations_total",
		Help: "Total successful document finalizations",
	})

	signaturesBaked := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signatures_baked_total",
		Help: "Total signatures drawn into signed artifacts",
	})

	signaturesSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signatures_skipped_total",
		Help: "Total signatures skipped during finalization due to data drift",
	})

	registry.MustRegister(requestDuration, requestTotal, placementsTotal,
		finalizations, signaturesBaked, signaturesSkipped)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		placementsTotal:   placementsTotal,
		finalizations:     finalizations,
		signaturesBaked:   signaturesBaked,
		signaturesSkipped: signaturesSkipped,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one handled HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// CountPlacement records a placement attempt outcome ("ok", "rejected").
func (s *MetricsService) CountPlacement(outcome string) {
	s.placementsTotal.WithLabelValues(outcome).Inc()
}

// CountFinalization records a successful finalize run and its per-signature
// tallies.
func (s *MetricsService) CountFinalization(baked, skipped int) {
	s.finalizations.Inc()
	s.signaturesBaked.Add(float64(baked))
	s.signaturesSkipped.Add(float64(skipped))
}
