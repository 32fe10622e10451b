// Package metrics exposes Prometheus instrumentation for the proxy pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder counts upstream activity and fallback responses. A nil Recorder
// is valid and records nothing, so tests can construct clients without a
// registry.
type Recorder struct {
	upstreamRequests *prometheus.CounterVec
	upstreamRetries  *prometheus.CounterVec
	fallbacks        *prometheus.CounterVec
}

// New creates a Recorder registered against reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spotify_upstream_requests_total",
			Help: "Upstream Spotify requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		upstreamRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spotify_upstream_retries_total",
			Help: "Retried upstream attempts by endpoint.",
		}, []string{"endpoint"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spotify_fallback_responses_total",
			Help: "API responses served with the fallback payload.",
		}, []string{"route", "reason"}),
	}
}

// UpstreamRequest records one completed upstream attempt.
func (r *Recorder) UpstreamRequest(endpoint, outcome string) {
	if r == nil {
		return
	}
	r.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
}

// UpstreamRetry records that an endpoint attempt is being retried.
func (r *Recorder) UpstreamRetry(endpoint string) {
	if r == nil {
		return
	}
	r.upstreamRetries.WithLabelValues(endpoint).Inc()
}

// Fallback records a response that degraded to the fallback payload.
func (r *Recorder) Fallback(route, reason string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(route, reason).Inc()
}
