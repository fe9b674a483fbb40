package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speechflow_gateway_requests_total",
		Help: "Speech gateway calls by operation, vendor and outcome",
	}, []string{"operation", "vendor", "outcome"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "speechflow_upstream_latency_seconds",
		Help:    "Latency of the single upstream vendor call",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"operation", "vendor"})

	UpstreamInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "speechflow_upstream_in_flight",
		Help: "Upstream calls currently holding a concurrency slot",
	}, []string{"vendor"})

	AudioPayloadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speechflow_audio_payload_bytes",
		Help:    "Decoded size of accepted transcription clips",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 9),
	})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "speechflow_upstream_breaker_open",
		Help: "1 while the upstream circuit breaker is open",
	}, []string{"vendor"})
)

// ObserveRequest counts one finished gateway call.
func ObserveRequest(operation, vendor, outcome string) {
	GatewayRequestsTotal.WithLabelValues(operation, vendor, outcome).Inc()
}

func ObserveUpstream(operation, vendor string, d time.Duration) {
	UpstreamLatency.WithLabelValues(operation, vendor).Observe(d.Seconds())
}
