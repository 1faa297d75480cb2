package observability

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "resmatch", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resmatch", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "resmatch", Name: "external_requests_total", Help: "Outbound requests to booking sources."},
		[]string{"source", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resmatch", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "resmatch", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"},
	)
	ReconcileCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "resmatch", Name: "reconcile_cycles_total", Help: "Reconciliation cycles by trigger and outcome."},
		[]string{"trigger", "outcome"}, // outcome: ok|unchanged|stale|error
	)
	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "resmatch", Name: "reconcile_cycle_duration_seconds",
			Help:    "Full reconciliation cycle duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	SnapshotGuests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "resmatch", Name: "snapshot_hotel_guests", Help: "Hotel guests in the published snapshot."},
		[]string{"state"}, // matched|unmatched
	)
	StatusUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "resmatch", Name: "status_updates_total", Help: "Per-booking results of batch status updates."},
		[]string{"outcome"}, // ok|failed
	)
)

// Serve starts the standalone metrics listener when METRICS_ADDR is set.
func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency,
		ExternalRequests, ExternalLatency,
		CacheEvents,
		ReconcileCycles, ReconcileDuration, SnapshotGuests, StatusUpdates,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(source, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(source, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(source, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveReconcile(trigger, outcome string, dur time.Duration) {
	ReconcileCycles.WithLabelValues(trigger, outcome).Inc()
	ReconcileDuration.Observe(dur.Seconds())
}

func SetSnapshotGauges(matched, unmatched int) {
	SnapshotGuests.WithLabelValues("matched").Set(float64(matched))
	SnapshotGuests.WithLabelValues("unmatched").Set(float64(unmatched))
}

func ObserveStatusUpdate(outcome string) { // ok|failed
	StatusUpdates.WithLabelValues(outcome).Inc()
}
