// Package metrics
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vantetider_http_requests_total",
			Help: "Requests sent to the site, labeled by method and status code.",
		},
		[]string{"method", "status_code"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vantetider_http_request_duration_seconds",
			Help:    "Duration of requests to the site in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vantetider_cache_lookups_total",
			Help: "Page cache lookups, labeled by the layer that answered (memory, disk, miss).",
		},
		[]string{"layer"},
	)
	RecordsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vantetider_records_extracted_total",
			Help: "Records produced by the table parser, labeled by table shape.",
		},
		[]string{"shape"},
	)
	ParseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vantetider_parse_failures_total",
			Help: "Pages the table parser rejected, labeled by error kind.",
		},
		[]string{"kind"},
	)
	PagesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vantetider_pages_skipped_total",
			Help: "Result pages skipped because the site answered with a server error.",
		},
	)
	WatchCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vantetider_watch_cycle_duration_seconds",
			Help:    "Duration of a watcher refresh cycle in seconds.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
	WatchLastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vantetider_watch_last_success_timestamp_seconds",
			Help: "Unix time of the last watcher cycle without dataset errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(CacheLookups)
	prometheus.MustRegister(RecordsExtracted)
	prometheus.MustRegister(ParseFailures)
	prometheus.MustRegister(PagesSkipped)
	prometheus.MustRegister(WatchCycleDuration)
	prometheus.MustRegister(WatchLastSuccess)
}

// ObserveRequest records one finished HTTP exchange. status 0 means the
// request never got a response.
func ObserveRequest(method string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	HTTPRequests.WithLabelValues(method, code).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ExposeMetrics serves /metrics on addr until ctx is cancelled.
func ExposeMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Exposing Prometheus metrics", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Failed to start Prometheus metrics server", "error", err)
	}
}
