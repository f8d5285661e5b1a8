// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the process-wide registry. It is separate from the global
// default registry so tests can construct collectors freely.
var Registry = prometheus.NewRegistry()

var (
	// APIRequestDuration observes remote API round trips per endpoint, with
	// ids collapsed to {id} so the label set stays small.
	APIRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "startright",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Latency of calls to the conference REST API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// ImageCacheLookups counts hook lookups by outcome (hit, miss, unavailable).
	ImageCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "startright",
		Subsystem: "imagecache",
		Name:      "lookups_total",
		Help:      "Image cache lookups by outcome.",
	}, []string{"outcome"})

	// ImageCacheStores counts background fetches by result (stored, failed).
	ImageCacheStores = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "startright",
		Subsystem: "imagecache",
		Name:      "fetches_total",
		Help:      "Background image fetches by result.",
	}, []string{"result"})

	// HTTPRequests counts served pages by route pattern and status.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "startright",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served by route and status code.",
	}, []string{"route", "code"})

	// CountdownStreams tracks open countdown SSE connections.
	CountdownStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "startright",
		Subsystem: "countdown",
		Name:      "streams_open",
		Help:      "Open countdown event streams.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		APIRequestDuration,
		ImageCacheLookups,
		ImageCacheStores,
		HTTPRequests,
		CountdownStreams,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// StatusClass collapses a status code to "2xx", "4xx", ... ; 0 means a
// transport error.
func StatusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}
