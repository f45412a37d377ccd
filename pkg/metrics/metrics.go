package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Supervisor metrics
	ServicesRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "etes_services_running",
			Help: "Number of services currently supervised",
		},
	)

	ServiceStarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "etes_service_starts_total",
			Help: "Total number of services that reached the running state",
		},
	)

	ServiceStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "etes_service_stops_total",
			Help: "Total number of services stopped or exited",
		},
	)

	// Upload metrics
	Uploads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "etes_uploads_total",
			Help: "Total number of accepted executable uploads",
		},
	)

	UploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "etes_upload_bytes",
			Help:    "Size of uploaded executables in bytes",
			Buckets: prometheus.ExponentialBuckets(1<<20, 4, 8),
		},
	)

	// Proxy metrics
	ProxyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etes_proxy_requests_total",
			Help: "Total number of proxy requests by outcome",
		},
		[]string{"outcome"},
	)

	// Event bus metrics
	EventsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "etes_bus_events_published_total",
			Help: "Total number of events published to the bus",
		},
	)

	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "etes_bus_events_dropped_total",
			Help: "Total number of events dropped on full subscriber buffers",
		},
	)

	// Observer metrics
	ObserverSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "etes_observer_sessions",
			Help: "Number of connected websocket observers",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(ServicesRunning)
	prometheus.MustRegister(ServiceStarts)
	prometheus.MustRegister(ServiceStops)
	prometheus.MustRegister(Uploads)
	prometheus.MustRegister(UploadBytes)
	prometheus.MustRegister(ProxyRequests)
	prometheus.MustRegister(EventsPublished)
	prometheus.MustRegister(EventsDropped)
	prometheus.MustRegister(ObserverSessions)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
