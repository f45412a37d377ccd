/*
Package metrics defines the Prometheus collectors exposed at /metrics on the
management listener.

Collectors are package-level and registered in init(), so any package may
increment them directly without threading a registry through constructors:

	metrics.ServiceStarts.Inc()
	metrics.ProxyRequests.WithLabelValues("forwarded").Inc()
	metrics.UploadBytes.Observe(float64(written))

The scrape endpoint is wired in pkg/api:

	router.Handle("/metrics", metrics.Handler())
*/
package metrics
