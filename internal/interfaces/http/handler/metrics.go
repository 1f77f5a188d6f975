package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the Prometheus registry, including the assessment
// counters and latency histogram registered by the metrics package.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
