// Package metrics provides the Prometheus registry handle for the Taiga
// client. Metrics are defined next to the code that records them (pkg/client)
// to keep the packages self-contained.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in pkg/client.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - taiga_requests_total{endpoint, status} (Counter): Total requests by
//     endpoint and HTTP status (transport_error/read_error for failures
//     below HTTP)
//   - taiga_request_duration_seconds{endpoint} (Histogram): Request duration
//     by endpoint
//   - taiga_errors_total{class} (Counter): Non-2xx responses by class
//     (auth, forbidden, client, server, unexpected)
//   - taiga_pages_fetched_total{endpoint} (Counter): Pages fetched during
//     paginated requests
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(taiga_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(taiga_request_duration_seconds_bucket[5m]))
//
//   # Average Pages per Paginated Fetch
//   rate(taiga_pages_fetched_total[5m]) / rate(taiga_requests_total{endpoint="tasks"}[5m])
