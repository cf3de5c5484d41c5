package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StorageOperationSeconds records storage latency by backend and operation.
	StorageOperationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evcircle_storage_operation_seconds",
		Help:    "Storage operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})

	// StorageErrorsTotal counts failed storage operations by backend and operation.
	StorageErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evcircle_storage_errors_total",
		Help: "Total number of failed storage operations",
	}, []string{"backend", "operation"})

	// WebSocketConnectionsTotal is the gauge of active notification sockets.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evcircle_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evcircle_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// ChargemapRequestsTotal counts upstream charging-map lookups by outcome.
	ChargemapRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evcircle_chargemap_requests_total",
		Help: "Total number of upstream charging-map requests",
	}, []string{"outcome"})
)

// ObserveStorageOp records one storage operation.
func ObserveStorageOp(backend, operation string, d time.Duration) {
	StorageOperationSeconds.WithLabelValues(backend, operation).Observe(d.Seconds())
}

// ObserveStorageError counts one failed storage operation.
func ObserveStorageError(backend, operation string) {
	StorageErrorsTotal.WithLabelValues(backend, operation).Inc()
}
