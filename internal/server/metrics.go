package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadra_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quadra_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	detectRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadra_detect_requests_total",
			Help: "Total number of detection requests",
		},
		[]string{"status"},
	)

	detectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quadra_detect_duration_seconds",
			Help:    "Detection post-processing duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	boxesDetected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quadra_boxes_detected",
			Help:    "Number of text boxes detected per request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quadra_websocket_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadra_websocket_messages_total",
			Help: "Total number of WebSocket messages by direction",
		},
		[]string{"direction"},
	)
)
