package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yodet_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yodet_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Detection processing metrics
	processRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yodet_process_requests_total",
			Help: "Total number of batch processing requests",
		},
		[]string{"status"}, // status: ok, empty_batch, no_valid_images, failed
	)

	imagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yodet_images_processed_total",
			Help: "Total number of uploaded files by outcome",
		},
		[]string{"outcome"}, // outcome: processed, skipped, failed
	)

	processingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yodet_batch_processing_duration_seconds",
			Help:    "Batch processing duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25, 60},
		},
	)

	detectionsPerImage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yodet_detections_per_image",
			Help:    "Number of objects detected per processed image",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 300},
		},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yodet_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yodet_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yodet_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
