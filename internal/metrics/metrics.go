// Package metrics defines prometheus metrics to expose
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ocr_api_request_duration_seconds",
			Help:    "Time from relay start until the model response was fully read",
			Buckets: []float64{.25, .5, 1, 1.5, 2.5, 5, 10, 15, 20, 30, 45, 60, 90, 120, 180, 300},
		},
		[]string{"model", "endpoint"},
	)

	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_api_request_count_total",
			Help: "Total number of ocr requests processed",
		},
		[]string{"model", "endpoint", "status"},
	)

	ImagesPerRequest = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ocr_api_images_per_request",
			Help:    "Number of images relayed per request",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 10, 15, 20},
		},
		[]string{"endpoint"},
	)

	PromptTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_api_prompt_tokens_total",
			Help: "Total number of prompt tokens reported by the model",
		},
		[]string{"model"},
	)

	CompletionTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_api_completion_tokens_total",
			Help: "Total number of completion tokens reported by the model",
		},
		[]string{"model"},
	)

	ErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_api_error_count",
			Help: "Error count",
		},
		[]string{"model", "endpoint", "from"},
	)

	ModelCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_api_model_cache_total",
			Help: "Model list cache lookups",
		},
		[]string{"result"},
	)

	UsageFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_api_usage_flush_total",
			Help: "Usage bucket flush attempts",
		},
		[]string{"status"},
	)

	ResponseCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_api_status_code",
			Help: "Status Codes",
		},
		[]string{"path", "status_code"},
	)
)
