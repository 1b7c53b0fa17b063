package shared

import "time"

// Upstream defaults
const (
	DefaultDeepSeekEndpoint = "http://52.54.253.30:8000"
	DefaultDeepSeekModel    = "deepseek-ai/DeepSeek-OCR"
	DefaultPort             = "80"
)

// Chat completion paths on the upstream
const (
	ChatCompletionsPath = "/v1/chat/completions"
	ModelsPath          = "/v1/models"
	HealthPath          = "/health"
)

// Wire request settings
const (
	OCRMaxTokens     = 2048
	OCRTemperature   = 0.0
	DefaultImageMIME = "image/png"
)

// HTTP Client Configuration
const (
	DefaultDialTimeout     = 10 * time.Second
	DefaultHealthTimeout   = 5 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

// Mock endpoint
const (
	MockDelay = 1500 * time.Millisecond
)

// Cache Configuration
const (
	ModelListCacheTTL = 30 * time.Minute
)

// Bucket Configuration
const (
	BucketFlushInterval = 1 * time.Minute
	BucketRetryDelay    = 30 * time.Second
	BucketMaxSize       = 100
	MaxFlushRetries     = 3
)

// Endpoint labels used for metrics and persisted request records
const (
	EndpointOCR  = "ocr"
	EndpointMock = "mock"
)
