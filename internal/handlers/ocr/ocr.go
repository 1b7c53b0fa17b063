// Package ocr relays OCR requests to an OpenAI-compatible model server
package ocr

import (
	"context"
	"time"

	"deepseek-ocr-api/internal/shared"
	"deepseek-ocr-api/internal/upstream"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ModelClient is the part of the model server API the relay needs
type ModelClient interface {
	ChatCompletion(ctx context.Context, req *upstream.ChatRequest) (*upstream.ChatResponse, error)
	Health(ctx context.Context) error
	ListModels(ctx context.Context) (*upstream.ModelList, error)
	Endpoint() string
}

// UsageRecorder receives one record per finished relay call
type UsageRecorder interface {
	AddRequest(pqi *shared.ProcessedOCRRequest)
}

type Config struct {
	Model string
	// MockDelay is how long the mock relay pretends to work
	MockDelay time.Duration
}

type OCRManager struct {
	Client      ModelClient
	RedisClient *redis.Client
	Usage       UsageRecorder
	Log         *zap.SugaredLogger
	Model       string
	MockDelay   time.Duration
}

// NewOCRManager builds the relay. redisClient and usage are optional.
func NewOCRManager(client ModelClient, redisClient *redis.Client, usage UsageRecorder, log *zap.SugaredLogger, cfg Config) *OCRManager {
	if cfg.Model == "" {
		cfg.Model = shared.DefaultDeepSeekModel
	}
	if cfg.MockDelay <= 0 {
		cfg.MockDelay = shared.MockDelay
	}
	return &OCRManager{
		Client:      client,
		RedisClient: redisClient,
		Usage:       usage,
		Log:         log,
		Model:       cfg.Model,
		MockDelay:   cfg.MockDelay,
	}
}

type OCRInput struct {
	Ctx       context.Context
	Req       *shared.OCRRequest
	RequestID string
	Log       *zap.SugaredLogger
}

func (om *OCRManager) logger(input OCRInput) *zap.SugaredLogger {
	if input.Log != nil {
		return input.Log
	}
	return om.Log
}

func (om *OCRManager) record(pqi *shared.ProcessedOCRRequest) {
	if om.Usage == nil {
		return
	}
	om.Usage.AddRequest(pqi)
}
