package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"deepseek-ocr-api/internal/metrics"
	"deepseek-ocr-api/internal/shared"
	"deepseek-ocr-api/internal/upstream"

	"github.com/manifold-inc/manifold-sdk/lib/utils"
)

type HealthStatus struct {
	Healthy  bool   `json:"healthy"`
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
	Error    string `json:"error,omitempty"`
}

// Health asks the model server whether it is up
func (om *OCRManager) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{Endpoint: om.Client.Endpoint(), Model: om.Model}
	if err := om.Client.Health(ctx); err != nil {
		status.Error = err.Error()
		return status
	}
	status.Healthy = true
	return status
}

func (om *OCRManager) modelsCacheKey() string {
	return fmt.Sprintf("ocr:v1:models:%s", om.Client.Endpoint())
}

// ListModels returns the models the model server exposes, going through the
// redis cache when one is configured
func (om *OCRManager) ListModels(ctx context.Context) (*upstream.ModelList, error) {
	cacheKey := om.modelsCacheKey()
	if om.RedisClient != nil {
		cached, err := om.RedisClient.Get(ctx, cacheKey).Result()
		if err == nil && cached != "" {
			var models upstream.ModelList
			uerr := json.Unmarshal([]byte(cached), &models)
			if uerr == nil {
				metrics.ModelCacheHits.WithLabelValues("hit").Inc()
				return &models, nil
			}
			om.Log.Warnw("Failed to unmarshal cached model list", "error", uerr, "cache_key", cacheKey)
		}
		metrics.ModelCacheHits.WithLabelValues("miss").Inc()
	}

	models, err := om.Client.ListModels(ctx)
	if err != nil {
		return nil, utils.Wrap("failed listing models", err)
	}

	if om.RedisClient != nil {
		go func() {
			cacheCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			cacheJSON, err := json.Marshal(models)
			if err != nil {
				om.Log.Warnw("Failed to marshal model list for cache", "error", err)
				return
			}
			if err := om.RedisClient.Set(cacheCtx, cacheKey, cacheJSON, shared.ModelListCacheTTL).Err(); err != nil {
				om.Log.Warnw("Failed to cache model list", "error", err, "cache_key", cacheKey)
			}
		}()
	}
	return models, nil
}
