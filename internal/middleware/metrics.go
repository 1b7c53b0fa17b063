// Package middleware holds the echo middleware shared by every route
package middleware

import (
	"fmt"
	"strings"
	"time"

	"deepseek-ocr-api/internal/ctx"
	"deepseek-ocr-api/internal/metrics"
	"deepseek-ocr-api/internal/shared"

	"github.com/aidarkhanov/nanoid"
	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func NewTrackMiddleware(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID, _ := nanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", 28)
			reqID = "req_" + reqID
			externalID := c.Request().Header.Get("X-Request-Id")
			logger := log.With("request_id", reqID)
			if externalID != "" {
				logger = logger.With("external_id", externalID)
			}
			c.Response().Header().Set("X-Request-Id", reqID)

			cc := &ctx.Context{
				Context: c,
				Log:     logger,
				Reqid:   reqID,
				LogValues: &ctx.ContextLogValues{
					RequestID:  reqID,
					ExternalID: externalID,
					StartTime:  time.Now(),
					Path:       c.Path(),
				},
			}
			if err := next(cc); err != nil {
				// Let echo write the error response so the status below is final
				cc.LogValues.AddError(err)
				cc.Error(err)
			}
			cc.LogValues.RequestDuration = time.Since(cc.LogValues.StartTime)
			cc.LogValues.StatusCode = cc.Response().Status

			switch {
			case strings.EqualFold(cc.LogValues.LogLevel, "ERROR") || cc.LogValues.StatusCode >= 500:
				log.Errorw("end_of_request", zap.Object("request", cc.LogValues))
			case cc.LogValues.StatusCode >= 400:
				log.Warnw("end_of_request", zap.Object("request", cc.LogValues))
			default:
				log.Infow("end_of_request", zap.Object("request", cc.LogValues))
			}
			metrics.ResponseCodes.WithLabelValues(cc.Path(), fmt.Sprintf("%d", cc.Response().Status)).Inc()
			return nil
		}
	}
}

func NewRecoverMiddleware(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return emw.RecoverWithConfig(emw.RecoverConfig{
		StackSize: 1 << 10, // 1 KB
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			defer func() {
				_ = log.Sync()
			}()
			log.Errorw("Api Panic", "error", err.Error(), "stack", string(stack))
			return c.JSON(500, shared.NewOCRFailure(shared.ErrInternalServerError))
		},
	})
}

// NewMetricsAuthMiddleware guards /metrics with a bearer key. An empty key
// leaves the route open.
func NewMetricsAuthMiddleware(metricsAPIKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if metricsAPIKey == "" {
				return next(c)
			}
			apiKey, err := shared.ExtractAPIKey(c)
			if err != nil {
				return c.String(401, "Missing or invalid API key")
			}
			if apiKey != metricsAPIKey {
				return c.String(401, "Unauthorized API key")
			}
			return next(c)
		}
	}
}
