// Package routers
package routers

import (
	"encoding/json"
	"errors"
	"io"

	"deepseek-ocr-api/internal/ctx"
	"deepseek-ocr-api/internal/shared"
)

func readRequestBody(c *ctx.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		c.Log.Errorw("Failed to read request body", "error", err.Error())
		return nil, err
	}
	return body, nil
}

// decodeOCRRequest reads the body into an OCRRequest. Unreadable or malformed
// bodies are unexpected errors and map to the generic 500.
func decodeOCRRequest(c *ctx.Context) (*shared.OCRRequest, *shared.RequestError) {
	body, err := readRequestBody(c)
	if err != nil {
		return nil, shared.ProcessingFailed(err)
	}
	if len(body) == 0 {
		return nil, shared.ProcessingFailed(errors.New("empty request body"))
	}
	var req shared.OCRRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.Log.Warnw("Failed to parse request body", "error", err.Error())
		return nil, shared.ProcessingFailed(err)
	}
	return &req, nil
}

func sendOCRError(c *ctx.Context, rerr *shared.RequestError) error {
	c.LogValues.AddError(rerr)
	if rerr.StatusCode >= 500 {
		c.LogValues.LogLevel = "ERROR"
	}
	return c.JSON(rerr.StatusCode, shared.NewOCRFailure(rerr))
}
