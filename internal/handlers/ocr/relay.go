package ocr

import (
	"errors"
	"time"

	"deepseek-ocr-api/internal/metrics"
	"deepseek-ocr-api/internal/shared"
	"deepseek-ocr-api/internal/upstream"
)

const NoContentResult = "No content returned from OCR"

// Relay validates the request, forwards it to the model server and converts
// the answer. A nil error means success; every failure comes back as a
// RequestError carrying the status code and the caller-visible message.
func (om *OCRManager) Relay(input OCRInput) (*shared.OCRResponse, *shared.RequestError) {
	log := om.logger(input)
	if rerr := Validate(input.Req); rerr != nil {
		metrics.ErrorCount.WithLabelValues(om.Model, shared.EndpointOCR, "validation").Inc()
		return nil, rerr
	}
	req := input.Req

	start := time.Now()
	wire := BuildChatRequest(req, om.Model)
	res, err := om.Client.ChatCompletion(input.Ctx, wire)
	elapsed := time.Since(start)

	pqi := &shared.ProcessedOCRRequest{
		RequestID:      input.RequestID,
		Endpoint:       shared.EndpointOCR,
		Model:          om.Model,
		ImageCount:     len(req.Images),
		ProcessingTime: elapsed,
		CreatedAt:      time.Now(),
	}
	metrics.ImagesPerRequest.WithLabelValues(shared.EndpointOCR).Observe(float64(len(req.Images)))

	if err != nil {
		var rerr *shared.RequestError
		var serr *upstream.StatusError
		if errors.As(err, &serr) {
			log.Errorw("DeepSeek API error", "status", serr.StatusCode, "body", serr.Body)
			metrics.ErrorCount.WithLabelValues(om.Model, shared.EndpointOCR, shared.ErrUpstreamStatus.Code).Inc()
			rerr = shared.UpstreamUnavailable(serr.StatusText)
		} else {
			log.Errorw("OCR API error", "error", err.Error())
			metrics.ErrorCount.WithLabelValues(om.Model, shared.EndpointOCR, errorSource(err)).Inc()
			rerr = shared.ProcessingFailed(err)
		}
		pqi.StatusCode = rerr.StatusCode
		metrics.RequestCount.WithLabelValues(om.Model, shared.EndpointOCR, "error").Inc()
		om.record(pqi)
		return nil, rerr
	}

	result, ok := res.FirstContent()
	if !ok || result == "" {
		log.Warnw("Model returned no content", "choices", len(res.Choices))
		result = NoContentResult
	}

	pqi.StatusCode = 200
	if res.Usage != nil {
		pqi.Usage = &shared.Usage{
			PromptTokens:     res.Usage.PromptTokens,
			CompletionTokens: res.Usage.CompletionTokens,
			TotalTokens:      res.Usage.TotalTokens,
		}
		metrics.PromptTokens.WithLabelValues(om.Model).Add(float64(res.Usage.PromptTokens))
		metrics.CompletionTokens.WithLabelValues(om.Model).Add(float64(res.Usage.CompletionTokens))
	}
	metrics.RequestDuration.WithLabelValues(om.Model, shared.EndpointOCR).Observe(elapsed.Seconds())
	metrics.RequestCount.WithLabelValues(om.Model, shared.EndpointOCR, "success").Inc()
	om.record(pqi)

	return shared.NewOCRSuccess(result, elapsed), nil
}

func errorSource(err error) string {
	for _, kind := range []*shared.MetricsError{
		shared.ErrRequestBuild,
		shared.ErrUpstreamHTTP,
		shared.ErrUpstreamResponse,
	} {
		if errors.Is(err, kind) {
			return kind.Code
		}
	}
	return "internal"
}
