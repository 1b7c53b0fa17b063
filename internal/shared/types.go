package shared

import "time"

// OCRRequest is the body accepted by the relay and the mock relay
type OCRRequest struct {
	SystemPrompt string   `json:"systemPrompt,omitempty"`
	UserPrompt   string   `json:"userPrompt"`
	Images       []string `json:"images"`
}

// OCRResponse is returned for every relay call, success or not
type OCRResponse struct {
	Success        bool   `json:"success"`
	Result         string `json:"result,omitempty"`
	Error          string `json:"error,omitempty"`
	ProcessingTime *int64 `json:"processingTime,omitempty"`
}

func NewOCRSuccess(result string, elapsed time.Duration) *OCRResponse {
	ms := elapsed.Milliseconds()
	return &OCRResponse{Success: true, Result: result, ProcessingTime: &ms}
}

func NewOCRFailure(err *RequestError) *OCRResponse {
	return &OCRResponse{Success: false, Error: err.Message()}
}

type Usage struct {
	PromptTokens     uint64 `json:"prompt_tokens"`
	CompletionTokens uint64 `json:"completion_tokens"`
	TotalTokens      uint64 `json:"total_tokens"`
}

// ProcessedOCRRequest is what gets recorded for every finished relay call
type ProcessedOCRRequest struct {
	RequestID      string
	Endpoint       string
	Model          string
	ImageCount     int
	StatusCode     int
	ProcessingTime time.Duration
	Usage          *Usage
	CreatedAt      time.Time
}
