package shared

import (
	"errors"
	"fmt"
)

// RequestError is used when we want a specific error message and StatusCode.
// Err is the message the caller sees. Detail meant only for operators should
// be logged or added to the request log values, never wrapped into Err.
type RequestError struct {
	StatusCode int
	Err        error
}

func (r *RequestError) Error() string {
	return fmt.Sprintf("status %d: err %v", r.StatusCode, r.Err)
}

// Message is the caller-visible part of the error
func (r *RequestError) Message() string {
	if r.Err == nil {
		return "unknown error"
	}
	return r.Err.Error()
}

var (
	ErrUserPromptRequired = &RequestError{Err: errors.New("User prompt is required"), StatusCode: 400}
	ErrImagesRequired     = &RequestError{Err: errors.New("At least one image is required"), StatusCode: 400}

	ErrMissingAuth   = &RequestError{Err: errors.New("missing authorization header"), StatusCode: 401}
	ErrInvalidFormat = &RequestError{Err: errors.New("invalid authentication format"), StatusCode: 401}
	ErrUnauthorized  = &RequestError{Err: errors.New("unauthorized"), StatusCode: 401}

	ErrInternalServerError = &RequestError{Err: errors.New("internal server error"), StatusCode: 500}

	ErrUpstreamHTTP     = &MetricsError{Msg: "failed to send http request to model", Code: "model_http_err"}
	ErrUpstreamStatus   = &MetricsError{Msg: "model responded with non-200", Code: "model_http_status_err"}
	ErrUpstreamResponse = &MetricsError{Msg: "failed to read model response", Code: "model_response_err"}
	ErrRequestBuild     = &MetricsError{Msg: "failed to build model request", Code: "model_request_err"}
)

// UpstreamUnavailable builds the 502 returned when the model answers with a
// non-2xx status. Only the status text reaches the caller.
func UpstreamUnavailable(statusText string) *RequestError {
	return &RequestError{
		StatusCode: 502,
		Err:        fmt.Errorf("DeepSeek API error: %s. Please ensure the API instance is running.", statusText),
	}
}

// ProcessingFailed builds the 500 for anything unexpected in the relay path
func ProcessingFailed(err error) *RequestError {
	msg := "Unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &RequestError{
		StatusCode: 500,
		Err:        fmt.Errorf("Failed to process OCR request: %s", msg),
	}
}

type MetricsError struct {
	Msg  string
	Code string
}

func (m *MetricsError) Error() string {
	return m.String()
}

func (m *MetricsError) String() string {
	return m.Msg
}
