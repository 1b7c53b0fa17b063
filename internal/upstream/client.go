// Package upstream talks to the OpenAI-compatible OCR model server
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"deepseek-ocr-api/internal/shared"

	"go.uber.org/zap"
)

// StatusError is returned when the model server answers with a non-2xx
// status. Body is for operator logs only.
type StatusError struct {
	StatusCode int
	StatusText string
	Body       string
}

func (s *StatusError) Error() string {
	return fmt.Sprintf("model responded with %d %s", s.StatusCode, s.StatusText)
}

func (s *StatusError) Unwrap() error {
	return shared.ErrUpstreamStatus
}

// CallError tags a failure with the stage it happened in. Error() is the
// underlying message so it can be shown as is.
type CallError struct {
	Kind *shared.MetricsError
	Err  error
}

func (c *CallError) Error() string {
	return c.Err.Error()
}

func (c *CallError) Unwrap() []error {
	return []error{c.Kind, c.Err}
}

// statusText is the reason phrase the server sent, or the standard text for
// the code when the server sent none
func statusText(res *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
	if text == "" {
		return http.StatusText(res.StatusCode)
	}
	return text
}

type Client struct {
	endpoint string
	http     *http.Client
	log      *zap.SugaredLogger
}

func NewClient(endpoint string, log *zap.SugaredLogger) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: shared.DefaultDialTimeout,
		}).DialContext,
		TLSHandshakeTimeout: shared.DefaultDialTimeout,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}
	// No client timeout: an OCR call runs until the model answers or the
	// caller goes away.
	return &Client{
		endpoint: shared.TrimEndpoint(endpoint),
		http:     &http.Client{Transport: tr},
		log:      log,
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// ChatCompletion posts one chat completion request and decodes the answer
func (c *Client) ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &CallError{Kind: shared.ErrRequestBuild, Err: err}
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+shared.ChatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, &CallError{Kind: shared.ErrRequestBuild, Err: err}
	}
	r.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(r)
	if err != nil {
		return nil, &CallError{Kind: shared.ErrUpstreamHTTP, Err: err}
	}
	defer func() {
		_ = res.Body.Close()
	}()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &CallError{Kind: shared.ErrUpstreamResponse, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: res.StatusCode,
			StatusText: statusText(res),
			Body:       string(raw),
		}
	}

	var out ChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &CallError{Kind: shared.ErrUpstreamResponse, Err: err}
	}
	return &out, nil
}

// Health reports nil when the model server answers its health route with 200
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shared.DefaultHealthTimeout)
	defer cancel()

	res, err := c.get(ctx, shared.HealthPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, res.Body)
	if res.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: res.StatusCode, StatusText: statusText(res)}
	}
	return nil
}

// ListModels returns the models served by the model server
func (c *Client) ListModels(ctx context.Context) (*ModelList, error) {
	res, err := c.get(ctx, shared.ModelsPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, &StatusError{
			StatusCode: res.StatusCode,
			StatusText: statusText(res),
			Body:       strings.TrimSpace(string(data)),
		}
	}

	var models ModelList
	if err := json.NewDecoder(res.Body).Decode(&models); err != nil {
		return nil, &CallError{Kind: shared.ErrUpstreamResponse, Err: err}
	}
	return &models, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return nil, &CallError{Kind: shared.ErrRequestBuild, Err: err}
	}
	res, err := c.http.Do(r)
	if err != nil {
		if c.log != nil && !errors.Is(err, context.Canceled) {
			c.log.Debugw("Model server unreachable", "path", path, "error", err.Error())
		}
		return nil, &CallError{Kind: shared.ErrUpstreamHTTP, Err: err}
	}
	return res, nil
}
