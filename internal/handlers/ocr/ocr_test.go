package ocr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"deepseek-ocr-api/internal/shared"
	"deepseek-ocr-api/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockModelClient struct {
	mock.Mock
}

func (m *MockModelClient) ChatCompletion(ctx context.Context, req *upstream.ChatRequest) (*upstream.ChatResponse, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*upstream.ChatResponse)
	return res, args.Error(1)
}

func (m *MockModelClient) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockModelClient) ListModels(ctx context.Context) (*upstream.ModelList, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*upstream.ModelList)
	return res, args.Error(1)
}

func (m *MockModelClient) Endpoint() string {
	return "http://mock"
}

type recordingUsage struct {
	mu      sync.Mutex
	records []*shared.ProcessedOCRRequest
}

func (r *recordingUsage) AddRequest(pqi *shared.ProcessedOCRRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, pqi)
}

// stubUpstream is a model server answering chat completions with status and
// body, keeping every request it received
type stubUpstream struct {
	*httptest.Server
	mu       sync.Mutex
	requests [][]byte
}

func newStubUpstream(t *testing.T, status int, body string) *stubUpstream {
	t.Helper()
	s := &stubUpstream{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case shared.ChatCompletionsPath:
			data, _ := io.ReadAll(r.Body)
			s.mu.Lock()
			s.requests = append(s.requests, data)
			s.mu.Unlock()
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		case shared.HealthPath:
		case shared.ModelsPath:
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *stubUpstream) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubUpstream) lastRequest(t *testing.T) map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests)
	var out map[string]any
	require.NoError(t, json.Unmarshal(s.requests[len(s.requests)-1], &out))
	return out
}

func newTestManager(client ModelClient, usage UsageRecorder) *OCRManager {
	return NewOCRManager(client, nil, usage, zap.NewNop().Sugar(), Config{})
}

func input(req *shared.OCRRequest) OCRInput {
	return OCRInput{Ctx: context.Background(), Req: req, RequestID: "req_test"}
}
