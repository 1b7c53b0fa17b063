package buckets

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"deepseek-ocr-api/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flushRecorder struct {
	mu      sync.Mutex
	batches [][]*shared.ProcessedOCRRequest
	fail    atomic.Int32
	calls   atomic.Int32
}

func (f *flushRecorder) flush(records []*shared.ProcessedOCRRequest) error {
	f.calls.Add(1)
	if f.fail.Load() > 0 {
		f.fail.Add(-1)
		return errors.New("db down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, records)
	return nil
}

func (f *flushRecorder) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func record(i int) *shared.ProcessedOCRRequest {
	return &shared.ProcessedOCRRequest{RequestID: fmt.Sprintf("req_%d", i), Endpoint: shared.EndpointOCR, StatusCode: 200}
}

func TestFlushOnSize(t *testing.T) {
	f := &flushRecorder{}
	c := NewUsageCache(zap.NewNop().Sugar(), f.flush, &Options{FlushInterval: time.Hour, MaxSize: 3})

	for i := range 3 {
		c.AddRequest(record(i))
	}
	assert.Eventually(t, func() bool { return f.total() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, c.Len())

	c.AddRequest(record(3))
	assert.Equal(t, 1, c.Len())
	c.Shutdown()
	assert.Equal(t, 4, f.total())
}

func TestFlushOnInterval(t *testing.T) {
	f := &flushRecorder{}
	c := NewUsageCache(zap.NewNop().Sugar(), f.flush, &Options{FlushInterval: 20 * time.Millisecond})

	c.AddRequest(record(1))
	c.AddRequest(record(2))
	assert.Eventually(t, func() bool { return f.total() == 2 }, time.Second, 5*time.Millisecond)

	f.mu.Lock()
	require.Len(t, f.batches, 1)
	assert.Equal(t, "req_1", f.batches[0][0].RequestID)
	assert.Equal(t, "req_2", f.batches[0][1].RequestID)
	f.mu.Unlock()
	c.Shutdown()
}

func TestFlushRetries(t *testing.T) {
	f := &flushRecorder{}
	f.fail.Store(2)
	c := NewUsageCache(zap.NewNop().Sugar(), f.flush, &Options{FlushInterval: time.Hour, RetryDelay: time.Millisecond, MaxRetries: 3})

	c.AddRequest(record(1))
	c.Shutdown()
	assert.Equal(t, int32(3), f.calls.Load())
	assert.Equal(t, 1, f.total())
}

func TestFlushGivesUp(t *testing.T) {
	f := &flushRecorder{}
	f.fail.Store(10)
	c := NewUsageCache(zap.NewNop().Sugar(), f.flush, &Options{FlushInterval: time.Hour, RetryDelay: time.Millisecond, MaxRetries: 2})

	c.AddRequest(record(1))
	c.Shutdown()
	assert.Equal(t, int32(2), f.calls.Load())
	assert.Equal(t, 0, f.total())
}

func TestShutdownDropsLateRecords(t *testing.T) {
	f := &flushRecorder{}
	c := NewUsageCache(zap.NewNop().Sugar(), f.flush, nil)
	c.Shutdown()

	c.AddRequest(record(1))
	c.AddRequest(nil)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int32(0), f.calls.Load())
}
