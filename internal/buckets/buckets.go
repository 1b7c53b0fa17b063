// Package buckets batches processed request records before they are persisted
package buckets

import (
	"sync"
	"time"

	"deepseek-ocr-api/internal/metrics"
	"deepseek-ocr-api/internal/shared"

	"go.uber.org/zap"
)

// FlushFunc persists one batch of records
type FlushFunc func(records []*shared.ProcessedOCRRequest) error

type Options struct {
	FlushInterval time.Duration
	RetryDelay    time.Duration
	MaxSize       int
	MaxRetries    int
}

func defaultOptions() Options {
	return Options{
		FlushInterval: shared.BucketFlushInterval,
		RetryDelay:    shared.BucketRetryDelay,
		MaxSize:       shared.BucketMaxSize,
		MaxRetries:    shared.MaxFlushRetries,
	}
}

type UsageCache struct {
	mu      sync.Mutex
	records []*shared.ProcessedOCRRequest
	timer   *time.Timer
	closed  bool
	wg      sync.WaitGroup
	flush   FlushFunc
	opts    Options
	log     *zap.SugaredLogger
}

func NewUsageCache(log *zap.SugaredLogger, flush FlushFunc, opts *Options) *UsageCache {
	o := defaultOptions()
	if opts != nil {
		if opts.FlushInterval > 0 {
			o.FlushInterval = opts.FlushInterval
		}
		if opts.RetryDelay > 0 {
			o.RetryDelay = opts.RetryDelay
		}
		if opts.MaxSize > 0 {
			o.MaxSize = opts.MaxSize
		}
		if opts.MaxRetries > 0 {
			o.MaxRetries = opts.MaxRetries
		}
	}
	return &UsageCache{
		flush: flush,
		opts:  o,
		log:   log,
	}
}

// AddRequest buffers one record. A full bucket is flushed right away,
// otherwise a flush is scheduled FlushInterval after the first record.
func (c *UsageCache) AddRequest(pqi *shared.ProcessedOCRRequest) {
	if pqi == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.log.Warnw("Usage cache closed, dropping record", "request_id", pqi.RequestID)
		return
	}
	c.records = append(c.records, pqi)

	if len(c.records) >= c.opts.MaxSize {
		c.stopTimer()
		batch := c.take()
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.flushWithRetry(batch)
		}()
		return
	}

	if c.timer == nil {
		c.log.Debug("Registering flush for bucket")
		c.wg.Add(1)
		var t *time.Timer
		t = time.AfterFunc(c.opts.FlushInterval, func() {
			defer c.wg.Done()
			c.mu.Lock()
			if c.timer == t {
				c.timer = nil
			}
			batch := c.take()
			c.mu.Unlock()
			c.flushWithRetry(batch)
		})
		c.timer = t
	}
}

// stopTimer must be called with mu held
func (c *UsageCache) stopTimer() {
	if c.timer == nil {
		return
	}
	if c.timer.Stop() {
		c.wg.Done()
	}
	c.timer = nil
}

// Len is the number of buffered records
func (c *UsageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// take must be called with mu held
func (c *UsageCache) take() []*shared.ProcessedOCRRequest {
	batch := c.records
	c.records = nil
	return batch
}

func (c *UsageCache) flushWithRetry(batch []*shared.ProcessedOCRRequest) {
	if len(batch) == 0 {
		return
	}
	for attempt := 1; ; attempt++ {
		err := c.flush(batch)
		if err == nil {
			metrics.UsageFlushes.WithLabelValues("success").Inc()
			return
		}
		metrics.UsageFlushes.WithLabelValues("error").Inc()
		if attempt >= c.opts.MaxRetries {
			c.log.Errorw("Dropping usage batch after failed flushes", "records", len(batch), "attempts", attempt, "error", err)
			return
		}
		c.log.Warnw("Flush failed, retrying", "attempt", attempt, "error", err)
		time.Sleep(c.opts.RetryDelay)
	}
}

// Shutdown stops the timer and flushes whatever is left
func (c *UsageCache) Shutdown() {
	c.log.Info("Shutting down usage cache")
	c.mu.Lock()
	c.closed = true
	c.stopTimer()
	batch := c.take()
	c.mu.Unlock()

	c.wg.Wait()
	c.flushWithRetry(batch)
}
