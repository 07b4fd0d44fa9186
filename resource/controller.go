package resource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits. Zero values mean unlimited unless noted.
type Config struct {
	// MaxConcurrentFetches bounds parallel source fetches. Default: 4.
	MaxConcurrentFetches int64

	// FetchesPerSecond bounds how often fetches start.
	FetchesPerSecond float64

	// MemoryLimitBytes bounds the payload bytes held at once.
	MemoryLimitBytes int64

	// IOLimitBytesPerSec bounds payload read throughput.
	IOLimitBytesPerSec int64
}

// DefaultMaxConcurrentFetches is used when Config leaves it unset.
const DefaultMaxConcurrentFetches = 4

// ErrMemoryLimit is returned for a reservation larger than MemoryLimitBytes.
var ErrMemoryLimit = errors.New("resource: payload exceeds memory limit")

// Controller hands out fetch slots, payload memory and read bandwidth.
// It is safe for concurrent use.
type Controller struct {
	cfg Config

	fetchSem     *semaphore.Weighted
	fetchLimiter *rate.Limiter // nil if unlimited

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	ioLimiter *rate.Limiter // nil if unlimited
}

// NewController creates a controller for cfg.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentFetches <= 0 {
		cfg.MaxConcurrentFetches = DefaultMaxConcurrentFetches
	}

	c := &Controller{
		cfg:      cfg,
		fetchSem: semaphore.NewWeighted(cfg.MaxConcurrentFetches),
	}

	if cfg.FetchesPerSecond > 0 {
		c.fetchLimiter = rate.NewLimiter(rate.Limit(cfg.FetchesPerSecond), 1)
	}
	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// AcquireFetch blocks until a fetch slot is free and the start rate
// allows another fetch. Pair with ReleaseFetch.
func (c *Controller) AcquireFetch(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.fetchSem.Acquire(ctx, 1); err != nil {
		return err
	}
	if c.fetchLimiter != nil {
		if err := c.fetchLimiter.Wait(ctx); err != nil {
			c.fetchSem.Release(1)
			return err
		}
	}
	return nil
}

// ReleaseFetch returns a fetch slot.
func (c *Controller) ReleaseFetch() {
	if c == nil {
		return
	}
	c.fetchSem.Release(1)
}

// AcquireMemory reserves payload bytes, blocking while the limit would be
// exceeded. A request larger than the limit fails at once with
// ErrMemoryLimit.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	if c.memSem != nil {
		if bytes > c.cfg.MemoryLimitBytes {
			return fmt.Errorf("%w: %d bytes, limit %d", ErrMemoryLimit, bytes, c.cfg.MemoryLimitBytes)
		}
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}
	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory releases reserved payload bytes.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the payload bytes currently reserved.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireIO waits until the read limit allows bytes. Requests larger than
// the burst are admitted in burst-sized steps.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
