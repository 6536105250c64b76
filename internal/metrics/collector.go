package metrics

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// SizeProvider reports the storage size in bytes
type SizeProvider interface {
	Size() int64
}

// Collector periodically updates the system gauges
type Collector struct {
	metrics   *Metrics
	storage   SizeProvider
	interval  time.Duration
	startTime time.Time
	logger    *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCollector creates a new system metrics collector
func NewCollector(m *Metrics, storage SizeProvider, interval time.Duration, logger *slog.Logger) *Collector {
	if interval == 0 {
		interval = 15 * time.Second
	}
	return &Collector{
		metrics:   m,
		storage:   storage,
		interval:  interval,
		startTime: time.Now(),
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// Start begins updating gauges in the background
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.loop(ctx)
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Collector) loop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.update()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.update()
		}
	}
}

func (c *Collector) update() {
	c.metrics.UptimeSeconds.Set(time.Since(c.startTime).Seconds())
	c.metrics.Goroutines.Set(float64(runtime.NumGoroutine()))
	if c.storage != nil {
		c.metrics.StorageUsedBytes.Set(float64(c.storage.Size()))
	}
	c.logger.Debug("system metrics updated")
}
