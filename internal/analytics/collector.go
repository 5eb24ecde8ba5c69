package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/megastore/catalog-search/pkg/kafka"
)

// Publisher is the subset of the Kafka producer the collector needs.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector accumulates query events and flushes them to Kafka either when
// the batch reaches batchSize or after flushInterval, whichever comes
// first. Publishing is best-effort: on repeated failure the buffer is
// bounded and oldest events are dropped.
type Collector struct {
	producer      Publisher
	mu            sync.Mutex
	buffer        []kafka.Event
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
}

// NewCollector creates a Collector flushing batches of batchSize events or
// on a flushInterval tick.
func NewCollector(producer Publisher, batchSize int, flushInterval time.Duration) *Collector {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &Collector{
		producer:      producer,
		buffer:        make([]kafka.Event, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the background flush loop, which runs until ctx is
// cancelled and then performs a final flush.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.flush(ctx)
			case <-ctx.Done():
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				c.flush(flushCtx)
				cancel()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

// Track buffers a query event, triggering an immediate flush when the
// buffer reaches batchSize.
func (c *Collector) Track(event QueryEvent) {
	c.mu.Lock()
	c.buffer = append(c.buffer, kafka.Event{
		Key:   string(event.Type),
		Value: event,
	})
	shouldFlush := len(c.buffer) >= c.batchSize
	c.mu.Unlock()

	if shouldFlush {
		go c.flush(context.Background())
	}
}

// Close waits for the background flush loop to finish.
func (c *Collector) Close() {
	<-c.done
}

// BufferLen returns the current number of buffered events.
func (c *Collector) BufferLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

func (c *Collector) flush(ctx context.Context) {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.buffer
	c.buffer = make([]kafka.Event, 0, c.batchSize)
	c.mu.Unlock()

	if err := c.producer.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("batch flush failed", "batch_size", len(batch), "error", err)
		c.mu.Lock()
		c.buffer = append(batch, c.buffer...)
		if excess := len(c.buffer) - c.batchSize*3; excess > 0 {
			c.buffer = c.buffer[excess:]
			c.logger.Warn("buffer overflow, oldest events dropped", "dropped", excess)
		}
		c.mu.Unlock()
		return
	}
	c.logger.Debug("batch flushed", "events", len(batch))
}
