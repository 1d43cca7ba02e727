// Package feed provides change feed bindings: an in-process broadcaster and
// a directory feed that mirrors HTML files into the document store.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// DefaultBuffer is the per-subscriber buffer of a Channel.
const DefaultBuffer = 64

// Channel fans change batches out to every subscriber. Publishing never
// blocks; a subscriber whose buffer is full misses the batch.
type Channel struct {
	mu     sync.Mutex
	subs   map[chan model.ChangeBatch]struct{}
	buffer int
	closed bool

	dropped atomic.Int64
	logger  *slog.Logger
}

var _ services.ChangeFeed = (*Channel)(nil)

// NewChannel creates a broadcaster. A non-positive buffer selects DefaultBuffer.
func NewChannel(buffer int, logger *slog.Logger) *Channel {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		subs:   make(map[chan model.ChangeBatch]struct{}),
		buffer: buffer,
		logger: logger.With("component", "feed"),
	}
}

// Subscribe implements services.ChangeFeed. The returned channel is closed
// when ctx is done or the Channel is closed.
func (c *Channel) Subscribe(ctx context.Context) <-chan model.ChangeBatch {
	ch := make(chan model.ChangeBatch, c.buffer)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch
	}
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
	}()
	return ch
}

// Publish delivers batch to every subscriber and returns how many received it.
// Empty batches are not published.
func (c *Channel) Publish(batch model.ChangeBatch) int {
	if batch.Empty() {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delivered := 0
	for ch := range c.subs {
		select {
		case ch <- batch:
			delivered++
		default:
			total := c.dropped.Add(1)
			c.logger.Warn("subscriber buffer full, dropping batch",
				slog.Int("added", len(batch.Added)),
				slog.Int("removed", len(batch.Removed)),
				slog.Int64("total_dropped", total))
		}
	}
	return delivered
}

// Subscribers returns the number of live subscriptions.
func (c *Channel) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Dropped returns how many deliveries were lost to full buffers.
func (c *Channel) Dropped() int64 {
	return c.dropped.Load()
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for ch := range c.subs {
		close(ch)
		delete(c.subs, ch)
	}
}
