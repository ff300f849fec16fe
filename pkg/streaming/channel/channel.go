package channel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/streambody/pkg/metrics"
)

// ErrChannelClosed is returned by Push when the channel is closed before or
// while the value is being offered. It is the normal shutdown signal for a
// producer, not a fault.
var ErrChannelClosed = errors.New("channel is closed")

// Channel is a bounded, order-preserving buffer connecting one producer
// goroutine and one consumer goroutine.
type Channel[T any] interface {
	// Push appends a value, blocking while the buffer is full.
	// Returns ErrChannelClosed if the channel is or becomes closed, or
	// ctx.Err() if ctx ends while waiting.
	Push(ctx context.Context, value T) error

	// Pop removes the oldest value, blocking while the buffer is empty and
	// the channel is open. ok is false once the channel is closed and
	// drained; that is end of stream and err is nil.
	Pop(ctx context.Context) (value T, ok bool, err error)

	// Close marks the channel closed and wakes every blocked Push and Pop.
	// Calling Close more than once is a no-op.
	Close() error

	// IsClosed returns true if the channel is closed.
	IsClosed() bool

	// Len returns the current number of buffered elements.
	Len() int

	// Cap returns the buffer capacity.
	Cap() int

	// Stats returns channel statistics.
	Stats() Stats
}

// Stats holds statistics about channel activity.
type Stats struct {
	// PushCount is the total number of accepted pushes.
	PushCount int64

	// PopCount is the total number of values handed to the consumer.
	PopCount int64

	// BlockedPushes is the number of pushes that had to wait for space.
	BlockedPushes int64

	// BufferUtilization is the current buffer utilization (0.0 to 1.0).
	BufferUtilization float64

	// LastPushTime is the timestamp of the last accepted push.
	LastPushTime time.Time

	// LastPopTime is the timestamp of the last successful pop.
	LastPopTime time.Time
}

// Config holds configuration for Channel.
type Config struct {
	// Capacity is the maximum number of buffered values.
	Capacity int

	// Name labels the channel in metrics.
	Name string

	// OnBlock is called, with the channel lock held, each time a push has to
	// wait for space. It must not call back into the channel.
	OnBlock func()

	// Metrics receives blocked-push and buffer-usage metrics when non-nil.
	Metrics *metrics.Registry
}

// DefaultCapacity is the buffer size used when none is configured.
const DefaultCapacity = 10

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Capacity: DefaultCapacity,
		Name:     "channel",
	}
}

type boundedChannel[T any] struct {
	config Config

	mu       sync.Mutex
	buffer   []T
	head     int
	tail     int
	count    int
	closed   atomic.Bool
	notFull  *sync.Cond
	notEmpty *sync.Cond

	stats Stats
}

// New creates a Channel with the given capacity.
func New[T any](capacity int) Channel[T] {
	config := DefaultConfig()
	config.Capacity = capacity
	return NewWithConfig[T](config)
}

// NewWithConfig creates a Channel with the specified configuration.
// A non-positive capacity falls back to DefaultCapacity.
func NewWithConfig[T any](config Config) Channel[T] {
	if config.Capacity <= 0 {
		config.Capacity = DefaultCapacity
	}
	if config.Name == "" {
		config.Name = DefaultConfig().Name
	}

	ch := &boundedChannel[T]{
		config: config,
		buffer: make([]T, config.Capacity),
	}
	ch.notFull = sync.NewCond(&ch.mu)
	ch.notEmpty = sync.NewCond(&ch.mu)

	return ch
}

// Push implements Channel.Push.
func (ch *boundedChannel[T]) Push(ctx context.Context, value T) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.closed.Load() {
		return ErrChannelClosed
	}

	if ch.count >= len(ch.buffer) {
		ch.stats.BlockedPushes++
		if ch.config.OnBlock != nil {
			ch.config.OnBlock()
		}
		if ch.config.Metrics != nil {
			ch.config.Metrics.ChannelBlockedPushes.WithLabelValues(ch.config.Name).Inc()
		}

		stop := ch.wakeOnDone(ctx, ch.notFull)
		defer stop()

		for ch.count >= len(ch.buffer) && !ch.closed.Load() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ch.notFull.Wait()
		}
	}

	if ch.closed.Load() {
		return ErrChannelClosed
	}

	ch.buffer[ch.tail] = value
	ch.tail = (ch.tail + 1) % len(ch.buffer)
	ch.count++
	ch.stats.PushCount++
	ch.stats.LastPushTime = time.Now()
	ch.reportUsageLocked()
	ch.notEmpty.Signal()

	return nil
}

// Pop implements Channel.Pop.
func (ch *boundedChannel[T]) Pop(ctx context.Context) (T, bool, error) {
	var zero T

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.count == 0 && !ch.closed.Load() {
		stop := ch.wakeOnDone(ctx, ch.notEmpty)
		defer stop()

		for ch.count == 0 && !ch.closed.Load() {
			if err := ctx.Err(); err != nil {
				return zero, false, err
			}
			ch.notEmpty.Wait()
		}
	}

	// Closed channels still hand out what was buffered before the close.
	if ch.count == 0 {
		return zero, false, nil
	}

	value := ch.buffer[ch.head]
	ch.buffer[ch.head] = zero
	ch.head = (ch.head + 1) % len(ch.buffer)
	ch.count--
	ch.stats.PopCount++
	ch.stats.LastPopTime = time.Now()
	ch.reportUsageLocked()
	ch.notFull.Signal()

	return value, true, nil
}

// Close implements Channel.Close.
func (ch *boundedChannel[T]) Close() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.closed.CompareAndSwap(false, true) {
		return nil
	}

	ch.notFull.Broadcast()
	ch.notEmpty.Broadcast()

	return nil
}

// IsClosed implements Channel.IsClosed.
func (ch *boundedChannel[T]) IsClosed() bool {
	return ch.closed.Load()
}

// Len implements Channel.Len.
func (ch *boundedChannel[T]) Len() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.count
}

// Cap implements Channel.Cap.
func (ch *boundedChannel[T]) Cap() int {
	return len(ch.buffer)
}

// Stats implements Channel.Stats.
func (ch *boundedChannel[T]) Stats() Stats {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	stats := ch.stats
	stats.BufferUtilization = float64(ch.count) / float64(len(ch.buffer))
	return stats
}

// wakeOnDone broadcasts on cond when ctx ends so a waiter can observe
// ctx.Err(). The returned func unregisters the callback.
func (ch *boundedChannel[T]) wakeOnDone(ctx context.Context, cond *sync.Cond) func() bool {
	if ctx.Done() == nil {
		return func() bool { return false }
	}
	return context.AfterFunc(ctx, func() {
		ch.mu.Lock()
		cond.Broadcast()
		ch.mu.Unlock()
	})
}

// reportUsageLocked publishes the buffered count (must hold lock).
func (ch *boundedChannel[T]) reportUsageLocked() {
	if ch.config.Metrics != nil {
		ch.config.Metrics.ChannelBufferUsage.WithLabelValues(ch.config.Name).Set(float64(ch.count))
	}
}
