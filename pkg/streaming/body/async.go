package body

import (
	"bytes"
	"context"
	"iter"
	"runtime/debug"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/streambody/pkg/streaming/channel"
)

// AsyncStream runs its producer on a background goroutine that feeds a
// bounded queue; Each drains the queue on the caller's goroutine. The
// producer blocks once the queue holds QueueCapacity unread chunks.
//
// The producer starts as soon as the AsyncStream is created.
type AsyncStream struct {
	stream *SyncStream
	queue  channel.Channel[[]byte]
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	consumed atomic.Bool
	closed   atomic.Bool
}

var _ Body = (*AsyncStream)(nil)

// NewAsync creates an AsyncStream and starts its producer goroutine.
func NewAsync(producer Producer, opts Options) *AsyncStream {
	o := opts.withDefaults()

	queue := o.Queue
	if queue == nil {
		queue = channel.NewWithConfig[[]byte](channel.Config{
			Capacity: o.QueueCapacity,
			Name:     o.Name,
			Metrics:  o.Metrics,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	stream := newSync(producer, o, modeAsync)
	a := &AsyncStream{
		stream: stream,
		queue:  queue,
		logger: stream.logger,
		ctx:    ctx,
		cancel: cancel,
	}
	a.group.Go(a.enqueueChunks)

	return a
}

// ID implements Body.ID.
func (a *AsyncStream) ID() string {
	return a.stream.id
}

// Each implements Body.Each. It returns once the producer goroutine has
// exited, whichever way consumption ended.
func (a *AsyncStream) Each(ctx context.Context, emit func(chunk []byte) error) error {
	if !a.consumed.CompareAndSwap(false, true) {
		return ErrConsumed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if a.closed.Load() {
		return ErrClosed
	}

	err := a.dequeueChunks(ctx, emit)
	if err != nil {
		// Closing the sink also stops a looped producer that is not writing.
		a.cancelProducer()
		_ = a.stream.Close()
	}
	werr := a.group.Wait()
	a.cancel()

	if err != nil {
		return err
	}
	return werr
}

// All implements Body.All.
func (a *AsyncStream) All(ctx context.Context) iter.Seq2[[]byte, error] {
	return all(a, ctx)
}

// Close stops the producer and waits for its goroutine to exit. The queue is
// closed first, so a producer blocked on a full queue is released.
func (a *AsyncStream) Close() error {
	a.closed.Store(true)
	a.cancelProducer()
	_ = a.stream.Close()
	_ = a.group.Wait()
	return nil
}

func (a *AsyncStream) cancelProducer() {
	_ = a.queue.Close()
	a.cancel()
}

func (a *AsyncStream) dequeueChunks(ctx context.Context, emit func([]byte) error) error {
	for {
		chunk, ok, err := a.queue.Pop(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
}

func (a *AsyncStream) enqueueChunks() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
			a.logger.Error().Interface("panic", r).Msg("producer panicked")
		}
		// The consumer is waiting for end of stream.
		_ = a.queue.Close()
	}()

	err = a.stream.Each(a.ctx, func(chunk []byte) error {
		return a.queue.Push(a.ctx, bytes.Clone(chunk))
	})
	if err != nil && (a.stream.aborted() || a.ctx.Err() != nil) {
		// Closed by the consumer; not a producer failure.
		return nil
	}
	return err
}
