package body

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// SyncStream runs its producer on the consuming goroutine. Every write is
// handed to the consumer before the write returns.
//
// A SyncStream is its own Sink.
type SyncStream struct {
	id       string
	producer Producer
	onClose  func()
	logger   zerolog.Logger
	instr    *instrumentation

	closed   atomic.Bool
	consumed atomic.Bool

	// Set by Each and only touched by the goroutine running the producer.
	ctx      context.Context
	emit     func([]byte) error
	abortErr error
}

var (
	_ Body = (*SyncStream)(nil)
	_ Sink = (*SyncStream)(nil)
)

// NewSync creates a SyncStream. The producer does not run until Each.
func NewSync(producer Producer, opts Options) *SyncStream {
	return newSync(producer, opts.withDefaults(), modeSync)
}

func newSync(producer Producer, o Options, mode string) *SyncStream {
	id := uuid.NewString()
	s := &SyncStream{
		id:       id,
		producer: producer,
		onClose:  o.OnClose,
		logger: o.logger().With().
			Str("component", "body").
			Str("stream_id", id).
			Str("stream_name", o.Name).
			Str("mode", mode).
			Logger(),
		instr: newInstrumentation(o, mode),
		ctx:   context.Background(),
	}
	s.instr.open()
	s.logger.Debug().Msg("body opened")
	return s
}

// ID implements Body.ID.
func (s *SyncStream) ID() string {
	return s.id
}

// Each implements Body.Each. The sink is closed on every exit path,
// including a panicking producer.
func (s *SyncStream) Each(ctx context.Context, emit func(chunk []byte) error) error {
	if !s.consumed.CompareAndSwap(false, true) {
		return ErrConsumed
	}
	if s.closed.Load() {
		return ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx = ctx
	s.emit = emit

	defer s.Close()

	err := s.producer(s)

	if s.abortErr == nil && err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		s.abortErr = ctx.Err()
	}
	if s.abortErr != nil {
		s.logger.Debug().Err(s.abortErr).Msg("consumer stopped reading")
		return s.abortErr
	}
	if err != nil {
		s.instr.producerError()
		return pkgerrors.Wrap(err, "producer")
	}
	return nil
}

// All implements Body.All.
func (s *SyncStream) All(ctx context.Context) iter.Seq2[[]byte, error] {
	return all(s, ctx)
}

// Write hands p to the consumer and returns len(p). A failing consumer
// closes the sink and its error is returned.
func (s *SyncStream) Write(p []byte) (int, error) {
	if s.closed.Load() || s.emit == nil {
		return 0, ErrClosed
	}
	if err := s.ctx.Err(); err != nil {
		s.abort(err)
		return 0, err
	}
	if err := s.emit(p); err != nil {
		s.abort(err)
		return 0, err
	}
	s.instr.chunk(len(p))
	return len(p), nil
}

// WriteString implements io.StringWriter.
func (s *SyncStream) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Print implements Sink.Print.
func (s *SyncStream) Print(a ...any) (int, error) {
	return s.WriteString(fmt.Sprint(a...))
}

// Closed implements Sink.Closed.
func (s *SyncStream) Closed() bool {
	return s.closed.Load()
}

// Context implements Sink.Context.
func (s *SyncStream) Context() context.Context {
	return s.ctx
}

// Close marks the sink closed and runs the close callback. Only the first
// call has any effect.
func (s *SyncStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.onClose != nil {
		s.onClose()
	}
	s.instr.close()
	s.logger.Debug().Msg("body closed")
	return nil
}

func (s *SyncStream) abort(err error) {
	if s.abortErr == nil {
		s.abortErr = err
	}
	_ = s.Close()
}

// aborted reports whether the consumer ended the stream. Only valid on the
// producer goroutine once Each has returned.
func (s *SyncStream) aborted() bool {
	return s.abortErr != nil
}
