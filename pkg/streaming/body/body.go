package body

import (
	"context"
	"errors"
	"io"
	"iter"

	pkgerrors "github.com/pkg/errors"

	gferrors "github.com/vnykmshr/streambody/pkg/common/errors"
)

var (
	// ErrClosed is returned by writes to a closed sink and by Each on a body
	// that was closed before consumption started.
	ErrClosed = pkgerrors.WithMessage(gferrors.ErrClosed, "body")

	// ErrConsumed is returned when Each is called a second time. Bodies are
	// not restartable.
	ErrConsumed = errors.New("body already consumed")

	// errStop ends consumption when a range loop over All breaks early.
	errStop = pkgerrors.WithMessage(gferrors.ErrAborted, "iteration stopped")
)

// Producer writes a body's chunks to sink. A returned error is passed to the
// consumer after the sink has been closed.
type Producer func(sink Sink) error

// Sink is the write endpoint handed to a Producer.
type Sink interface {
	io.Writer
	io.StringWriter

	// Print formats its operands with fmt.Sprint and writes the result as
	// one chunk.
	Print(a ...any) (int, error)

	// Closed reports whether the sink no longer accepts writes.
	Closed() bool

	// Close closes the sink, running the close callback on the first call.
	Close() error

	// Context is canceled when the consumer goes away.
	Context() context.Context
}

// Body is a lazy, finite, non-restartable sequence of byte chunks. The
// consumer must call Close exactly once when it is done, whether it read
// everything or gave up early.
type Body interface {
	// Each hands every chunk, in write order, to emit. An error from emit
	// stops the producer and is returned. Otherwise Each returns the
	// producer's error, if any.
	Each(ctx context.Context, emit func(chunk []byte) error) error

	// All returns the chunks as a range-over-func sequence. Breaking out
	// of the loop stops the producer. A producer error is yielded last.
	All(ctx context.Context) iter.Seq2[[]byte, error]

	// Close releases the body. It is safe to call while Each is running.
	Close() error

	// ID identifies the body in logs.
	ID() string
}

func all(b Body, ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		err := b.Each(ctx, func(chunk []byte) error {
			if !yield(chunk, nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(nil, err)
		}
	}
}
