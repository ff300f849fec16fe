package body

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	gfcontext "github.com/vnykmshr/streambody/pkg/common/context"
)

// ErrorHandler is consulted when a loop iteration fails. Returning nil keeps
// the loop going; returning an error ends the body with that error.
type ErrorHandler func(err error, sink Sink) error

// Reraise is the default ErrorHandler: any failed iteration ends the body.
func Reraise(err error, _ Sink) error {
	return err
}

// Ignore swallows every iteration error.
func Ignore(error, Sink) error {
	return nil
}

// WriteAndContinue writes msg to the sink and keeps looping.
func WriteAndContinue(msg string) ErrorHandler {
	return func(_ error, sink Sink) error {
		_, _ = sink.WriteString(msg)
		return nil
	}
}

// WriteAndReraise writes msg to the sink, then ends the body with the error.
func WriteAndReraise(msg string) ErrorHandler {
	return func(err error, sink Sink) error {
		_, _ = sink.WriteString(msg)
		return err
	}
}

// PanicError carries a panic recovered from a loop iteration.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("producer panicked: %v", e.Value)
}

// Loop wraps block so it runs again and again until the sink is closed.
// Errors and panics from an iteration go to handle; a nil handle means Reraise.
func Loop(block Producer, handle ErrorHandler) Producer {
	return loop(block, loopConfig{handle: handle, logger: log.Logger})
}

type loopConfig struct {
	handle ErrorHandler
	pace   pacer
	logger zerolog.Logger
	instr  *instrumentation
}

func loop(block Producer, cfg loopConfig) Producer {
	handle := cfg.handle
	if handle == nil {
		handle = Reraise
	}

	return func(sink Sink) error {
		recovered := 0
		for iteration := 0; ; iteration++ {
			if iteration > 0 && cfg.pace != nil {
				if err := cfg.pace(sink.Context()); err != nil {
					return err
				}
			}
			// A consumer that went away may not have closed the sink yet.
			if sink.Closed() {
				return nil
			}
			if err := sink.Context().Err(); err != nil {
				return err
			}

			cfg.instr.iteration()
			err := runIteration(block, sink)
			if err == nil {
				continue
			}
			if herr := handle(err, sink); herr != nil {
				return herr
			}
			cfg.instr.recovered()
			recovered++
			logRecovered(cfg.logger, err, iteration, recovered)
		}
	}
}

// logRecovered warns about the first swallowed error of a loop and keeps the
// rest at debug level.
func logRecovered(logger zerolog.Logger, err error, iteration, recovered int) {
	event := logger.Debug()
	if recovered == 1 {
		event = logger.Warn()
	}
	event.Err(err).Int("iteration", iteration).Int("recovered", recovered).Msg("loop iteration failed, continuing")
}

func runIteration(block Producer, sink Sink) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return block(sink)
}

// pacer blocks between loop iterations until the next one is due.
type pacer func(ctx context.Context) error

func intervalPacer(d time.Duration) pacer {
	return func(ctx context.Context) error {
		return gfcontext.Sleep(ctx, d)
	}
}

func schedulePacer(schedule cron.Schedule) pacer {
	return func(ctx context.Context) error {
		return gfcontext.Sleep(ctx, time.Until(schedule.Next(time.Now())))
	}
}
