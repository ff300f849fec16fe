package body

import (
	"github.com/robfig/cron/v3"

	gferrors "github.com/vnykmshr/streambody/pkg/common/errors"
	"github.com/vnykmshr/streambody/pkg/common/validation"
)

// New builds a body around producer. Without options the body is
// synchronous and the producer runs once.
//
// New never consumes the body. An async body's producer goroutine is
// started, but it stops at the first full queue until someone reads.
func New(producer Producer, opts ...Option) (Body, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return NewWithOptions(producer, o)
}

// NewWithOptions is New with an explicit Options value.
func NewWithOptions(producer Producer, o Options) (Body, error) {
	if producer == nil {
		return nil, gferrors.NewValidationError("body", "producer", nil, "cannot be nil").
			WithHint("pass a func(body.Sink) error")
	}

	o = o.withDefaults()
	if err := validation.ValidatePositive("body", "queue_capacity", o.QueueCapacity); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("body", "loop_interval", o.LoopInterval); err != nil {
		return nil, err
	}

	if o.Loop {
		cfg, err := newLoopConfig(o)
		if err != nil {
			return nil, err
		}
		producer = loop(producer, cfg)
	}

	if o.Async {
		return NewAsync(producer, o), nil
	}
	return NewSync(producer, o), nil
}

func newLoopConfig(o Options) (loopConfig, error) {
	cfg := loopConfig{
		handle: o.ErrorHandler,
		instr:  newInstrumentation(o, modeOf(o)),
		logger: o.logger().With().Str("component", "body").Str("stream_name", o.Name).Logger(),
	}

	switch {
	case o.LoopSchedule != "" && o.LoopInterval > 0:
		return cfg, gferrors.NewValidationError("body", "loop_schedule", o.LoopSchedule, "conflicts with loop_interval").
			WithHint("set only one of loop_schedule and loop_interval")
	case o.LoopSchedule != "":
		schedule, err := cron.ParseStandard(o.LoopSchedule)
		if err != nil {
			return cfg, gferrors.NewValidationError("body", "loop_schedule", o.LoopSchedule, err.Error()).
				WithHint(`use a cron spec such as "*/5 * * * *" or "@every 1s"`)
		}
		cfg.pace = schedulePacer(schedule)
	case o.LoopInterval > 0:
		cfg.pace = intervalPacer(o.LoopInterval)
	}

	return cfg, nil
}

func modeOf(o Options) string {
	if o.Async {
		return modeAsync
	}
	return modeSync
}
