package body

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vnykmshr/streambody/pkg/metrics"
	"github.com/vnykmshr/streambody/pkg/streaming/channel"
)

// Options configures how a body is built.
type Options struct {
	// OnClose is called once, when the body closes.
	OnClose func() `yaml:"-"`

	// Loop re-runs the producer until the sink is closed.
	Loop bool `yaml:"loop"`

	// ErrorHandler decides whether a failed loop iteration ends the body.
	// Defaults to Reraise.
	ErrorHandler ErrorHandler `yaml:"-"`

	// LoopInterval is the pause between loop iterations. 0 means no pause.
	LoopInterval time.Duration `yaml:"loop_interval"`

	// LoopSchedule is a cron spec ("@every 5s", "*/1 * * * *") timing loop
	// iterations. Mutually exclusive with LoopInterval.
	LoopSchedule string `yaml:"loop_schedule"`

	// Async runs the producer on its own goroutine behind a bounded queue.
	Async bool `yaml:"async"`

	// QueueCapacity bounds the number of unconsumed chunks of an async body.
	// Default: 10
	QueueCapacity int `yaml:"queue_capacity"`

	// Queue replaces the queue an async body would otherwise create.
	Queue channel.Channel[[]byte] `yaml:"-"`

	// Name labels the body in logs and metrics.
	Name string `yaml:"name"`

	// Logger overrides the global zerolog logger.
	Logger *zerolog.Logger `yaml:"-"`

	// Metrics receives body metrics when non-nil.
	Metrics *metrics.Registry `yaml:"-"`
}

// DefaultOptions returns the options used by New before any Option is applied.
func DefaultOptions() Options {
	return Options{
		QueueCapacity: channel.DefaultCapacity,
		Name:          "stream",
	}
}

// Option adjusts Options.
type Option func(*Options)

// WithCallback sets the close callback.
func WithCallback(fn func()) Option {
	return func(o *Options) { o.OnClose = fn }
}

// WithLoop makes the producer run repeatedly until the sink closes.
func WithLoop() Option {
	return func(o *Options) { o.Loop = true }
}

// WithErrorHandler sets the loop error handler and enables looping.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *Options) {
		o.Loop = true
		o.ErrorHandler = h
	}
}

// WithLoopInterval pauses d between loop iterations.
func WithLoopInterval(d time.Duration) Option {
	return func(o *Options) { o.LoopInterval = d }
}

// WithLoopSchedule times loop iterations with a cron spec.
func WithLoopSchedule(spec string) Option {
	return func(o *Options) { o.LoopSchedule = spec }
}

// WithAsync runs the producer in the background. A positive capacity
// overrides QueueCapacity.
func WithAsync(capacity int) Option {
	return func(o *Options) {
		o.Async = true
		if capacity > 0 {
			o.QueueCapacity = capacity
		}
	}
}

// WithQueue supplies the queue for an async body and enables async mode.
func WithQueue(q channel.Channel[[]byte]) Option {
	return func(o *Options) {
		o.Async = true
		o.Queue = q
	}
}

// WithName labels the body.
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.Logger = &l }
}

// WithMetrics records body metrics into reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *Options) { o.Metrics = reg }
}

func (o Options) withDefaults() Options {
	if o.QueueCapacity == 0 {
		o.QueueCapacity = channel.DefaultCapacity
	}
	if o.Name == "" {
		o.Name = DefaultOptions().Name
	}
	return o
}

func (o Options) logger() zerolog.Logger {
	if o.Logger != nil {
		return *o.Logger
	}
	return log.Logger
}
