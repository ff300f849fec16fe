package transport

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vnykmshr/streambody/pkg/metrics"
	"github.com/vnykmshr/streambody/pkg/streaming/body"
)

const (
	transportHTTP      = "http"
	transportSSE       = "sse"
	transportWebSocket = "websocket"
)

// ServeOption configures Serve, ServeWebSocket and the handlers.
type ServeOption func(*serveConfig)

type serveConfig struct {
	sse         bool
	contentType string
	status      int
	logger      zerolog.Logger
	metrics     *metrics.Registry
	bodyOpts    []body.Option
}

func newServeConfig(opts []ServeOption) serveConfig {
	cfg := serveConfig{
		contentType: "text/plain; charset=utf-8",
		status:      http.StatusOK,
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c serveConfig) transport() string {
	if c.sse {
		return transportSSE
	}
	return transportHTTP
}

// WithSSE frames every chunk as a server-sent event.
func WithSSE() ServeOption {
	return func(c *serveConfig) {
		c.sse = true
		c.contentType = "text/event-stream"
	}
}

// WithContentType overrides the response Content-Type.
func WithContentType(ct string) ServeOption {
	return func(c *serveConfig) { c.contentType = ct }
}

// WithStatus sets the response status code. Default: 200.
func WithStatus(code int) ServeOption {
	return func(c *serveConfig) { c.status = code }
}

// WithLogger sets the logger used for transport events.
func WithLogger(l zerolog.Logger) ServeOption {
	return func(c *serveConfig) { c.logger = l }
}

// WithMetrics counts client aborts into reg. The handlers also pass reg on
// to the bodies they build.
func WithMetrics(reg *metrics.Registry) ServeOption {
	return func(c *serveConfig) { c.metrics = reg }
}

// WithBodyOptions sets the options the handlers build bodies with.
func WithBodyOptions(opts ...body.Option) ServeOption {
	return func(c *serveConfig) { c.bodyOpts = append(c.bodyOpts, opts...) }
}

func (c serveConfig) countAbort(transport string) {
	if c.metrics != nil {
		c.metrics.TransportAborts.WithLabelValues(transport).Inc()
	}
}

func (c serveConfig) newBody(producer body.Producer) (body.Body, error) {
	opts := c.bodyOpts
	if c.metrics != nil {
		opts = append([]body.Option{body.WithMetrics(c.metrics)}, opts...)
	}
	return body.New(producer, opts...)
}
