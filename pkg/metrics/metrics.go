// Package metrics provides Prometheus instrumentation for streambody components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for streambody components.
type Registry struct {
	// Body Metrics
	BodiesOpened    *prometheus.CounterVec
	BodiesClosed    *prometheus.CounterVec
	BodiesActive    *prometheus.GaugeVec
	BodyDuration    *prometheus.HistogramVec
	Chunks          *prometheus.CounterVec
	Bytes           *prometheus.CounterVec
	ProducerErrors  *prometheus.CounterVec
	RecoveredErrors *prometheus.CounterVec
	LoopIterations  *prometheus.CounterVec

	// Channel Metrics
	ChannelBlockedPushes *prometheus.CounterVec
	ChannelBufferUsage   *prometheus.GaugeVec

	// Transport Metrics
	TransportAborts *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by streambody components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	config := DefaultConfig()
	config.Registry = reg
	return NewRegistryWithConfig(config)
}

// NewRegistryWithConfig creates a registry honoring the namespace and constant
// labels of config.
func NewRegistryWithConfig(config Config) *Registry {
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.Namespace == "" {
		config.Namespace = DefaultConfig().Namespace
	}

	factory := promauto.With(config.Registry)
	ns := config.Namespace
	labels := config.Labels

	return &Registry{
		BodiesOpened: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "body",
				Name:        "opened_total",
				Help:        "Total number of streaming bodies created",
				ConstLabels: labels,
			},
			[]string{"mode", "stream_name"},
		),

		BodiesClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "body",
				Name:        "closed_total",
				Help:        "Total number of streaming bodies closed",
				ConstLabels: labels,
			},
			[]string{"mode", "stream_name"},
		),

		BodiesActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "body",
				Name:        "active",
				Help:        "Number of streaming bodies currently open",
				ConstLabels: labels,
			},
			[]string{"mode", "stream_name"},
		),

		BodyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "body",
				Name:        "duration_seconds",
				Help:        "Time between body creation and close",
				Buckets:     prometheus.ExponentialBuckets(0.01, 4, 10),
				ConstLabels: labels,
			},
			[]string{"mode", "stream_name"},
		),

		Chunks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "body",
				Name:        "chunks_total",
				Help:        "Total number of chunks written by producers",
				ConstLabels: labels,
			},
			[]string{"stream_name"},
		),

		Bytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "body",
				Name:        "bytes_total",
				Help:        "Total bytes written by producers",
				ConstLabels: labels,
			},
			[]string{"stream_name"},
		),

		ProducerErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "body",
				Name:        "producer_errors_total",
				Help:        "Total number of producer errors returned to the consumer",
				ConstLabels: labels,
			},
			[]string{"stream_name"},
		),

		RecoveredErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "loop",
				Name:        "recovered_errors_total",
				Help:        "Total number of loop iteration errors swallowed by the error handler",
				ConstLabels: labels,
			},
			[]string{"stream_name"},
		),

		LoopIterations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "loop",
				Name:        "iterations_total",
				Help:        "Total number of loop iterations run",
				ConstLabels: labels,
			},
			[]string{"stream_name"},
		),

		ChannelBlockedPushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "channel",
				Name:        "blocked_pushes_total",
				Help:        "Total number of pushes that waited for buffer space",
				ConstLabels: labels,
			},
			[]string{"channel_name"},
		),

		ChannelBufferUsage: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "channel",
				Name:        "buffer_usage",
				Help:        "Current number of buffered chunks",
				ConstLabels: labels,
			},
			[]string{"channel_name"},
		),

		TransportAborts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "transport",
				Name:        "aborts_total",
				Help:        "Total number of responses abandoned by the client",
				ConstLabels: labels,
			},
			[]string{"transport"},
		),
	}
}
