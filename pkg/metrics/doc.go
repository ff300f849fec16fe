// Package metrics provides Prometheus instrumentation for streambody components.
//
// Bodies, channels and transports report into a Registry when one is supplied
// through their options. Nothing is recorded when the registry is nil.
//
// # Quick Start
//
//	reg := metrics.NewRegistry(prometheus.NewRegistry())
//
//	b, _ := body.New(producer, body.WithAsync(32), body.WithMetrics(reg), body.WithName("feed"))
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # Available Metrics
//
//   - streambody_body_opened_total{mode,stream_name}
//   - streambody_body_closed_total{mode,stream_name}
//   - streambody_body_active{mode,stream_name}
//   - streambody_body_duration_seconds{mode,stream_name}
//   - streambody_body_chunks_total{stream_name}
//   - streambody_body_bytes_total{stream_name}
//   - streambody_body_producer_errors_total{stream_name}
//   - streambody_loop_iterations_total{stream_name}
//   - streambody_loop_recovered_errors_total{stream_name}
//   - streambody_channel_blocked_pushes_total{channel_name}
//   - streambody_channel_buffer_usage{channel_name}
//   - streambody_transport_aborts_total{transport}
//
// The mode label is "sync" or "async".
//
// # Configuration
//
//	config := metrics.Config{
//		Registry:  prometheus.NewRegistry(),
//		Namespace: "myapp",                             // Override default "streambody"
//		Labels:    prometheus.Labels{"version": "1.0"}, // Additional labels
//	}
//	reg := metrics.NewRegistryWithConfig(config)
package metrics
