/*
Package streambody provides incremental response bodies for Go servers: a
producer writes byte chunks over time and a single consumer, usually an HTTP
response, reads them in order.

Streaming (pkg/streaming):
  - body: Sync and async bodies, loop policies and the factory
  - channel: Bounded, closable FIFO that carries async chunks
  - transport: Chunked HTTP, server-sent events and WebSocket consumers
  - feed: Redis stream and cron-paced producers for long-lived bodies

Support (pkg):
  - metrics: Prometheus instrumentation
  - common/errors, common/validation: Shared error types and option checks

Example usage:

	import (
		"github.com/vnykmshr/streambody/pkg/streaming/body"
		"github.com/vnykmshr/streambody/pkg/streaming/transport"
	)

	http.Handle("/export", transport.Handler(func(r *http.Request) (body.Producer, error) {
		return func(out body.Sink) error {
			for row := range rows(r.Context()) {
				if _, err := out.Print(row, "\n"); err != nil {
					return err
				}
			}
			return nil
		}, nil
	}, transport.WithBodyOptions(body.WithAsync(64))))
*/
package streambody
