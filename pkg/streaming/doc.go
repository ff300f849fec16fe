/*
Package streaming groups the building blocks for streamed responses.

  - body: Producers write chunks to a Sink; bodies hand them to one consumer
  - channel: Bounded, closable queue between an async producer and its consumer
  - transport: Writes a body to an HTTP response, as SSE, or over a WebSocket
  - feed: Producers that relay a Redis stream or emit timed ticks

A body is consumed once and must be closed once. Closing releases a producer
blocked on a full queue, so an abandoned request never leaks its goroutine.
*/
package streaming
