// Package transport writes bodies to clients: as a chunked HTTP response,
// as server-sent events, or as WebSocket messages. Each function consumes
// the body on the calling goroutine and closes it exactly once.
package transport

import (
	"bytes"
	"net/http"

	"github.com/vnykmshr/streambody/pkg/streaming/body"
)

// ProducerFunc builds the producer for one request. Producers may hold
// per-stream state, so handlers ask for a fresh one every time.
type ProducerFunc func(r *http.Request) (body.Producer, error)

// Serve streams b to w, flushing after every chunk. The request context
// bounds consumption: when the client disconnects the producer's next write
// fails and Serve returns the context error.
//
// Headers are sent before the first chunk, so a producer error cannot change
// the status code. The error is returned for the caller to log.
func Serve(w http.ResponseWriter, r *http.Request, b body.Body, opts ...ServeOption) error {
	cfg := newServeConfig(opts)
	defer b.Close()

	h := w.Header()
	h.Set("Content-Type", cfg.contentType)
	h.Set("X-Content-Type-Options", "nosniff")
	if cfg.sse {
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
	}
	w.WriteHeader(cfg.status)

	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}
	flush()

	write := func(chunk []byte) error {
		_, err := w.Write(chunk)
		return err
	}
	if cfg.sse {
		write = func(chunk []byte) error { return writeEvent(w, chunk) }
	}

	err := b.Each(r.Context(), func(chunk []byte) error {
		if err := write(chunk); err != nil {
			return err
		}
		flush()
		return nil
	})
	return cfg.finish(r.Context().Err(), err, b.ID(), cfg.transport())
}

// Handler returns an http.Handler that builds a body per request and
// serves it with Serve.
func Handler(newProducer ProducerFunc, opts ...ServeOption) http.Handler {
	cfg := newServeConfig(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		producer, err := newProducer(r)
		if err != nil {
			cfg.logger.Error().Err(err).Str("path", r.URL.Path).Msg("failed to build producer")
			http.Error(w, "stream unavailable", http.StatusInternalServerError)
			return
		}
		b, err := cfg.newBody(producer)
		if err != nil {
			cfg.logger.Error().Err(err).Str("path", r.URL.Path).Msg("failed to build body")
			http.Error(w, "stream unavailable", http.StatusInternalServerError)
			return
		}
		// Serve logs failures itself.
		_ = Serve(w, r, b, opts...)
	})
}

// writeEvent frames chunk as one SSE event. Each line of a multi-line chunk
// gets its own data field.
func writeEvent(w http.ResponseWriter, chunk []byte) error {
	var buf bytes.Buffer
	for _, line := range bytes.Split(bytes.TrimSuffix(chunk, []byte("\n")), []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// finish classifies the outcome of a served body. clientErr is set when the
// client went away; whatever error that caused counts as an abort.
func (c serveConfig) finish(clientErr, err error, id, transport string) error {
	logger := c.logger.With().Str("component", "transport").Str("transport", transport).Str("stream_id", id).Logger()
	switch {
	case err == nil:
		logger.Debug().Msg("stream complete")
		return nil
	case clientErr != nil:
		c.countAbort(transport)
		logger.Debug().Err(err).Msg("client disconnected")
	default:
		logger.Error().Err(err).Msg("stream failed")
	}
	return err
}
