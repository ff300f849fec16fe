package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	gferrors "github.com/vnykmshr/streambody/pkg/common/errors"
	"github.com/vnykmshr/streambody/pkg/streaming/body"
)

const closeGrace = time.Second

// ServeWebSocket sends every chunk of b as one text message on conn, then a
// normal close frame. It owns conn and closes it before returning. A client
// that closes its side or stops responding aborts the body.
func ServeWebSocket(ctx context.Context, conn *websocket.Conn, b body.Body, opts ...ServeOption) error {
	cfg := newServeConfig(opts)
	defer b.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// gorilla only processes control frames while someone reads.
	var g errgroup.Group
	g.Go(func() error {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return nil
			}
		}
	})

	err := b.Each(ctx, func(chunk []byte) error {
		if err := conn.WriteMessage(websocket.TextMessage, chunk); err != nil {
			return gferrors.NewOperationError("transport", "write_message", err)
		}
		return nil
	})

	clientErr := ctx.Err()
	code, text := websocket.CloseNormalClosure, ""
	if err != nil && clientErr == nil {
		code, text = websocket.CloseInternalServerErr, "stream failed"
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text), time.Now().Add(closeGrace))
	_ = conn.Close()
	_ = g.Wait()

	return cfg.finish(clientErr, err, b.ID(), transportWebSocket)
}

// WebSocketHandler upgrades each request and serves a fresh body on the
// connection.
func WebSocketHandler(newProducer ProducerFunc, upgrader websocket.Upgrader, opts ...ServeOption) http.Handler {
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

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied to the client.
			_ = b.Close()
			return
		}
		_ = ServeWebSocket(r.Context(), conn, b, opts...)
	})
}
