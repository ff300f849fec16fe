package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/streambody/internal/testutil"
	"github.com/vnykmshr/streambody/pkg/streaming/body"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn
}

func readAll(conn *websocket.Conn) ([]string, error) {
	var got []string
	for {
		_ = conn.SetReadDeadline(time.Now().Add(testutil.TestTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return got, err
		}
		got = append(got, string(data))
	}
}

func TestWebSocketMessages(t *testing.T) {
	srv := httptest.NewServer(WebSocketHandler(func(*http.Request) (body.Producer, error) {
		return words("a", "b", "c"), nil
	}, websocket.Upgrader{}))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	got, err := readAll(conn)
	require.Equal(t, []string{"a", "b", "c"}, got)
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestWebSocketProducerError(t *testing.T) {
	srv := httptest.NewServer(WebSocketHandler(func(*http.Request) (body.Producer, error) {
		return func(out body.Sink) error {
			_, _ = out.WriteString("first")
			return errors.New("boom")
		}, nil
	}, websocket.Upgrader{}))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	got, err := readAll(conn)
	require.Equal(t, []string{"first"}, got)
	require.True(t, websocket.IsCloseError(err, websocket.CloseInternalServerErr), "got %v", err)
}

func TestWebSocketClientClose(t *testing.T) {
	closed := make(chan struct{})

	srv := httptest.NewServer(WebSocketHandler(func(*http.Request) (body.Producer, error) {
		return func(out body.Sink) error {
			_, err := out.WriteString("tick")
			return err
		}, nil
	}, websocket.Upgrader{}, WithBodyOptions(
		body.WithLoop(),
		body.WithLoopInterval(5*time.Millisecond),
		body.WithCallback(func() { close(closed) }),
	)))
	defer srv.Close()

	conn := dial(t, srv)
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "tick", string(data))

	require.NoError(t, conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"), time.Now().Add(time.Second)))
	require.NoError(t, conn.Close())

	testutil.Done(t, closed, "body close after websocket client left")
}
